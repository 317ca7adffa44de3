package middleware

import (
	"encoding/json"
	"net/http"
)

// ToastEvent is the client event an htmx error response triggers.
const ToastEvent = "toast"

type toast struct {
	Message string `json:"message"`
	Tone    string `json:"tone"`
	Status  int    `json:"status"`
}

// writeError rejects a request. Plain requests get a text error page. htmx
// requests keep the current DOM (HX-Reswap: none) and raise a toast event
// carrying the message, since htmx does not swap error responses.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if !IsHTMX(r.Context()) {
		http.Error(w, msg, code)
		return
	}
	payload := map[string]toast{ToastEvent: {Message: msg, Tone: "error", Status: code}}
	if raw, err := json.Marshal(payload); err == nil {
		w.Header().Set("HX-Trigger", string(raw))
	}
	w.Header().Set("HX-Reswap", "none")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}
