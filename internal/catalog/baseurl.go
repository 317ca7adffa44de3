package catalog

import (
	"net"
	"net/http"
	"strings"
)

// DefaultBackendPort is the port the backend listens on when it is colocated
// with the storefront and no explicit base URL is configured.
const DefaultBackendPort = "8000"

// ResolveBaseURL picks the API root for a request. A configured URL always
// wins; otherwise the request's own origin is reused with the port replaced
// by fallbackPort.
func ResolveBaseURL(configured string, r *http.Request, fallbackPort string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return strings.TrimRight(configured, "/")
	}
	if fallbackPort = strings.TrimSpace(fallbackPort); fallbackPort == "" {
		fallbackPort = DefaultBackendPort
	}
	scheme := "http"
	host := "localhost"
	if r != nil {
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			scheme = "https"
		}
		if h := hostname(r.Host); h != "" {
			host = h
		}
	}
	return scheme + "://" + net.JoinHostPort(host, fallbackPort)
}

func hostname(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(hostport, "[]")
}
