package middleware

import (
	"context"
	"net/http"
	"strings"

	"limitedtees.shop/storefront/internal/i18n"
)

const langCookieName = "hl"

type langInfo struct {
	lang     string
	explicit bool
}

// Locale resolves the request language from ?hl, then the hl cookie, then
// Accept-Language. An explicit ?hl is remembered in the cookie.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info := langInfo{}
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && bundle.IsSupported(q) {
				info = langInfo{lang: q, explicit: true}
				http.SetCookie(w, &http.Cookie{Name: langCookieName, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if c, err := r.Cookie(langCookieName); err == nil && bundle.IsSupported(strings.ToLower(c.Value)) {
				info.lang = strings.ToLower(c.Value)
			} else {
				info.lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			if info.lang == "" {
				info.lang = bundle.Fallback()
			}
			w.Header().Set("Content-Language", info.lang)
			w.Header().Add("Vary", "Accept-Language")
			ctx := context.WithValue(r.Context(), ctxKeyLang, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Lang returns the resolved language, or "en" when Locale did not run.
func Lang(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeyLang).(langInfo); ok && v.lang != "" {
		return v.lang
	}
	return "en"
}

// ExplicitLang returns the language only when the request selected it with ?hl,
// so generated links can carry it forward.
func ExplicitLang(r *http.Request) string {
	if v, ok := r.Context().Value(ctxKeyLang).(langInfo); ok && v.explicit {
		return v.lang
	}
	return ""
}
