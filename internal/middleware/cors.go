package middleware

import "net/http"

// DefaultAllowedOrigins is the production origin allow-list.
var DefaultAllowedOrigins = []string{
	"https://sensihi.com",
	"https://www.sensihi.com",
}

// CORS gates cross-origin access to the allow-list and answers OPTIONS
// preflights. Requests from unlisted origins fall back to the primary
// site origin rather than echoing the caller.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	primary := allowedOrigins[0]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowOrigin := primary
			if _, ok := allowed[origin]; ok {
				allowOrigin = origin
			}

			header := w.Header()
			header.Set("Access-Control-Allow-Origin", allowOrigin)
			header.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Content-Type")
			header.Set("Access-Control-Max-Age", "86400")
			header.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
