// middleware/cors.go
package middleware

import (
	"net/http"

	"assettrack/config"
)

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow WebSocket connections
		if r.Header.Get("Upgrade") == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Pin the origin when CLIENT_ORIGIN is configured; otherwise echo
		// the caller's origin so local frontends work out of the box.
		switch {
		case config.ClientOrigin != "":
			w.Header().Set("Access-Control-Allow-Origin", config.ClientOrigin)
		case r.Header.Get("Origin") != "":
			w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		default:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
