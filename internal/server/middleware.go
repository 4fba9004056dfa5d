package server

import (
	"net/http"
	"runtime/debug"

	"github.com/Nagalakshmi-N-03/CargoOpt-sub000/internal/logging"
)

// Recovery returns a middleware that turns handler panics into logged
// 500 responses instead of dropped connections.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Recovered from panic", logging.Fields{
						"error":  rec,
						"method": r.Method,
						"path":   r.URL.Path,
						"stack":  string(debug.Stack()),
					})
					writeError(w, http.StatusInternalServerError,
						http.StatusText(http.StatusInternalServerError))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
