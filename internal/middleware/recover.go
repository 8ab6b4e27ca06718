package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Mrdrey/ocr/internal/logger"
)

// RecoverMiddleware is the outermost error boundary. Any panic escaping a
// handler is converted into the generic 500 response so the process never
// dies with a response unsent.
func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := r.Context()
			logger.Error(ctx, "panic recovered in handler", fmt.Errorf("%v", rec), logger.Fields{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": fmt.Sprintf("Server error: %v", rec),
			})
		}()

		next.ServeHTTP(w, r)
	})
}
