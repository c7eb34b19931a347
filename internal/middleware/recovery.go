package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"delivery-backend/pkg/utils"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[HTTP] PANIC RECOVERED on %s %s: %v\n%s", r.Method, r.URL.Path, err, debug.Stack())
				utils.Error(w, http.StatusInternalServerError, utils.ErrorBody{Error: "Internal server error"})
			}
		}()

		next.ServeHTTP(w, r)
	})
}
