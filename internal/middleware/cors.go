package middleware

import (
	"net/http"

	"delivery-backend/internal/config"

	"github.com/rs/cors"
)

// NewCORS lets the point-of-sale and driver front ends call the API
func NewCORS(cfg *config.Config) func(http.Handler) http.Handler {
	origins := cfg.Server.CorsAllowedOrigins
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   cfg.Server.CorsAllowedMethods,
		AllowedHeaders:   cfg.Server.CorsAllowedHeaders,
		ExposedHeaders:   []string{"X-Document-Key"},
		AllowCredentials: !allowsAny(origins),
		MaxAge:           300, // 5 minutes
	})

	return c.Handler
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
