package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the web frontend to call the API with credentials and to read
// the download filename of exports.
func CORS(frontendURL string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler
}
