package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware configures Cross-Origin Resource Sharing for the API.
// Only the front-end at clientURL may call it, with credentials.
func CORSMiddleware(clientURL string) gin.HandlerFunc {
	if clientURL == "" {
		// An empty origin would reject every browser call; fail at startup instead.
		panic("ClientURL for CORS is not configured")
	}

	return cors.New(cors.Config{
		// Single configured origin. A comma-separated CLIENT_URL would need
		// AllowOriginFunc instead.
		AllowOrigins: []string{clientURL},

		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},

		// Authorization carries the Firebase ID token; X-Request-ID lets the
		// front-end correlate its calls with server logs.
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader},

		// Browsers hide non-safelisted response headers unless exposed here.
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},

		AllowCredentials: true,

		// How long a browser may cache the preflight answer.
		MaxAge: 12 * time.Hour,
	})
}
