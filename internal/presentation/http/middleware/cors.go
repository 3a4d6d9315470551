package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:4321",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:4321",
	"http://[::1]:3000", // IPv6 localhost
	"http://[::1]:4321", // IPv6 localhost
}

// CORSMiddleware allows the operator dashboard origins. allowed is a comma
// separated list; empty keeps the localhost defaults.
func CORSMiddleware(allowed string) gin.HandlerFunc {
	origins := defaultOrigins
	if allowed != "" {
		origins = nil
		for _, o := range strings.Split(allowed, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	config := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			HeaderNonce, HeaderRequestID, "X-Requested-With",
			"Cache-Control",
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control", HeaderRequestID,
		},
	}

	return cors.New(config)
}
