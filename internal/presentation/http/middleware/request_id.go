package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	perr "github.com/GarethCitcom/orphaned-acf-media/internal/domain/errors"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/observability/logging"
	"github.com/GarethCitcom/orphaned-acf-media/internal/infrastructure/security"
)

// HeaderRequestID carries the request id in both directions
const HeaderRequestID = "X-Request-ID"

// RequestID tags every request with an id and stores it on the request
// context for channel loggers
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = security.GenerateULID()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logging.RequestIDKey, id))
		c.Next()
	}
}

// AbortWithError writes the structured error body with its mapped status
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(perr.HTTPStatus(err), perr.WireFrom(err))
}
