package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmapos/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects request bodies larger than maxBytes. Declared
// lengths are rejected up front; chunked bodies are capped with a
// limited reader so a lying client cannot stream past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
