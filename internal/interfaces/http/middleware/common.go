package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID, reusing the caller's when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// CORS answers preflight requests and sets the allow headers for the
// configured origins. An empty origin list allows any origin, which the
// config layer forbids in production.
func CORS(allowOrigins, allowMethods, allowHeaders []string) gin.HandlerFunc {
	originSet := make(map[string]bool, len(allowOrigins))
	for _, o := range allowOrigins {
		originSet[o] = true
	}
	methods := strings.Join(allowMethods, ", ")
	headers := strings.Join(allowHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if len(originSet) == 0 || originSet[origin] {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Vary", "Origin")
				c.Writer.Header().Set("Access-Control-Allow-Methods", methods)
				c.Writer.Header().Set("Access-Control-Allow-Headers", headers)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
