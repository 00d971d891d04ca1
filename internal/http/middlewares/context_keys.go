package middlewares

import "github.com/gin-gonic/gin"

// gin context keys shared by the middlewares and handlers.
const (
	CtxRequestID = "request_id"
	CtxUser      = "auth.user"
)

func requestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.GetHeader(requestIDHeader)
}

// abortWithError writes the shared error envelope and stops the chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": requestIDFrom(c),
		},
	})
}
