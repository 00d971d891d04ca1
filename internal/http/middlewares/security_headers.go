package middlewares

import "github.com/gin-gonic/gin"

const (
	defaultCSP = "default-src 'none'; frame-ancestors 'none'"
	// the admin panel is server rendered with an inline stylesheet
	adminPanelCSP = "default-src 'none'; style-src 'unsafe-inline'; base-uri 'none'; frame-ancestors 'none'; form-action 'none'"
)

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		if c.Request.URL.Path == "/admin" {
			c.Header("Content-Security-Policy", adminPanelCSP)
		} else {
			c.Header("Content-Security-Policy", defaultCSP)
		}
		c.Next()
	}
}
