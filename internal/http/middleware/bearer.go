package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Authorizer validates a raw Authorization header value.
type Authorizer interface {
	Authorize(header string) error
}

// BearerAuth rejects requests whose Authorization header the authorizer does
// not accept. The header is passed through untouched: no trimming and no
// scheme case-folding.
func BearerAuth(a Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.Authorize(c.GetHeader("Authorization")); err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("retrieval rejected")
			c.Header("WWW-Authenticate", `Bearer realm="sjdb"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "valid bearer token required",
			})
			return
		}
		c.Next()
	}
}
