package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/sysutil"
)

const (
	identityKey = "identity"
	userIDKey   = "userID"
)

// IdentityOptions names the trusted headers set by the fronting login proxy.
type IdentityOptions struct {
	// UserHeader carries the authenticated user id. Required.
	UserHeader string
	// NameHeader optionally carries a display name; the user id is used
	// when it is empty or absent.
	NameHeader string
}

// IdentityFromHeaders resolves the caller identity from proxy headers and
// stores it in the Gin context. A request without UserHeader is
// unauthenticated. The proxy must strip these headers from client requests.
func IdentityFromHeaders(opts IdentityOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := strings.TrimSpace(c.GetHeader(opts.UserHeader))
		id := domain.Identity{}
		if user != "" {
			name := ""
			if opts.NameHeader != "" {
				name = strings.TrimSpace(c.GetHeader(opts.NameHeader))
			}
			id = domain.Identity{DisplayName: sysutil.FirstNonEmpty(name, user), Authenticated: true}
			c.Set(userIDKey, user)
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by IdentityFromHeaders, or an
// unauthenticated identity when the middleware did not run.
func IdentityFrom(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}
