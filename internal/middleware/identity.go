package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/fieldsight/fieldsight/internal/auth"
)

// Context keys set by the identity middleware.
const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxUserNameKey = "userName"
)

// Identity resolves the acting officer for every request. A valid Bearer
// session token wins; otherwise the request runs as the seeded demo
// officer. Authentication is never enforced in this deployment, so the
// middleware falls back rather than rejecting.
func Identity(jwt *iauth.JWTService, demoUserID, demoUserName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := bearerClaims(c, jwt); claims != nil {
			c.Set(CtxClaimsKey, claims)
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserNameKey, claims.UserName)
			c.Next()
			return
		}

		c.Set(CtxUserIDKey, demoUserID)
		c.Set(CtxUserNameKey, demoUserName)
		c.Next()
	}
}

func bearerClaims(c *gin.Context, jwt *iauth.JWTService) *iauth.Claims {
	if jwt == nil {
		return nil
	}
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return nil
	}
	claims, err := jwt.ValidateSessionToken(strings.TrimSpace(authz[7:]))
	if err != nil {
		return nil
	}
	return claims
}
