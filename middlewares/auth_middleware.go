package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/utils"
)

// Context keys set by AuthMiddleware.
const (
	CtxUserID   = "user_id"
	CtxTenantID = "tenant_id"
	CtxRole     = "role"
)

// AuthMiddleware authenticates staff by JWT. The token comes from the
// Authorization header, or from the "token" query parameter for websocket
// upgrades where browsers cannot set headers.
func AuthMiddleware(issuer *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondErrorCode(c, http.StatusUnauthorized, apperr.ErrUnauthorized.Code, "invalid authorization header format")
				c.Abort()
				return
			}
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			utils.RespondErrorCode(c, http.StatusUnauthorized, apperr.ErrUnauthorized.Code, "authorization header missing")
			c.Abort()
			return
		}

		claims, err := issuer.Parse(tokenString)
		if err != nil {
			utils.RespondErrorCode(c, http.StatusUnauthorized, apperr.ErrUnauthorized.Code, err.Error())
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxTenantID, claims.TenantID)
		c.Set(CtxRole, claims.Role)

		c.Next()
	}
}

// TenantID returns the tenant of the authenticated staff member.
func TenantID(c *gin.Context) uint {
	return c.GetUint(CtxTenantID)
}

// UserID returns the authenticated staff member.
func UserID(c *gin.Context) uint {
	return c.GetUint(CtxUserID)
}

func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}
