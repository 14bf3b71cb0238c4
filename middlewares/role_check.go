package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/utils"
)

// RequireRoles lets the request through when the authenticated role is one of
// roles. Admins always pass.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(CtxRole)
		if !exists {
			utils.RespondErrorCode(c, http.StatusUnauthorized, apperr.ErrUnauthorized.Code, "unauthorized")
			c.Abort()
			return
		}

		role, _ := userRole.(string)
		if role == models.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		utils.RespondErrorCode(c, http.StatusForbidden, apperr.ErrForbidden.Code, fmt.Sprintf("%s access required", strings.Join(roles, " or ")))
		c.Abort()
	}
}

// StationsForRole maps a staff role to the stations it may work: chefs the
// kitchen, bartenders the bar, everyone else both.
func StationsForRole(role string) []models.Station {
	switch role {
	case models.RoleChef:
		return []models.Station{models.StationKitchen}
	case models.RoleBartender:
		return []models.Station{models.StationBar}
	default:
		return []models.Station{models.StationKitchen, models.StationBar}
	}
}

// CanWorkStation reports whether role may read or update station's queue.
func CanWorkStation(role string, station models.Station) bool {
	for _, s := range StationsForRole(role) {
		if s == station {
			return true
		}
	}
	return false
}
