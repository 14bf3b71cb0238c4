package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

type ActivityController struct {
	Feed *services.ActivityFeed
}

func NewActivityController(feed *services.ActivityFeed) *ActivityController {
	return &ActivityController{Feed: feed}
}

// GetEvents -> GET /admin/events?limit=50
func (ac *ActivityController) GetEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	feed, err := ac.Feed.Recent(c.Request.Context(), middlewares.TenantID(c), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recent events", feed)
}
