package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/kds"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

// KDSController serves the kitchen and bar displays.
type KDSController struct {
	Router   *services.FulfillmentRouter
	Hub      *kds.Hub
	upgrader websocket.Upgrader
}

func NewKDSController(router *services.FulfillmentRouter, hub *kds.Hub, allowedOrigin string) *KDSController {
	return &KDSController{
		Router: router,
		Hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// station parses :station and checks the caller's role may work it.
func (kc *KDSController) station(c *gin.Context) (models.Station, bool) {
	station, ok := models.ParseStation(c.Param("station"))
	if !ok {
		utils.RespondErrorCode(c, http.StatusBadRequest, apperr.ErrValidation.Code, "station must be kitchen or bar")
		return "", false
	}
	if !middlewares.CanWorkStation(middlewares.Role(c), station) {
		respondServiceError(c, apperr.ErrForbidden)
		return "", false
	}
	return station, true
}

// GetQueue -> GET /kds/:station/queue
func (kc *KDSController) GetQueue(c *gin.Context) {
	station, ok := kc.station(c)
	if !ok {
		return
	}
	queue, err := kc.Router.StationQueue(c.Request.Context(), middlewares.TenantID(c), station)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Station queue", queue)
}

// MarkFulfilled -> POST /kds/:station/orders/:order_id/fulfill
func (kc *KDSController) MarkFulfilled(c *gin.Context) {
	station, ok := kc.station(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := kc.Router.MarkFulfilled(c.Request.Context(), middlewares.TenantID(c), orderID, station)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items fulfilled", order)
}

// Stream -> GET /ws/:station, websocket feed of the station's events
func (kc *KDSController) Stream(c *gin.Context) {
	station, ok := kc.station(c)
	if !ok {
		return
	}
	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.Hub.Serve(ws, middlewares.TenantID(c), []models.Station{station})
}
