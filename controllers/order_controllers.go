package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

type OrderController struct {
	Router *services.FulfillmentRouter
}

func NewOrderController(router *services.FulfillmentRouter) *OrderController {
	return &OrderController{Router: router}
}

// GetOrder -> GET /admin/orders/:order_id
func (oc *OrderController) GetOrder(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Router.Order(c.Request.Context(), middlewares.TenantID(c), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CancelOrder -> POST /admin/orders/:order_id/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Router.CancelOrder(c.Request.Context(), middlewares.TenantID(c), orderID, middlewares.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}
