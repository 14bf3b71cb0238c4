package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

// SessionController serves guests, authenticated by their session token, and
// staff views of sessions.
type SessionController struct {
	Sessions *services.SessionManager
	Intake   *services.OrderIntake
	Catalog  *services.CatalogService
	Billing  *services.Billing
	Currency string
}

func NewSessionController(sessions *services.SessionManager, intake *services.OrderIntake, catalog *services.CatalogService, billing *services.Billing, currency string) *SessionController {
	return &SessionController{Sessions: sessions, Intake: intake, Catalog: catalog, Billing: billing, Currency: currency}
}

// GetSession -> GET /session
func (sc *SessionController) GetSession(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	view, err := sc.Sessions.GuestView(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", gin.H{
		"session":         view,
		"total_formatted": utils.FormatAmount(view.Total, sc.Currency),
	})
}

// GetMenu -> GET /session/menu
func (sc *SessionController) GetMenu(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	s, err := sc.Sessions.Resolve(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	categories, products, err := sc.Catalog.Menu(c.Request.Context(), s.TenantID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"categories": categories,
		"products":   products,
	})
}

// SubmitOrder -> POST /session/orders
func (sc *SessionController) SubmitOrder(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	var req struct {
		CustomerLabel string                 `json:"customer_label"`
		Items         []services.ItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := sc.Intake.SubmitOrder(c.Request.Context(), token, req.CustomerLabel, req.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order submitted", order)
}

// RequestBill -> POST /session/bill
func (sc *SessionController) RequestBill(c *gin.Context) {
	token, ok := sessionToken(c)
	if !ok {
		return
	}
	s, err := sc.Sessions.RequestBill(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill requested", s)
}

// ListOpenSessions -> GET /admin/sessions
func (sc *SessionController) ListOpenSessions(c *gin.Context) {
	sessions, err := sc.Sessions.OpenSessions(c.Request.Context(), middlewares.TenantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Open sessions", sessions)
}

// GetSessionDetail -> GET /admin/sessions/:session_id
func (sc *SessionController) GetSessionDetail(c *gin.Context) {
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	detail, err := sc.Sessions.SessionDetail(c.Request.Context(), middlewares.TenantID(c), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", detail)
}

// GetSessionTotal -> GET /admin/sessions/:session_id/total
func (sc *SessionController) GetSessionTotal(c *gin.Context) {
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	total, err := sc.Billing.ComputeTotal(c.Request.Context(), middlewares.TenantID(c), sessionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session total", gin.H{
		"session_id":      sessionID,
		"total":           total,
		"total_formatted": utils.FormatAmount(total, sc.Currency),
	})
}

// CloseSession -> POST /admin/sessions/:session_id/close
func (sc *SessionController) CloseSession(c *gin.Context) {
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}
	s, err := sc.Sessions.CloseSession(c.Request.Context(), middlewares.TenantID(c), sessionID, middlewares.UserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session closed", gin.H{
		"session":         s,
		"total":           *s.TotalAtClose,
		"total_formatted": utils.FormatAmount(*s.TotalAtClose, sc.Currency),
	})
}
