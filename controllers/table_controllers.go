package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

type TableController struct {
	Admin    *services.AdminService
	Sessions *services.SessionManager
}

func NewTableController(admin *services.AdminService, sessions *services.SessionManager) *TableController {
	return &TableController{Admin: admin, Sessions: sessions}
}

// ScanTable -> POST /tables/:table_id/scan, called when a guest scans the QR code
func (tc *TableController) ScanTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	opened, err := tc.Sessions.OpenOrReuse(c.Request.Context(), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status, message := http.StatusCreated, "Session opened"
	if opened.Reused {
		status, message = http.StatusOK, "Session already open"
	}
	utils.RespondJSON(c, status, message, gin.H{
		"token":      opened.Session.Token,
		"session":    opened.Session,
		"table_id":   opened.Table.ID,
		"table_name": opened.Table.Name,
	})
}

// CreateTable -> POST /admin/tables
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	table, err := tc.Admin.CreateTable(c.Request.Context(), middlewares.TenantID(c), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> GET /admin/tables?include_inactive=true
func (tc *TableController) GetAllTables(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))
	tables, err := tc.Admin.ListTables(c.Request.Context(), middlewares.TenantID(c), includeInactive)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTable -> GET /admin/tables/:table_id
func (tc *TableController) GetTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.Admin.GetTable(c.Request.Context(), middlewares.TenantID(c), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// RenameTable -> PUT /admin/tables/:table_id
func (tc *TableController) RenameTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	table, err := tc.Admin.RenameTable(c.Request.Context(), middlewares.TenantID(c), tableID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table renamed", table)
}

// DeactivateTable -> DELETE /admin/tables/:table_id
func (tc *TableController) DeactivateTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.Admin.DeactivateTable(c.Request.Context(), middlewares.TenantID(c), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", table)
}

// TableSessions -> GET /admin/tables/:table_id/sessions?limit=20
func (tc *TableController) TableSessions(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	sessions, err := tc.Sessions.TableHistory(c.Request.Context(), middlewares.TenantID(c), tableID, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table sessions", sessions)
}
