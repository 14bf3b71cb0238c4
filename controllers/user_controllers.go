package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

type UserController struct {
	Admin *services.AdminService
}

func NewUserController(admin *services.AdminService) *UserController {
	return &UserController{Admin: admin}
}

// RegisterTenant -> POST /tenants
func (uc *UserController) RegisterTenant(c *gin.Context) {
	var req struct {
		TenantName string `json:"tenant_name" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tenant, user, err := uc.Admin.RegisterTenant(c.Request.Context(), req.TenantName, services.StaffInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Tenant registered", gin.H{
		"tenant": tenant,
		"admin":  user,
	})
}

// Login -> POST /login
func (uc *UserController) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, user, err := uc.Admin.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// CreateStaff -> POST /admin/staff
func (uc *UserController) CreateStaff(c *gin.Context) {
	var req services.StaffInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStaff
	}

	user, err := uc.Admin.CreateStaff(c.Request.Context(), middlewares.TenantID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Staff created", user)
}

// ListStaff -> GET /admin/staff
func (uc *UserController) ListStaff(c *gin.Context) {
	users, err := uc.Admin.ListStaff(c.Request.Context(), middlewares.TenantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of staff", users)
}
