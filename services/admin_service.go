package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
	"github.com/yeremiapane/table-session/utils"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// validate checks staff input for callers that bypass gin binding.
var validate = validator.New()

// AdminService manages tenants, staff accounts and tables.
type AdminService struct {
	base
	issuer *utils.TokenIssuer
	cost   int
}

func NewAdminService(st *store.Store, issuer *utils.TokenIssuer) *AdminService {
	return &AdminService{base: newBase(st), issuer: issuer, cost: bcrypt.DefaultCost}
}

// SetHashCost lowers the bcrypt cost, for tests.
func (a *AdminService) SetHashCost(cost int) {
	a.cost = cost
}

// StaffInput describes a staff account to create.
type StaffInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (in *StaffInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return apperr.Validation("name is required")
	}
	if err := validate.Var(in.Email, "required,email"); err != nil {
		return apperr.Validation("email is invalid")
	}
	if len(in.Password) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !models.ValidRole(in.Role) {
		return apperr.Validation(fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}

// RegisterTenant creates a tenant together with its first admin account.
func (a *AdminService) RegisterTenant(ctx context.Context, tenantName string, admin StaffInput) (*models.Tenant, *models.User, error) {
	tenantName = strings.TrimSpace(tenantName)
	if tenantName == "" {
		return nil, nil, apperr.Validation("tenant name is required")
	}
	admin.Role = models.RoleAdmin
	if err := admin.normalize(); err != nil {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), a.cost)
	if err != nil {
		return nil, nil, err
	}

	var tenant *models.Tenant
	var user *models.User
	err = a.store.Transaction(ctx, func(tx *store.Tx) error {
		t, err := tx.CreateTenant(tenantName)
		if err != nil {
			return err
		}
		u := &models.User{Name: admin.Name, Email: admin.Email, Password: string(hash), Role: models.RoleAdmin}
		if err := tx.CreateUser(t.ID, u); err != nil {
			return err
		}
		tenant, user = t, u
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"tenant_id": tenant.ID}).Info("tenant registered")
	return tenant, user, nil
}

// Login checks credentials and issues a staff token bound to the account's tenant.
func (a *AdminService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := a.store.Reader(ctx).UserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.ErrUnauthorized
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperr.ErrUnauthorized
	}

	token, err := a.issuer.Generate(user.ID, user.TenantID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (a *AdminService) CreateStaff(ctx context.Context, tenantID uint, in StaffInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return nil, err
	}

	u := &models.User{Name: in.Name, Email: in.Email, Password: string(hash), Role: in.Role}
	err = a.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.CreateUser(tenantID, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (a *AdminService) ListStaff(ctx context.Context, tenantID uint) ([]models.User, error) {
	return a.store.Reader(ctx).Users(tenantID)
}

func tableName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("table name is required")
	}
	if len(name) > 50 {
		return "", apperr.Validation("table name must be at most 50 characters")
	}
	return name, nil
}

func (a *AdminService) CreateTable(ctx context.Context, tenantID uint, name string) (*models.Table, error) {
	name, err := tableName(name)
	if err != nil {
		return nil, err
	}
	var table *models.Table
	err = a.store.Transaction(ctx, func(tx *store.Tx) error {
		table, err = tx.CreateTable(tenantID, name)
		return err
	})
	return table, err
}

func (a *AdminService) ListTables(ctx context.Context, tenantID uint, includeInactive bool) ([]models.Table, error) {
	return a.store.Reader(ctx).Tables(tenantID, includeInactive)
}

func (a *AdminService) GetTable(ctx context.Context, tenantID, tableID uint) (*models.Table, error) {
	return a.store.Reader(ctx).Table(tenantID, tableID)
}

func (a *AdminService) RenameTable(ctx context.Context, tenantID, tableID uint, name string) (*models.Table, error) {
	name, err := tableName(name)
	if err != nil {
		return nil, err
	}
	var table *models.Table
	err = a.store.Transaction(ctx, func(tx *store.Tx) error {
		table, err = tx.RenameTable(tenantID, tableID, name)
		return err
	})
	return table, err
}

// DeactivateTable takes a table out of service. Its open session, if any, is
// left for staff to close.
func (a *AdminService) DeactivateTable(ctx context.Context, tenantID, tableID uint) (*models.Table, error) {
	var table *models.Table
	err := a.store.Transaction(ctx, func(tx *store.Tx) error {
		var err error
		table, err = tx.DeactivateTable(tenantID, tableID)
		return err
	})
	return table, err
}
