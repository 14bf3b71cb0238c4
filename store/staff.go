package store

import (
	"fmt"

	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
)

func (tx *Tx) CreateTenant(name string) (*models.Tenant, error) {
	tenant := models.Tenant{Name: name}
	if err := tx.db.Create(&tenant).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("tenant %q: %w", name, apperr.ErrNameTaken)
		}
		return nil, err
	}
	return &tenant, nil
}

func (tx *Tx) CreateUser(tenantID uint, user *models.User) error {
	user.TenantID = tenantID
	if err := tx.db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("user %q: %w", user.Email, apperr.ErrNameTaken)
		}
		return err
	}
	return nil
}

// UserByEmail is the login root lookup; the tenant comes from the account row.
func (tx *Tx) UserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := tx.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (tx *Tx) Users(tenantID uint) ([]models.User, error) {
	var users []models.User
	err := tx.db.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&users).Error
	return users, err
}
