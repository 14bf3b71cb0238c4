package store

import (
	"fmt"

	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
)

// LockActiveTableForScan locks an active table by id without a tenant filter.
// It is the root lookup of the scan flow: the tenant is taken from the row.
func (tx *Tx) LockActiveTableForScan(tableID uint) (*models.Table, error) {
	var table models.Table
	err := tx.forUpdate().
		Where("id = ? AND active = ?", tableID, true).
		First(&table).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("table %d", tableID))
	}
	return &table, nil
}

func (tx *Tx) Table(tenantID, tableID uint) (*models.Table, error) {
	var table models.Table
	err := tx.db.Where("tenant_id = ? AND id = ?", tenantID, tableID).First(&table).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("table %d", tableID))
	}
	return &table, nil
}

func (tx *Tx) Tables(tenantID uint, includeInactive bool) ([]models.Table, error) {
	q := tx.db.Where("tenant_id = ?", tenantID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	var tables []models.Table
	err := q.Order("name ASC").Find(&tables).Error
	return tables, err
}

// TablesByID returns the tenant's tables keyed by id.
func (tx *Tx) TablesByID(tenantID uint, ids []uint) (map[uint]models.Table, error) {
	out := make(map[uint]models.Table, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var tables []models.Table
	if err := tx.db.Where("tenant_id = ? AND id IN ?", tenantID, ids).Find(&tables).Error; err != nil {
		return nil, err
	}
	for _, t := range tables {
		out[t.ID] = t
	}
	return out, nil
}

func (tx *Tx) CreateTable(tenantID uint, name string) (*models.Table, error) {
	table := models.Table{
		TenantID:   tenantID,
		Name:       name,
		ActiveName: &name,
		Active:     true,
	}
	if err := tx.db.Create(&table).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("table %q: %w", name, apperr.ErrNameTaken)
		}
		return nil, err
	}
	return &table, nil
}

func (tx *Tx) RenameTable(tenantID, tableID uint, name string) (*models.Table, error) {
	table, err := tx.Table(tenantID, tableID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"name": name}
	if table.Active {
		updates["active_name"] = name
	}
	err = tx.db.Model(&models.Table{}).
		Where("tenant_id = ? AND id = ?", tenantID, tableID).
		Updates(updates).Error
	if err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("table %q: %w", name, apperr.ErrNameTaken)
		}
		return nil, err
	}
	return tx.Table(tenantID, tableID)
}

// DeactivateTable marks the table inactive and frees its name.
func (tx *Tx) DeactivateTable(tenantID, tableID uint) (*models.Table, error) {
	if _, err := tx.Table(tenantID, tableID); err != nil {
		return nil, err
	}
	err := tx.db.Model(&models.Table{}).
		Where("tenant_id = ? AND id = ?", tenantID, tableID).
		Updates(map[string]interface{}{"active": false, "active_name": nil}).Error
	if err != nil {
		return nil, err
	}
	return tx.Table(tenantID, tableID)
}
