package database

import (
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/utils"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.User{},
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Session{},
		&models.Order{},
		&models.OrderItem{},
		&models.OutboxEvent{},
	}
}

// Migrate creates or updates the schema. The unique indexes on
// sessions.open_table_id and tables(tenant_id, active_name) carry the
// single-open-session and active-name invariants; both rely on NULL never
// colliding in a unique index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		utils.ErrorLogger.Printf("Failed to AutoMigrate: %v", err)
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
