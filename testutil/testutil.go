// Package testutil provides sqlite-backed databases and seeded tenants for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/database"
	"github.com/yeremiapane/table-session/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StaffPassword is the password of every seeded staff account.
const StaffPassword = "secret123"

// NewDB opens a private in-memory database with the full schema. A single
// connection serializes transactions, which stands in for row locks.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Tenant is a seeded tenant with two tables, a kitchen and a bar category, and
// one staff account per role.
type Tenant struct {
	Tenant models.Tenant

	TableA models.Table
	TableB models.Table

	Food   models.Category
	Drinks models.Category

	Burger models.Product // 8500, kitchen
	Fries  models.Product // 3000, kitchen
	Cola   models.Product // 1800, bar
	Sold   models.Product // unavailable

	Admin     models.User
	Staff     models.User
	Chef      models.User
	Bartender models.User
}

// Seed creates a tenant named name with its catalog, tables and staff.
func Seed(t testing.TB, db *gorm.DB, name string) *Tenant {
	t.Helper()

	f := &Tenant{Tenant: models.Tenant{Name: name}}
	require.NoError(t, db.Create(&f.Tenant).Error)
	tid := f.Tenant.ID

	f.TableA = table(t, db, tid, "T1")
	f.TableB = table(t, db, tid, "T2")

	f.Food = models.Category{TenantID: tid, Name: "Food", RoutesToKitchen: true}
	require.NoError(t, db.Create(&f.Food).Error)
	f.Drinks = models.Category{TenantID: tid, Name: "Drinks", RoutesToKitchen: false}
	require.NoError(t, db.Create(&f.Drinks).Error)

	f.Burger = product(t, db, tid, f.Food.ID, "Burger", 8500, true)
	f.Fries = product(t, db, tid, f.Food.ID, "Fries", 3000, true)
	f.Cola = product(t, db, tid, f.Drinks.ID, "Cola", 1800, true)
	f.Sold = product(t, db, tid, f.Food.ID, "Sold Out Special", 9900, false)

	hash, err := bcrypt.GenerateFromPassword([]byte(StaffPassword), bcrypt.MinCost)
	require.NoError(t, err)
	f.Admin = user(t, db, tid, models.RoleAdmin, string(hash))
	f.Staff = user(t, db, tid, models.RoleStaff, string(hash))
	f.Chef = user(t, db, tid, models.RoleChef, string(hash))
	f.Bartender = user(t, db, tid, models.RoleBartender, string(hash))

	return f
}

func table(t testing.TB, db *gorm.DB, tenantID uint, name string) models.Table {
	n := name
	tb := models.Table{TenantID: tenantID, Name: name, ActiveName: &n, Active: true}
	require.NoError(t, db.Create(&tb).Error)
	return tb
}

func product(t testing.TB, db *gorm.DB, tenantID, categoryID uint, name string, price int64, available bool) models.Product {
	p := models.Product{TenantID: tenantID, CategoryID: categoryID, Name: name, Price: price, Available: available}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func user(t testing.TB, db *gorm.DB, tenantID uint, role, hash string) models.User {
	u := models.User{
		TenantID: tenantID,
		Name:     role,
		Email:    fmt.Sprintf("%s@%s.test", role, uuid.NewString()[:8]),
		Password: hash,
		Role:     role,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
