package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/testutil"
)

func TestRegisterTenantAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tenant, admin, err := f.admin.RegisterTenant(ctx, "Gamma Bistro", StaffInput{
		Name: "Gia", Email: "Gia@Gamma.test", Password: "longpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, tenant.ID, admin.TenantID)
	assert.Equal(t, "gia@gamma.test", admin.Email)

	token, user, err := f.admin.Login(ctx, "gia@gamma.test", "longpassword")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)

	claims, err := f.admin.issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, _, err = f.admin.Login(ctx, "gia@gamma.test", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, _, err = f.admin.Login(ctx, "nobody@gamma.test", "longpassword")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = f.admin.RegisterTenant(ctx, "Gamma Bistro", StaffInput{
		Name: "Other", Email: "other@gamma.test", Password: "longpassword",
	})
	assert.ErrorIs(t, err, apperr.ErrNameTaken)

	_, err = f.admin.CreateStaff(ctx, tenant.ID, StaffInput{
		Name: "Cook", Email: "cook@gamma.test", Password: "longpassword", Role: "wizard",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for _, email := range []string{"", "cook", "cook@", "@gamma.test"} {
		_, err = f.admin.CreateStaff(ctx, tenant.ID, StaffInput{
			Name: "Cook", Email: email, Password: "longpassword", Role: models.RoleChef,
		})
		assert.ErrorIs(t, err, apperr.ErrValidation, "email %q", email)
	}

	chef, err := f.admin.CreateStaff(ctx, tenant.ID, StaffInput{
		Name: "Cook", Email: "cook@gamma.test", Password: "longpassword", Role: models.RoleChef,
	})
	require.NoError(t, err)
	staff, err := f.admin.ListStaff(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Len(t, staff, 2)
	assert.Equal(t, chef.ID, staff[1].ID)
}

func TestSeededStaffCanLogIn(t *testing.T) {
	f := newFixture(t)
	_, user, err := f.admin.Login(context.Background(), f.a.Chef.Email, testutil.StaffPassword)
	require.NoError(t, err)
	assert.Equal(t, f.a.Tenant.ID, user.TenantID)
}

func TestTableAdministration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tenant := f.a.Tenant.ID

	_, err := f.admin.CreateTable(ctx, tenant, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	patio, err := f.admin.CreateTable(ctx, tenant, "Patio")
	require.NoError(t, err)
	assert.True(t, patio.Active)

	_, err = f.admin.RenameTable(ctx, tenant, patio.ID, "T1")
	assert.ErrorIs(t, err, apperr.ErrNameTaken)

	_, err = f.admin.RenameTable(ctx, f.b.Tenant.ID, patio.ID, "Garden")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	renamed, err := f.admin.RenameTable(ctx, tenant, patio.ID, "Garden")
	require.NoError(t, err)
	assert.Equal(t, "Garden", renamed.Name)

	_, err = f.admin.DeactivateTable(ctx, tenant, patio.ID)
	require.NoError(t, err)

	active, err := f.admin.ListTables(ctx, tenant, false)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	all, err := f.admin.ListTables(ctx, tenant, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCatalogIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name := "Tea"
	price := int64(1500)
	foreignCategory := f.b.Drinks.ID
	_, err := f.catalog.CreateProduct(ctx, f.a.Tenant.ID, ProductInput{CategoryID: &foreignCategory, Name: &name, Price: &price})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	ownCategory := f.a.Drinks.ID
	tea, err := f.catalog.CreateProduct(ctx, f.a.Tenant.ID, ProductInput{CategoryID: &ownCategory, Name: &name, Price: &price})
	require.NoError(t, err)
	assert.True(t, tea.Available)

	_, err = f.catalog.UpdateProduct(ctx, f.a.Tenant.ID, tea.ID, ProductInput{CategoryID: &foreignCategory})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.catalog.UpdateProduct(ctx, f.b.Tenant.ID, tea.ID, ProductInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	unavailable := false
	_, err = f.catalog.UpdateProduct(ctx, f.a.Tenant.ID, tea.ID, ProductInput{Available: &unavailable})
	require.NoError(t, err)

	cats, products, err := f.catalog.Menu(ctx, f.a.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	for _, p := range products {
		assert.True(t, p.Available)
		assert.NotEqual(t, tea.ID, p.ID)
	}

	kitchen := true
	catName := "Desserts"
	cat, err := f.catalog.CreateCategory(ctx, f.a.Tenant.ID, CategoryInput{Name: &catName, RoutesToKitchen: &kitchen})
	require.NoError(t, err)
	assert.Equal(t, models.StationKitchen, cat.Station())

	_, err = f.catalog.CreateCategory(ctx, f.a.Tenant.ID, CategoryInput{Name: &catName})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
