package services

import (
	"context"
	"strings"

	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/models"
	"github.com/yeremiapane/table-session/store"
)

// CatalogService manages the tenant's categories and products. Changes never
// touch items already ordered: those carry their own price and station.
type CatalogService struct {
	base
}

func NewCatalogService(st *store.Store) *CatalogService {
	return &CatalogService{base: newBase(st)}
}

type CategoryInput struct {
	Name            *string `json:"name"`
	RoutesToKitchen *bool   `json:"routes_to_kitchen"`
}

type ProductInput struct {
	CategoryID  *uint   `json:"category_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Available   *bool   `json:"available"`
}

func (c *CatalogService) CreateCategory(ctx context.Context, tenantID uint, in CategoryInput) (*models.Category, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("category name is required")
	}
	if in.RoutesToKitchen == nil {
		return nil, apperr.Validation("routes_to_kitchen is required")
	}
	cat := &models.Category{Name: strings.TrimSpace(*in.Name), RoutesToKitchen: *in.RoutesToKitchen}
	err := c.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.CreateCategory(tenantID, cat)
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *CatalogService) ListCategories(ctx context.Context, tenantID uint) ([]models.Category, error) {
	return c.store.Reader(ctx).Categories(tenantID)
}

func (c *CatalogService) UpdateCategory(ctx context.Context, tenantID, categoryID uint, in CategoryInput) (*models.Category, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("category name cannot be empty")
		}
		updates["name"] = name
	}
	if in.RoutesToKitchen != nil {
		updates["routes_to_kitchen"] = *in.RoutesToKitchen
	}

	var cat *models.Category
	err := c.store.Transaction(ctx, func(tx *store.Tx) error {
		var err error
		if len(updates) == 0 {
			cat, err = tx.Category(tenantID, categoryID)
			return err
		}
		cat, err = tx.UpdateCategory(tenantID, categoryID, updates)
		return err
	})
	return cat, err
}

func (c *CatalogService) CreateProduct(ctx context.Context, tenantID uint, in ProductInput) (*models.Product, error) {
	if in.CategoryID == nil {
		return nil, apperr.Validation("category_id is required")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("product name is required")
	}
	if in.Price == nil || *in.Price < 0 {
		return nil, apperr.Validation("price must be zero or more")
	}

	p := &models.Product{
		CategoryID: *in.CategoryID,
		Name:       strings.TrimSpace(*in.Name),
		Price:      *in.Price,
		Available:  true,
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Available != nil {
		p.Available = *in.Available
	}

	err := c.store.Transaction(ctx, func(tx *store.Tx) error {
		return tx.CreateProduct(tenantID, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListProducts lists products, optionally of one category and only available ones.
func (c *CatalogService) ListProducts(ctx context.Context, tenantID, categoryID uint, onlyAvailable bool) ([]models.Product, error) {
	return c.store.Reader(ctx).Products(tenantID, categoryID, onlyAvailable)
}

// Menu is the guest-facing catalog of the session's tenant.
func (c *CatalogService) Menu(ctx context.Context, tenantID uint) ([]models.Category, []models.Product, error) {
	tx := c.store.Reader(ctx)
	cats, err := tx.Categories(tenantID)
	if err != nil {
		return nil, nil, err
	}
	products, err := tx.Products(tenantID, 0, true)
	if err != nil {
		return nil, nil, err
	}
	return cats, products, nil
}

func (c *CatalogService) UpdateProduct(ctx context.Context, tenantID, productID uint, in ProductInput) (*models.Product, error) {
	updates := map[string]interface{}{}
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("product name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperr.Validation("price must be zero or more")
		}
		updates["price"] = *in.Price
	}
	if in.Available != nil {
		updates["available"] = *in.Available
	}

	var p *models.Product
	err := c.store.Transaction(ctx, func(tx *store.Tx) error {
		var err error
		if len(updates) == 0 {
			p, err = tx.Product(tenantID, productID)
			return err
		}
		p, err = tx.UpdateProduct(tenantID, productID, updates)
		return err
	})
	return p, err
}
