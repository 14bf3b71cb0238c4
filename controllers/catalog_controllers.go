package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-session/middlewares"
	"github.com/yeremiapane/table-session/services"
	"github.com/yeremiapane/table-session/utils"
)

type CatalogController struct {
	Catalog *services.CatalogService
}

func NewCatalogController(catalog *services.CatalogService) *CatalogController {
	return &CatalogController{Catalog: catalog}
}

// CreateCategory -> POST /admin/categories
func (cc *CatalogController) CreateCategory(c *gin.Context) {
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cat, err := cc.Catalog.CreateCategory(c.Request.Context(), middlewares.TenantID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", cat)
}

// GetCategories -> GET /admin/categories
func (cc *CatalogController) GetCategories(c *gin.Context) {
	cats, err := cc.Catalog.ListCategories(c.Request.Context(), middlewares.TenantID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", cats)
}

// UpdateCategory -> PATCH /admin/categories/:category_id
func (cc *CatalogController) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "category_id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	cat, err := cc.Catalog.UpdateCategory(c.Request.Context(), middlewares.TenantID(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", cat)
}

// CreateProduct -> POST /admin/products
func (cc *CatalogController) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := cc.Catalog.CreateProduct(c.Request.Context(), middlewares.TenantID(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", p)
}

// GetProducts -> GET /admin/products?category_id=1&available=true
func (cc *CatalogController) GetProducts(c *gin.Context) {
	var categoryID uint
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondBindError(c, err)
			return
		}
		categoryID = uint(id)
	}
	onlyAvailable, _ := strconv.ParseBool(c.Query("available"))

	products, err := cc.Catalog.ListProducts(c.Request.Context(), middlewares.TenantID(c), categoryID, onlyAvailable)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// UpdateProduct -> PATCH /admin/products/:product_id
func (cc *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := cc.Catalog.UpdateProduct(c.Request.Context(), middlewares.TenantID(c), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", p)
}
