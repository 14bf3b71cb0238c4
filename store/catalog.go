package store

import (
	"fmt"

	"github.com/yeremiapane/table-session/models"
)

func (tx *Tx) CreateCategory(tenantID uint, c *models.Category) error {
	c.TenantID = tenantID
	return tx.db.Create(c).Error
}

func (tx *Tx) Category(tenantID, id uint) (*models.Category, error) {
	var c models.Category
	if err := tx.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&c).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("category %d", id))
	}
	return &c, nil
}

func (tx *Tx) Categories(tenantID uint) ([]models.Category, error) {
	var cs []models.Category
	err := tx.db.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&cs).Error
	return cs, err
}

// UpdateCategory changes the routing flag and name. Items already submitted keep
// the station they were tagged with.
func (tx *Tx) UpdateCategory(tenantID, id uint, updates map[string]interface{}) (*models.Category, error) {
	res := tx.db.Model(&models.Category{}).Where("tenant_id = ? AND id = ?", tenantID, id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	return tx.Category(tenantID, id)
}

func (tx *Tx) CreateProduct(tenantID uint, p *models.Product) error {
	if _, err := tx.Category(tenantID, p.CategoryID); err != nil {
		return err
	}
	p.TenantID = tenantID
	return tx.db.Create(p).Error
}

func (tx *Tx) Product(tenantID, id uint) (*models.Product, error) {
	var p models.Product
	if err := tx.db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("product %d", id))
	}
	return &p, nil
}

func (tx *Tx) Products(tenantID uint, categoryID uint, onlyAvailable bool) ([]models.Product, error) {
	q := tx.db.Where("tenant_id = ?", tenantID)
	if categoryID != 0 {
		q = q.Where("category_id = ?", categoryID)
	}
	if onlyAvailable {
		q = q.Where("available = ?", true)
	}
	var ps []models.Product
	err := q.Order("name ASC").Find(&ps).Error
	return ps, err
}

func (tx *Tx) UpdateProduct(tenantID, id uint, updates map[string]interface{}) (*models.Product, error) {
	if cid, ok := updates["category_id"].(uint); ok {
		if _, err := tx.Category(tenantID, cid); err != nil {
			return nil, err
		}
	}
	res := tx.db.Model(&models.Product{}).Where("tenant_id = ? AND id = ?", tenantID, id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	return tx.Product(tenantID, id)
}

// OrderableProduct is a product resolved for intake together with its station.
type OrderableProduct struct {
	Product models.Product
	Station models.Station
}

// OrderableProducts resolves the given ids to available products of the tenant
// whose category also belongs to the tenant. Unknown, foreign and unavailable
// ids are simply absent from the result.
func (tx *Tx) OrderableProducts(tenantID uint, ids []uint) (map[uint]OrderableProduct, error) {
	out := make(map[uint]OrderableProduct, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []models.Product
	err := tx.db.Where("tenant_id = ? AND id IN ? AND available = ?", tenantID, ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	catIDs := make([]uint, 0, len(products))
	for _, p := range products {
		catIDs = append(catIDs, p.CategoryID)
	}
	var cats []models.Category
	if len(catIDs) > 0 {
		if err := tx.db.Where("tenant_id = ? AND id IN ?", tenantID, catIDs).Find(&cats).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uint]models.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	for _, p := range products {
		cat, ok := byID[p.CategoryID]
		if !ok {
			continue
		}
		out[p.ID] = OrderableProduct{Product: p, Station: cat.Station()}
	}
	return out, nil
}
