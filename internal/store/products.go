package store

import (
	"wholesale/internal/models"
)

type ProductFilters struct {
	CategorySlug string
	Search       string
	Page         int
	Limit        int
}

// GetProducts returns the storefront view of the catalog. Negative stock is
// representable in the mirror (oversell from sync), so the stock filter
// lives here at query time rather than being trusted to the write paths.
func (s *Store) GetProducts(filters ProductFilters) ([]models.Product, int64, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 || filters.Limit > 100 {
		filters.Limit = 20
	}

	query := s.db.Model(&models.Product{}).
		Where("is_online = ? AND is_active = ? AND stock_quantity > 0", true, true)

	if filters.CategorySlug != "" {
		query = query.Where("category_slug = ?", filters.CategorySlug)
	}
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("name LIKE ? OR sku LIKE ?", pattern, pattern)
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	offset := (filters.Page - 1) * filters.Limit
	if err := query.Order("name ASC").Offset(offset).Limit(filters.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (s *Store) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
