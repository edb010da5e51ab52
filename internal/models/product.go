package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImageSource string

const (
	ImageSourceNone     ImageSource = "none"
	ImageSourceZoho     ImageSource = "zoho"
	ImageSourceUploaded ImageSource = "uploaded"
)

// Product is the local mirror of a Zoho inventory item. The local id is
// stable and owned here; the Zoho ids are the link back to the system of
// record. "Deleted" remotely means delisted locally (IsOnline/IsActive
// false), never a hard delete. StockQuantity may go negative via sync
// (oversell/backorder), so storefront queries filter on stock > 0 rather
// than trusting the write path.
type Product struct {
	ID                string      `json:"id" gorm:"type:uuid;primary_key"`
	ZohoItemID        *string     `json:"zoho_item_id" gorm:"uniqueIndex"`
	ZohoGroupID       *string     `json:"zoho_group_id"`
	GroupName         *string     `json:"group_name"`
	SKU               string      `json:"sku"`
	Name              string      `json:"name" gorm:"not null"`
	Description       *string     `json:"description"`
	CategorySlug      string      `json:"category_slug" gorm:"index"`
	Price             float64     `json:"price" gorm:"type:decimal(10,2)"`
	CompareAtPrice    *float64    `json:"compare_at_price" gorm:"type:decimal(10,2)"`
	StockQuantity     int         `json:"stock_quantity"`
	LowStockThreshold int         `json:"low_stock_threshold"`
	CasePackSize      int         `json:"case_pack_size" gorm:"default:1"`
	MinOrderQty       int         `json:"min_order_qty" gorm:"default:1"`
	IsActive          bool        `json:"is_active" gorm:"default:true"`
	IsOnline          bool        `json:"is_online" gorm:"default:false"`
	ImageSource       ImageSource `json:"image_source" gorm:"default:none"`
	ImageURL          *string     `json:"image_url"`
	LastSyncedAt      *time.Time  `json:"last_synced_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
