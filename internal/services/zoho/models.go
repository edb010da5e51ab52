package zoho

import (
	"time"
)

// Zoho timestamps look like "2024-03-05T17:02:11-0700".
const timeLayout = "2006-01-02T15:04:05-0700"

// Item is a Zoho inventory item as returned by GET /items.
type Item struct {
	ItemID           string  `json:"item_id"`
	Name             string  `json:"name"`
	SKU              string  `json:"sku"`
	Description      string  `json:"description"`
	Status           string  `json:"status"`
	Rate             float64 `json:"rate"`
	CompareRate      float64 `json:"compare_rate,omitempty"`
	StockOnHand      float64 `json:"stock_on_hand"`
	ReorderLevel     float64 `json:"reorder_level"`
	GroupID          string  `json:"group_id"`
	GroupName        string  `json:"group_name"`
	CategoryID       string  `json:"category_id"`
	CategoryName     string  `json:"category_name"`
	ImageDocumentID  string  `json:"image_document_id"`
	ImageURL         string  `json:"image_url,omitempty"`
	ShowInStorefront bool    `json:"show_in_storefront"`
	CFCasePack       int     `json:"cf_case_pack,omitempty"`
	CFMinOrderQty    int     `json:"cf_min_order_qty,omitempty"`
	LastModifiedTime string  `json:"last_modified_time"`
}

// ModifiedAt parses the remote last-modified timestamp. A zero time is
// returned when the field is absent or unparseable.
func (i *Item) ModifiedAt() time.Time {
	if i.LastModifiedTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, i.LastModifiedTime)
	if err != nil {
		return time.Time{}
	}
	return t
}

type ItemGroup struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Items     []Item `json:"items"`
}

type Category struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type Pricebook struct {
	PricebookID string `json:"pricebook_id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
}

type PricebookItem struct {
	ItemID        string  `json:"item_id"`
	PricebookRate float64 `json:"pricebook_rate"`
}

type Contact struct {
	ContactID   string `json:"contact_id,omitempty"`
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

type SalesOrderLine struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity"`
	Rate     float64 `json:"rate"`
}

type SalesOrder struct {
	SalesOrderID  string           `json:"salesorder_id,omitempty"`
	CustomerID    string           `json:"customer_id"`
	ReferenceID   string           `json:"reference_number,omitempty"`
	LineItems     []SalesOrderLine `json:"line_items"`
	Notes         string           `json:"notes,omitempty"`
	ShippingNotes string           `json:"shipping_address,omitempty"`
}

type pageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}
