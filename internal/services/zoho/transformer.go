package zoho

import (
	"regexp"
	"strings"
	"time"

	"wholesale/internal/models"
)

type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a remote category name into the local slug key.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// categoryKeywords is the legacy fallback map from the pre-category era of
// the catalog. It only fires when an item carries no remote category name;
// slugification of the real category is always the primary mapping.
var categoryKeywords = map[string]string{
	"sunglass":  "sunglasses",
	"polarized": "sunglasses",
	"phone":     "cellular",
	"charger":   "cellular",
	"cable":     "cellular",
	"earbud":    "cellular",
	"cap":       "caps",
	"hat":       "caps",
	"beanie":    "caps",
	"perfume":   "perfumes",
	"cologne":   "perfumes",
	"fragrance": "perfumes",
	"toy":       "novelty",
	"lighter":   "novelty",
	"knife":     "novelty",
}

// CategorySlug resolves the local category slug for an item: the slugified
// remote category name when present, otherwise a keyword guess from the item
// name into one of the five legacy buckets, defaulting to "novelty".
func (t *Transformer) CategorySlug(item *Item) string {
	if item.CategoryName != "" {
		return Slugify(item.CategoryName)
	}
	lower := strings.ToLower(item.Name)
	for keyword, bucket := range categoryKeywords {
		if strings.Contains(lower, keyword) {
			return bucket
		}
	}
	return "novelty"
}

// Apply maps a remote item onto a local product row. Stock and low-stock
// threshold are only overwritten when the item is flagged storefront-visible
// remotely; a remotely hidden item keeps its last-known local stock. An
// uploaded image always wins over remote image data.
func (t *Transformer) Apply(p *models.Product, item *Item) {
	itemID := item.ItemID
	p.ZohoItemID = &itemID
	if item.GroupID != "" {
		groupID := item.GroupID
		p.ZohoGroupID = &groupID
	}
	if item.GroupName != "" {
		groupName := item.GroupName
		p.GroupName = &groupName
	}
	p.SKU = item.SKU
	p.Name = item.Name
	if item.Description != "" {
		desc := item.Description
		p.Description = &desc
	}
	p.CategorySlug = t.CategorySlug(item)
	p.Price = item.Rate
	if item.CompareRate > 0 {
		compare := item.CompareRate
		p.CompareAtPrice = &compare
	}
	if item.CFCasePack > 0 {
		p.CasePackSize = item.CFCasePack
	}
	if item.CFMinOrderQty > 0 {
		p.MinOrderQty = item.CFMinOrderQty
	}

	if item.ShowInStorefront {
		p.StockQuantity = int(item.StockOnHand)
		p.LowStockThreshold = int(item.ReorderLevel)
	}
	p.IsActive = true
	p.IsOnline = item.ShowInStorefront

	if p.ImageSource != models.ImageSourceUploaded && item.ImageURL != "" {
		imageURL := item.ImageURL
		p.ImageURL = &imageURL
		p.ImageSource = models.ImageSourceZoho
	}

	now := time.Now()
	p.LastSyncedAt = &now
}
