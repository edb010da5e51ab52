package images

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"wholesale/internal/logger"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

// Fetcher is the slice of the Zoho client the cache needs.
type Fetcher interface {
	GetItemImage(ctx context.Context, itemID string) ([]byte, string, error)
	GetItemGroupImage(ctx context.Context, groupID string) ([]byte, string, error)
}

// Cache is a local directory of product images named by remote item id
// (group-{id} for group-level fallbacks), extension per content type. Items
// known to have no image are remembered in memory so repeated syncs do not
// hammer the image endpoints. A product whose image was manually uploaded is
// never overwritten from here.
type Cache struct {
	dir     string
	fetcher Fetcher
	db      *gorm.DB
	logger  *logger.Logger

	mu      sync.Mutex
	noImage map[string]struct{}
}

func NewCache(dir string, fetcher Fetcher, db *gorm.DB, logger *logger.Logger) *Cache {
	return &Cache{
		dir:     dir,
		fetcher: fetcher,
		db:      db,
		logger:  logger,
		noImage: make(map[string]struct{}),
	}
}

// Fetch downloads the item image, falling back to the group image when the
// item has none, stores it on disk and points the product row at it.
func (c *Cache) Fetch(ctx context.Context, itemID, groupID string) error {
	c.mu.Lock()
	_, known := c.noImage[itemID]
	c.mu.Unlock()
	if known {
		return nil
	}

	var product models.Product
	if err := c.db.First(&product, "zoho_item_id = ?", itemID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	if product.ImageSource == models.ImageSourceUploaded {
		return nil
	}

	filename, err := c.download(ctx, itemID, groupID)
	if err != nil {
		c.mu.Lock()
		c.noImage[itemID] = struct{}{}
		c.mu.Unlock()
		c.logger.Debug("no image for item %s: %v", itemID, err)
		return nil
	}

	imageURL := "/images/products/" + filename
	return c.db.Model(&models.Product{}).
		Where("zoho_item_id = ? AND image_source <> ?", itemID, models.ImageSourceUploaded).
		Updates(map[string]interface{}{
			"image_url":    imageURL,
			"image_source": models.ImageSourceZoho,
		}).Error
}

func (c *Cache) download(ctx context.Context, itemID, groupID string) (string, error) {
	data, contentType, err := c.fetcher.GetItemImage(ctx, itemID)
	name := itemID
	if err != nil && groupID != "" {
		// Item has no image of its own, fall back to the group image.
		data, contentType, err = c.fetcher.GetItemGroupImage(ctx, groupID)
		name = "group-" + groupID
	}
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty image response")
	}

	filename := name + "." + extFromContentType(contentType)
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create image dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filename, nil
}

func extFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "webp"):
		return "webp"
	case strings.Contains(contentType, "gif"):
		return "gif"
	default:
		return "jpg"
	}
}
