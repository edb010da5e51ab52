package handlers

import (
	"net/http"
	"strconv"

	"wholesale/internal/logger"
	"wholesale/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CatalogHandler struct {
	store  *store.Store
	logger *logger.Logger
}

func NewCatalogHandler(store *store.Store, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

func (h *CatalogHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, total, err := h.store.GetProducts(store.ProductFilters{
		CategorySlug: c.Query("category"),
		Search:       c.Query("search"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": products,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *CatalogHandler) Get(c *gin.Context) {
	product, err := h.store.GetProduct(c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": product})
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	categories, err := h.store.GetCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories})
}
