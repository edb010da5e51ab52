package handlers

import (
	"net/http"

	"wholesale/internal/logger"
	"wholesale/internal/store"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	store  *store.Store
	logger *logger.Logger
}

func NewCartHandler(store *store.Store, logger *logger.Logger) *CartHandler {
	return &CartHandler{store: store, logger: logger}
}

// userID is set by the auth layer in front of this service.
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

func (h *CartHandler) Get(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	cart, err := h.store.GetCart(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cart})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	item, err := h.store.AddToCart(uid, req.ProductID, req.Quantity)
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		// Invariant violations carry buyer-facing messages.
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	item, err := h.store.UpdateCartItem(uid, c.Param("id"), req.Quantity)
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	if err := h.store.RemoveCartItem(uid, c.Param("id")); err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"removed": true}})
}
