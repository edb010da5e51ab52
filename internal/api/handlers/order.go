package handlers

import (
	"net/http"

	"wholesale/internal/logger"
	"wholesale/internal/store"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	store  *store.Store
	logger *logger.Logger
}

func NewOrderHandler(store *store.Store, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{store: store, logger: logger}
}

func (h *OrderHandler) Create(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	var req struct {
		Name    string `json:"name" binding:"required"`
		Address string `json:"address" binding:"required"`
		City    string `json:"city"`
		Zip     string `json:"zip"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	order, err := h.store.CreateOrder(uid, store.ShippingInfo{
		Name:    req.Name,
		Address: req.Address,
		City:    req.City,
		Zip:     req.Zip,
		Notes:   req.Notes,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": order})
}

func (h *OrderHandler) List(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	orders, err := h.store.GetOrders(uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing user"})
		return
	}

	order, err := h.store.GetOrder(c.Param("id"))
	if err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if order.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": order})
}

type UserHandler struct {
	store  *store.Store
	logger *logger.Logger
}

func NewUserHandler(store *store.Store, logger *logger.Logger) *UserHandler {
	return &UserHandler{store: store, logger: logger}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required"`
		Name    string `json:"name" binding:"required"`
		Company string `json:"company"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.store.RegisterUser(req.Email, req.Name, req.Company)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}
