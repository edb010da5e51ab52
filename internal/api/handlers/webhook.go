package handlers

import (
	"io"
	"net/http"

	"wholesale/internal/logger"
	"wholesale/internal/webhooks"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	service *webhooks.Service
	logger  *logger.Logger
}

func NewWebhookHandler(service *webhooks.Service, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, logger: logger}
}

// Receive accepts a Zoho change notification. The shared secret rides in
// either the query string or a header depending on how the sender was
// configured. Handler results always come back with 200 so the sender does
// not retry deliveries we have already dealt with.
func (h *WebhookHandler) Receive(c *gin.Context) {
	secret := c.Query("secret")
	if secret == "" {
		secret = c.GetHeader("X-Webhook-Secret")
	}
	if !h.service.VerifySecret(secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	var result webhooks.Result
	kind := c.Param("kind")
	switch kind {
	case "item":
		result = h.service.HandleItem(body)
	case "customer":
		result = h.service.HandleCustomer(body)
	case "invoice":
		result = h.service.HandleInvoice(body)
	case "bill":
		result = h.service.HandleBill(body)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown webhook kind"})
		return
	}

	if !result.Success {
		h.logger.Warn("%s webhook failed: %s (%s)", kind, result.Action, result.Message)
	}
	c.JSON(http.StatusOK, result)
}
