package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wholesale/internal/database"
	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/models"
	"wholesale/internal/webhooks"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type noopFetcher struct{}

func (noopFetcher) GetItemImage(ctx context.Context, itemID string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("no image")
}

func (noopFetcher) GetItemGroupImage(ctx context.Context, groupID string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("no image")
}

func newWebhookRouter(t *testing.T, secret string) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatal(err)
	}
	log := logger.New("error")
	cache := images.NewCache(t.TempDir(), noopFetcher{}, db.DB, log)
	queue := images.NewQueue(cache, log)
	svc := webhooks.NewService(db.DB, queue, events.NewPublisher("", log), secret, log)

	router := gin.New()
	router.POST("/api/v1/webhooks/zoho/:kind", NewWebhookHandler(svc, log).Receive)
	return router, db.DB
}

func postWebhook(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	router, _ := newWebhookRouter(t, "topsecret")

	w := postWebhook(router, "/api/v1/webhooks/zoho/item?secret=wrong", `{}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestWebhookAcceptsSecretFromHeader(t *testing.T) {
	router, db := newWebhookRouter(t, "topsecret")
	itemID := "Z1"
	product := &models.Product{ZohoItemID: &itemID, Name: "Aviator", StockQuantity: 10, IsActive: true, IsOnline: true}
	if err := db.Create(product).Error; err != nil {
		t.Fatal(err)
	}

	body := `{"invoice":{"invoice_id":"INV-1","status":"sent","line_items":[{"item_id":"Z1","quantity":2}]}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/zoho/invoice", strings.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "topsecret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var fresh models.Product
	if err := db.First(&fresh, "zoho_item_id = ?", "Z1").Error; err != nil {
		t.Fatal(err)
	}
	if fresh.StockQuantity != 8 {
		t.Fatalf("stock = %d, want 8", fresh.StockQuantity)
	}
}

func TestWebhookUnknownKind(t *testing.T) {
	router, _ := newWebhookRouter(t, "")

	w := postWebhook(router, "/api/v1/webhooks/zoho/payment", `{}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestWebhookAlwaysReturns200ForHandlerFailures(t *testing.T) {
	router, _ := newWebhookRouter(t, "")

	// A malformed payload is a handler-level failure, reported in the body
	// with a 200 so the sender does not keep retrying it.
	w := postWebhook(router, "/api/v1/webhooks/zoho/item", `{"item":{"name":"no id"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":false`) {
		t.Fatalf("body should report the failure: %s", w.Body.String())
	}
}
