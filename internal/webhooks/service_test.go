package webhooks

import (
	"context"
	"fmt"
	"testing"

	"wholesale/internal/database"
	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

type stubFetcher struct{}

func (stubFetcher) GetItemImage(ctx context.Context, itemID string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("no image")
}

func (stubFetcher) GetItemGroupImage(ctx context.Context, groupID string) ([]byte, string, error) {
	return nil, "", fmt.Errorf("no image")
}

func newTestService(t *testing.T, secret string) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatal(err)
	}
	log := logger.New("error")
	cache := images.NewCache(t.TempDir(), stubFetcher{}, db.DB, log)
	queue := images.NewQueue(cache, log)
	svc := NewService(db.DB, queue, events.NewPublisher("", log), secret, log)
	return svc, db.DB
}

func strptr(s string) *string { return &s }

func seedProduct(t *testing.T, db *gorm.DB, itemID string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ZohoItemID:    strptr(itemID),
		SKU:           "SKU-" + itemID,
		Name:          "Product " + itemID,
		Price:         10,
		StockQuantity: stock,
		CasePackSize:  1,
		MinOrderQty:   1,
		IsActive:      true,
		IsOnline:      true,
		ImageSource:   models.ImageSourceNone,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func productStock(t *testing.T, db *gorm.DB, itemID string) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "zoho_item_id = ?", itemID).Error; err != nil {
		t.Fatal(err)
	}
	return p.StockQuantity
}

func TestVerifySecret(t *testing.T) {
	svc, _ := newTestService(t, "topsecret")

	if !svc.VerifySecret("topsecret") {
		t.Fatal("exact secret rejected")
	}
	if !svc.VerifySecret("topsecret&") {
		t.Fatal("secret with trailing ampersand rejected")
	}
	if svc.VerifySecret("wrong") {
		t.Fatal("wrong secret accepted")
	}
	if svc.VerifySecret("") {
		t.Fatal("empty secret accepted while one is configured")
	}

	open, _ := newTestService(t, "")
	if !open.VerifySecret("anything") {
		t.Fatal("unconfigured secret should accept all requests")
	}
}

func invoiceBody(id, status string, lines ...string) []byte {
	body := fmt.Sprintf(`{"invoice":{"invoice_id":%q,"status":%q,"line_items":[`, id, status)
	for i, l := range lines {
		if i > 0 {
			body += ","
		}
		body += l
	}
	return []byte(body + `]}}`)
}

func line(itemID string, qty int) string {
	return fmt.Sprintf(`{"item_id":%q,"quantity":%d}`, itemID, qty)
}

func TestInvoiceDecrementsStock(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 10)

	res := svc.HandleInvoice(invoiceBody("INV-1", "sent", line("Z1", 3)))
	if !res.Success || res.Action != "stock_decremented" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}
}

func TestInvoiceDuplicateSuppressed(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 10)

	body := invoiceBody("INV-1", "sent", line("Z1", 3))
	svc.HandleInvoice(body)
	res := svc.HandleInvoice(body)
	if res.Action != "duplicate" {
		t.Fatalf("redelivery not suppressed: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 7 {
		t.Fatalf("duplicate delivery changed stock: %d", got)
	}

	// A genuine status transition on the same invoice is a new event.
	res = svc.HandleInvoice(invoiceBody("INV-1", "paid", line("Z1", 3)))
	if res.Action != "stock_decremented" {
		t.Fatalf("status transition was suppressed: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
}

func TestInvoiceDraftIgnored(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 10)

	res := svc.HandleInvoice(invoiceBody("INV-1", "draft", line("Z1", 3)))
	if !res.Success || res.Action != "ignored_status" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 10 {
		t.Fatalf("draft invoice changed stock: %d", got)
	}
}

func TestInvoiceClampsStockAtZero(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 2)

	svc.HandleInvoice(invoiceBody("INV-1", "sent", line("Z1", 5)))
	if got := productStock(t, db, "Z1"); got != 0 {
		t.Fatalf("stock = %d, want clamp at 0", got)
	}
}

func TestInvoiceSkipsUnknownItems(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 10)

	res := svc.HandleInvoice(invoiceBody("INV-1", "sent", line("missing", 2), line("Z1", 1)))
	if !res.Success {
		t.Fatalf("unknown line item should not fail the webhook: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 9 {
		t.Fatalf("stock = %d, want 9", got)
	}
}

func TestBillIncrementsStock(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 2)

	body := []byte(`{"bill":{"bill_id":"B-1","status":"paid","line_items":[{"item_id":"Z1","quantity":8}]}}`)
	res := svc.HandleBill(body)
	if !res.Success || res.Action != "stock_incremented" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := productStock(t, db, "Z1"); got != 10 {
		t.Fatalf("stock = %d, want 10", got)
	}
}

func TestItemWebhookCreatesAndUpdates(t *testing.T) {
	svc, db := newTestService(t, "")

	body := []byte(`{"action":"create","item":{"item_id":"Z1","name":"Aviator","sku":"AV-1","status":"active","rate":19.5,"stock_on_hand":6,"category_name":"Sunglasses","show_in_storefront":true}}`)
	res := svc.HandleItem(body)
	if !res.Success || res.Action != "created" {
		t.Fatalf("unexpected result: %+v", res)
	}

	var p models.Product
	if err := db.First(&p, "zoho_item_id = ?", "Z1").Error; err != nil {
		t.Fatal(err)
	}
	if p.Price != 19.5 || p.StockQuantity != 6 || !p.IsOnline {
		t.Fatalf("created product wrong: %+v", p)
	}

	body = []byte(`{"action":"update","item":{"item_id":"Z1","name":"Aviator","sku":"AV-1","status":"active","rate":21,"stock_on_hand":4,"category_name":"Sunglasses","show_in_storefront":true}}`)
	res = svc.HandleItem(body)
	if res.Action != "updated" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if err := db.First(&p, "zoho_item_id = ?", "Z1").Error; err != nil {
		t.Fatal(err)
	}
	if p.Price != 21 || p.StockQuantity != 4 {
		t.Fatalf("update not applied: %+v", p)
	}
}

func TestItemWebhookDelete(t *testing.T) {
	svc, db := newTestService(t, "")
	seedProduct(t, db, "Z1", 5)

	res := svc.HandleItem([]byte(`{"action":"delete","item":{"item_id":"Z1"}}`))
	if !res.Success || res.Action != "delisted" {
		t.Fatalf("unexpected result: %+v", res)
	}

	var p models.Product
	if err := db.First(&p, "zoho_item_id = ?", "Z1").Error; err != nil {
		t.Fatal(err)
	}
	if p.IsOnline || p.IsActive {
		t.Fatalf("product not delisted: online=%v active=%v", p.IsOnline, p.IsActive)
	}

	// Deleting an item we never carried is a clean no-op.
	res = svc.HandleItem([]byte(`{"action":"delete","item":{"item_id":"nope"}}`))
	if !res.Success || res.Action != "unknown_item" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestItemWebhookPreservesUploadedImage(t *testing.T) {
	svc, db := newTestService(t, "")
	p := seedProduct(t, db, "Z1", 5)
	err := db.Model(p).Updates(map[string]interface{}{
		"image_source": models.ImageSourceUploaded,
		"image_url":    "/uploads/custom.png",
	}).Error
	if err != nil {
		t.Fatal(err)
	}

	body := []byte(`{"action":"update","item":{"item_id":"Z1","name":"Product Z1","status":"active","rate":10,"stock_on_hand":5,"show_in_storefront":true,"image_url":"https://zoho.example/img.jpg"}}`)
	if res := svc.HandleItem(body); !res.Success {
		t.Fatalf("unexpected result: %+v", res)
	}

	var got models.Product
	if err := db.First(&got, "zoho_item_id = ?", "Z1").Error; err != nil {
		t.Fatal(err)
	}
	if got.ImageSource != models.ImageSourceUploaded {
		t.Fatalf("image source overwritten: %s", got.ImageSource)
	}
	if got.ImageURL == nil || *got.ImageURL != "/uploads/custom.png" {
		t.Fatalf("uploaded image overwritten: %v", got.ImageURL)
	}
}

func TestItemWebhookRejectsMissingID(t *testing.T) {
	svc, _ := newTestService(t, "")
	res := svc.HandleItem([]byte(`{"action":"update","item":{"name":"no id"}}`))
	if res.Success || res.Action != "invalid_payload" {
		t.Fatalf("payload without item_id accepted: %+v", res)
	}
}

func customerBody(contactID, action, status string) []byte {
	return []byte(fmt.Sprintf(`{"action":%q,"contact":{"contact_id":%q,"status":%q}}`, action, contactID, status))
}

func seedUser(t *testing.T, db *gorm.DB, contactID string, status models.UserStatus) *models.User {
	t.Helper()
	u := &models.User{
		Email:         contactID + "@example.com",
		Name:          "Buyer " + contactID,
		Status:        status,
		ZohoContactID: strptr(contactID),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func userStatus(t *testing.T, db *gorm.DB, id string) models.UserStatus {
	t.Helper()
	var u models.User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		t.Fatal(err)
	}
	return u.Status
}

func TestCustomerWebhookSuspends(t *testing.T) {
	svc, db := newTestService(t, "")
	u := seedUser(t, db, "C1", models.UserActive)

	res := svc.HandleCustomer(customerBody("C1", "delete", ""))
	if !res.Success || res.Action != "suspended" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := userStatus(t, db, u.ID); got != models.UserSuspended {
		t.Fatalf("status = %s, want suspended", got)
	}

	res = svc.HandleCustomer(customerBody("C1", "update", "inactive"))
	if res.Action != "already_suspended" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCustomerWebhookReactivatesOnlySuspended(t *testing.T) {
	svc, db := newTestService(t, "")
	suspended := seedUser(t, db, "C1", models.UserSuspended)
	rejected := seedUser(t, db, "C2", models.UserRejected)

	res := svc.HandleCustomer(customerBody("C1", "update", "active"))
	if res.Action != "reactivated" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := userStatus(t, db, suspended.ID); got != models.UserActive {
		t.Fatalf("status = %s, want active", got)
	}

	// A local rejection is an admin decision; remote traffic does not undo it.
	res = svc.HandleCustomer(customerBody("C2", "update", "active"))
	if res.Action != "ignored" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := userStatus(t, db, rejected.ID); got != models.UserRejected {
		t.Fatalf("rejected user changed to %s", got)
	}

	res = svc.HandleCustomer(customerBody("C2", "delete", ""))
	if res.Action != "ignored" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := userStatus(t, db, rejected.ID); got != models.UserRejected {
		t.Fatalf("rejected user changed to %s", got)
	}
}

func TestCustomerWebhookUnknownContact(t *testing.T) {
	svc, _ := newTestService(t, "")
	res := svc.HandleCustomer(customerBody("ghost", "update", "active"))
	if !res.Success || res.Action != "not_registered" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
