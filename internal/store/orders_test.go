package store

import (
	"strings"
	"testing"

	"wholesale/internal/models"
)

func TestCreateOrderSnapshotsAndClearsCart(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	p1 := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)
	p2 := seedProduct(t, db, "Z2", "Wayfarer", 8, 10)

	if _, err := s.AddToCart(user.ID, p1.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToCart(user.ID, p2.ID, 3); err != nil {
		t.Fatal(err)
	}

	order, err := s.CreateOrder(user.ID, ShippingInfo{Name: "Buyer", Address: "1 Main St", City: "Springfield", Zip: "12345"})
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != models.OrderPendingApproval {
		t.Fatalf("status = %s, want pending_approval", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("want 2 order items, got %d", len(order.Items))
	}
	want := 2*12.5 + 3*8.0
	if order.Subtotal != want || order.Total != want {
		t.Fatalf("subtotal=%f total=%f, want %f", order.Subtotal, order.Total, want)
	}

	cart, err := s.GetCart(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("cart not cleared, %d items remain", len(cart.Items))
	}

	// Order creation does not touch stock; that happens when the invoice
	// webhook arrives.
	var fresh models.Product
	if err := db.First(&fresh, "id = ?", p1.ID).Error; err != nil {
		t.Fatal(err)
	}
	if fresh.StockQuantity != 10 {
		t.Fatalf("order creation changed stock: %d", fresh.StockQuantity)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")

	if _, err := s.CreateOrder(user.ID, ShippingInfo{}); err == nil || !strings.Contains(err.Error(), "cart is empty") {
		t.Fatalf("want cart-is-empty error, got %v", err)
	}
}

func TestCreateOrderCollectsAllViolations(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	p1 := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)
	p2 := seedProduct(t, db, "Z2", "Wayfarer", 8, 10)
	p3 := seedProduct(t, db, "Z3", "Clubmaster", 9, 10)

	if _, err := s.AddToCart(user.ID, p1.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToCart(user.ID, p2.ID, 5); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddToCart(user.ID, p3.ID, 1); err != nil {
		t.Fatal(err)
	}

	// Between add-to-cart and checkout, a sync pass delists one product and a
	// webhook drains another.
	if err := db.Model(p2).Update("is_online", false).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(p3).Update("stock_quantity", 0).Error; err != nil {
		t.Fatal(err)
	}

	_, err := s.CreateOrder(user.ID, ShippingInfo{})
	if err == nil {
		t.Fatal("checkout accepted with stale cart")
	}
	if !strings.Contains(err.Error(), "Wayfarer") || !strings.Contains(err.Error(), "Clubmaster") {
		t.Fatalf("error should name every violation: %v", err)
	}

	// Rejection writes nothing.
	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected checkout created %d orders", count)
	}
	cart, err := s.GetCart(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 3 {
		t.Fatalf("rejected checkout emptied the cart: %d items", len(cart.Items))
	}
}

func TestCreateOrderReResolvesPrices(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 20, 10)

	if _, err := s.AddToCart(user.ID, product.ID, 2); err != nil {
		t.Fatal(err)
	}

	// Price drops between add and checkout; the order uses the current price,
	// not the cart snapshot.
	if err := db.Model(product).Update("price", 18).Error; err != nil {
		t.Fatal(err)
	}

	order, err := s.CreateOrder(user.ID, ShippingInfo{})
	if err != nil {
		t.Fatal(err)
	}
	if order.Items[0].UnitPrice != 18 {
		t.Fatalf("unit price = %f, want re-resolved 18", order.Items[0].UnitPrice)
	}
	if order.Subtotal != 36 {
		t.Fatalf("subtotal = %f, want 36", order.Subtotal)
	}
}

func TestApproveOrderQueuesPush(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)
	if _, err := s.AddToCart(user.ID, product.ID, 2); err != nil {
		t.Fatal(err)
	}
	order, err := s.CreateOrder(user.ID, ShippingInfo{})
	if err != nil {
		t.Fatal(err)
	}

	approved, err := s.ApproveOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if approved.Status != models.OrderApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	var job models.Job
	if err := db.First(&job, "type = ? AND order_id = ?", models.JobPushOrderToZoho, order.ID).Error; err != nil {
		t.Fatal("approval did not queue a push job:", err)
	}
	if job.Status != models.JobPending {
		t.Fatalf("job status = %s, want pending", job.Status)
	}

	// Approval is single-shot.
	if _, err := s.ApproveOrder(order.ID); err == nil {
		t.Fatal("second approval accepted")
	}
}

func TestRejectOrder(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)
	if _, err := s.AddToCart(user.ID, product.ID, 2); err != nil {
		t.Fatal(err)
	}
	order, err := s.CreateOrder(user.ID, ShippingInfo{})
	if err != nil {
		t.Fatal(err)
	}

	rejected, err := s.RejectOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rejected.Status != models.OrderRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	if _, err := s.ApproveOrder(order.ID); err == nil {
		t.Fatal("rejected order approved")
	}

	// No push job for a rejected order.
	var count int64
	db.Model(&models.Job{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rejected order queued %d jobs", count)
	}
}

func TestRegisterUserQueuesContactCreation(t *testing.T) {
	s, db := newTestStore(t)

	user, err := s.RegisterUser("  Buyer@Example.COM ", "Buyer", "Acme Wholesale")
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "buyer@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Status != models.UserPending {
		t.Fatalf("status = %s, want pending", user.Status)
	}

	var job models.Job
	if err := db.First(&job, "type = ? AND user_id = ?", models.JobCreateZohoCustomer, user.ID).Error; err != nil {
		t.Fatal("registration did not queue contact creation:", err)
	}
}

func TestGetProductsStorefrontFilter(t *testing.T) {
	s, db := newTestStore(t)
	seedProduct(t, db, "Z1", "Aviator", 10, 5)
	offline := seedProduct(t, db, "Z2", "Wayfarer", 10, 5)
	drained := seedProduct(t, db, "Z3", "Clubmaster", 10, 5)
	if err := db.Model(offline).Update("is_online", false).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(drained).Update("stock_quantity", 0).Error; err != nil {
		t.Fatal(err)
	}

	products, total, err := s.GetProducts(ProductFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(products) != 1 || products[0].Name != "Aviator" {
		t.Fatalf("storefront filter wrong: total=%d products=%v", total, products)
	}

	products, _, err = s.GetProducts(ProductFilters{Search: "avia"})
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 1 {
		t.Fatalf("search miss: %v", products)
	}
}
