package store

import (
	"strings"
	"testing"

	"wholesale/internal/database"
	"wholesale/internal/logger"
	"wholesale/internal/models"

	"gorm.io/gorm"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.New("sqlite://:memory:")
	if err != nil {
		t.Fatal(err)
	}
	return New(db.DB, logger.New("error"), 3), db.DB
}

func strptr(s string) *string { return &s }

func seedProduct(t *testing.T, db *gorm.DB, itemID, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		ZohoItemID:    strptr(itemID),
		SKU:           "SKU-" + itemID,
		Name:          name,
		CategorySlug:  "sunglasses",
		Price:         price,
		StockQuantity: stock,
		CasePackSize:  1,
		MinOrderQty:   1,
		IsActive:      true,
		IsOnline:      true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func seedActiveUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Buyer", Status: models.UserActive}
	if err := db.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func cartQuantity(t *testing.T, db *gorm.DB, userID, productID string) int {
	t.Helper()
	var cart models.Cart
	if err := db.First(&cart, "user_id = ?", userID).Error; err != nil {
		t.Fatal(err)
	}
	var item models.CartItem
	err := db.First(&item, "cart_id = ? AND product_id = ?", cart.ID, productID).Error
	if err == gorm.ErrRecordNotFound {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return item.Quantity
}

func TestAddToCartRespectsStock(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 3)

	if _, err := s.AddToCart(user.ID, product.ID, 2); err != nil {
		t.Fatal(err)
	}

	// Two more would put the combined quantity over the 3 in stock.
	_, err := s.AddToCart(user.ID, product.ID, 2)
	if err == nil {
		t.Fatal("over-stock add accepted")
	}
	if !strings.Contains(err.Error(), "3") {
		t.Fatalf("error should report available stock: %v", err)
	}

	// The rejected add must not have touched the existing line.
	if got := cartQuantity(t, db, user.ID, product.ID); got != 2 {
		t.Fatalf("cart quantity = %d, want 2", got)
	}
}

func TestAddToCartMergesLines(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)

	if _, err := s.AddToCart(user.ID, product.ID, 2); err != nil {
		t.Fatal(err)
	}
	item, err := s.AddToCart(user.ID, product.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if item.Quantity != 5 {
		t.Fatalf("quantity = %d, want 5", item.Quantity)
	}
	if item.LineTotal != 12.5*5 {
		t.Fatalf("line total = %f, want %f", item.LineTotal, 12.5*5)
	}

	cart, err := s.GetCart(user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("want 1 merged line, got %d", len(cart.Items))
	}
}

func TestAddToCartRejectsOfflineProduct(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)
	if err := db.Model(product).Update("is_online", false).Error; err != nil {
		t.Fatal(err)
	}

	_, err := s.AddToCart(user.ID, product.ID, 1)
	if err == nil {
		t.Fatal("offline product accepted into cart")
	}
	if !strings.Contains(err.Error(), "no longer available") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddToCartRejectsZeroQuantity(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)

	if _, err := s.AddToCart(user.ID, product.ID, 0); err == nil {
		t.Fatal("zero quantity accepted")
	}
	if _, err := s.AddToCart(user.ID, product.ID, -1); err == nil {
		t.Fatal("negative quantity accepted")
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")

	if _, err := s.AddToCart(user.ID, "no-such-product", 1); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateCartItemAbsoluteQuantity(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)

	item, err := s.AddToCart(user.ID, product.ID, 2)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := s.UpdateCartItem(user.ID, item.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Quantity != 7 {
		t.Fatalf("quantity = %d, want 7", updated.Quantity)
	}

	if _, err := s.UpdateCartItem(user.ID, item.ID, 11); err == nil {
		t.Fatal("over-stock update accepted")
	}

	// Zero removes the line.
	if _, err := s.UpdateCartItem(user.ID, item.ID, 0); err != nil {
		t.Fatal(err)
	}
	if got := cartQuantity(t, db, user.ID, product.ID); got != 0 {
		t.Fatalf("line survived zero-quantity update: %d", got)
	}
}

func TestRemoveCartItem(t *testing.T) {
	s, db := newTestStore(t)
	user := seedActiveUser(t, db, "buyer@example.com")
	product := seedProduct(t, db, "Z1", "Aviator", 12.5, 10)

	item, err := s.AddToCart(user.ID, product.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveCartItem(user.ID, item.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveCartItem(user.ID, item.ID); err != ErrNotFound {
		t.Fatalf("want ErrNotFound on second remove, got %v", err)
	}
}

func TestCartUsesCustomerPrice(t *testing.T) {
	s, db := newTestStore(t)
	product := seedProduct(t, db, "Z1", "Aviator", 20, 10)

	list := &models.PriceList{Name: "Wholesale Gold", ZohoPricebookID: "PB1"}
	if err := db.Create(list).Error; err != nil {
		t.Fatal(err)
	}
	cp := &models.CustomerPrice{PriceListID: list.ID, ZohoItemID: "Z1", Price: 15}
	if err := db.Create(cp).Error; err != nil {
		t.Fatal(err)
	}

	user := seedActiveUser(t, db, "gold@example.com")
	if err := db.Model(user).Update("price_list_id", list.ID).Error; err != nil {
		t.Fatal(err)
	}

	item, err := s.AddToCart(user.ID, product.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if item.UnitPrice != 15 {
		t.Fatalf("unit price = %f, want customer price 15", item.UnitPrice)
	}

	// A buyer without a price list pays the base price.
	other := seedActiveUser(t, db, "plain@example.com")
	item, err = s.AddToCart(other.ID, product.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if item.UnitPrice != 20 {
		t.Fatalf("unit price = %f, want base price 20", item.UnitPrice)
	}
}

func TestPriceListChangeHonoredOnNextMutation(t *testing.T) {
	s, db := newTestStore(t)
	product := seedProduct(t, db, "Z1", "Aviator", 20, 10)
	user := seedActiveUser(t, db, "buyer@example.com")

	item, err := s.AddToCart(user.ID, product.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if item.UnitPrice != 20 {
		t.Fatalf("unit price = %f, want 20", item.UnitPrice)
	}

	// Assign a price list after the first add; the next mutation re-resolves.
	list := &models.PriceList{Name: "Wholesale Gold", ZohoPricebookID: "PB1"}
	if err := db.Create(list).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.CustomerPrice{PriceListID: list.ID, ZohoItemID: "Z1", Price: 17}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Model(user).Update("price_list_id", list.ID).Error; err != nil {
		t.Fatal(err)
	}

	item, err = s.AddToCart(user.ID, product.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if item.UnitPrice != 17 {
		t.Fatalf("unit price = %f, want re-resolved 17", item.UnitPrice)
	}
	if item.LineTotal != 34 {
		t.Fatalf("line total = %f, want 34", item.LineTotal)
	}
}
