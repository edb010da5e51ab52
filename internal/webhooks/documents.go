package webhooks

import (
	"fmt"

	"wholesale/internal/models"

	"gorm.io/gorm"
)

// stockAffectingStatuses are the document states that represent real
// movement of goods. Drafts and voided documents are ignored.
var stockAffectingStatuses = map[string]struct{}{
	"sent":           {},
	"paid":           {},
	"overdue":        {},
	"partially_paid": {},
}

// HandleInvoice models a sale: line-item quantities are subtracted from
// local stock, floored at zero. Redelivery of the same (invoice, status)
// tuple is suppressed; a genuine transition like sent -> paid is not.
func (s *Service) HandleInvoice(body []byte) Result {
	payload, err := parseInvoicePayload(body)
	if err != nil {
		return failure("invalid_payload", err.Error())
	}
	inv := payload.Invoice

	if _, ok := stockAffectingStatuses[inv.Status]; !ok {
		return success("ignored_status", fmt.Sprintf("invoice status %q does not affect stock", inv.Status))
	}

	key := idemKey("invoice", inv.InvoiceID, inv.Status)
	if s.idem.alreadyProcessed(key) {
		return success("duplicate", fmt.Sprintf("invoice %s status %s already processed", inv.InvoiceID, inv.Status))
	}

	adjusted, err := s.adjustStock(inv.LineItems, -1)
	if err != nil {
		return failure("stock_update_failed", err.Error())
	}

	s.idem.markProcessed(key)
	return success("stock_decremented", fmt.Sprintf("invoice %s: %d products adjusted", inv.InvoiceID, adjusted))
}

// HandleBill models a receipt of goods: the mirror image of an invoice,
// adding line-item quantities to local stock.
func (s *Service) HandleBill(body []byte) Result {
	payload, err := parseBillPayload(body)
	if err != nil {
		return failure("invalid_payload", err.Error())
	}
	bill := payload.Bill

	if _, ok := stockAffectingStatuses[bill.Status]; !ok {
		return success("ignored_status", fmt.Sprintf("bill status %q does not affect stock", bill.Status))
	}

	key := idemKey("bill", bill.BillID, bill.Status)
	if s.idem.alreadyProcessed(key) {
		return success("duplicate", fmt.Sprintf("bill %s status %s already processed", bill.BillID, bill.Status))
	}

	adjusted, err := s.adjustStock(bill.LineItems, 1)
	if err != nil {
		return failure("stock_update_failed", err.Error())
	}

	s.idem.markProcessed(key)
	return success("stock_incremented", fmt.Sprintf("bill %s: %d products adjusted", bill.BillID, adjusted))
}

// adjustStock applies quantity deltas per line item, clamping decrements at
// zero. Lines referencing unknown items are skipped, not errors; the local
// mirror simply may not carry every remote item.
func (s *Service) adjustStock(lines []documentLine, direction int) (int, error) {
	adjusted := 0
	for _, line := range lines {
		if line.ItemID == "" || line.Quantity <= 0 {
			continue
		}

		var product models.Product
		err := s.db.First(&product, "zoho_item_id = ?", line.ItemID).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return adjusted, err
		}

		newStock := product.StockQuantity + direction*int(line.Quantity)
		if direction < 0 && newStock < 0 {
			newStock = 0
		}

		if err := s.db.Model(&product).Update("stock_quantity", newStock).Error; err != nil {
			return adjusted, err
		}
		adjusted++
	}
	return adjusted, nil
}
