package webhooks

import (
	"encoding/json"
	"fmt"

	"wholesale/internal/services/zoho"
)

// Webhook payloads are validated strictly at the boundary: each kind has one
// schema, and a body missing its entity or id is rejected rather than
// defaulted.

type ItemPayload struct {
	Action string    `json:"action"`
	Item   zoho.Item `json:"item"`
}

type CustomerPayload struct {
	Action  string `json:"action"`
	Contact struct {
		ContactID   string `json:"contact_id"`
		ContactName string `json:"contact_name"`
		Status      string `json:"status"`
	} `json:"contact"`
}

type documentLine struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

type InvoicePayload struct {
	Invoice struct {
		InvoiceID string         `json:"invoice_id"`
		Status    string         `json:"status"`
		LineItems []documentLine `json:"line_items"`
	} `json:"invoice"`
}

type BillPayload struct {
	Bill struct {
		BillID    string         `json:"bill_id"`
		Status    string         `json:"status"`
		LineItems []documentLine `json:"line_items"`
	} `json:"bill"`
}

func parseItemPayload(body []byte) (*ItemPayload, error) {
	var p ItemPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed item payload: %w", err)
	}
	if p.Item.ItemID == "" {
		return nil, fmt.Errorf("item payload missing item_id")
	}
	return &p, nil
}

func parseCustomerPayload(body []byte) (*CustomerPayload, error) {
	var p CustomerPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed customer payload: %w", err)
	}
	if p.Contact.ContactID == "" {
		return nil, fmt.Errorf("customer payload missing contact_id")
	}
	return &p, nil
}

func parseInvoicePayload(body []byte) (*InvoicePayload, error) {
	var p InvoicePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed invoice payload: %w", err)
	}
	if p.Invoice.InvoiceID == "" {
		return nil, fmt.Errorf("invoice payload missing invoice_id")
	}
	return &p, nil
}

func parseBillPayload(body []byte) (*BillPayload, error) {
	var p BillPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("malformed bill payload: %w", err)
	}
	if p.Bill.BillID == "" {
		return nil, fmt.Errorf("bill payload missing bill_id")
	}
	return &p, nil
}
