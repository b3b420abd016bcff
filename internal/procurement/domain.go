// Package procurement covers purchase requisitions, purchase orders, goods
// receipt and the vendor-invoice match that gates payment.
package procurement

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// PRStatus is the purchase requisition lifecycle state.
type PRStatus string

const (
	PRStatusPending   PRStatus = "Pending"
	PRStatusPOCreated PRStatus = "PO Created"
)

// POStatus is the purchase order lifecycle state.
type POStatus string

const (
	POStatusIssued        POStatus = "PO Issued"
	POStatusGoodsReceived POStatus = "Goods Received"
	POStatusValidated     POStatus = "Validated"
	POStatusPaid          POStatus = "Paid"
)

// PRLine is one requested position.
type PRLine struct {
	ItemID      string  `json:"itemId"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
}

// POLine is one committed position.
type POLine struct {
	ItemID      string          `json:"itemId"`
	Description string          `json:"description,omitempty"`
	Quantity    float64         `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// VendorInvoice is the vendor-submitted claim recorded after a successful
// match.
type VendorInvoice struct {
	Number string          `json:"number"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// PurchaseRequisition is an internal purchase request.
type PurchaseRequisition struct {
	ID            string    `json:"id"`
	Number        string    `json:"number"`
	Requester     string    `json:"requester"`
	Justification string    `json:"justification,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        PRStatus  `json:"status"`
	Lines         []PRLine  `json:"lines"`
}

// PurchaseOrder is a vendor commitment.
type PurchaseOrder struct {
	ID            string         `json:"id"`
	Number        string         `json:"number"`
	PRID          string         `json:"prId,omitempty"`
	VendorID      string         `json:"vendorId"`
	CreatedAt     time.Time      `json:"createdAt"`
	Status        POStatus       `json:"status"`
	Lines         []POLine       `json:"lines"`
	VendorInvoice *VendorInvoice `json:"vendorInvoice,omitempty"`
}

// Total is the committed amount over all lines.
func (po *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range po.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromFloat(line.Quantity)))
	}
	return total
}

// Match compares the PO's committed total with the vendor-claimed amount.
// The comparison is exact equality: any deviation, down to a single cent,
// blocks the invoice.
func Match(poTotal, invoiceAmount decimal.Decimal) bool {
	return poTotal.Equal(invoiceAmount)
}

// ErrAmountMismatch indicates the vendor invoice amount differs from the PO
// total.
var ErrAmountMismatch = errors.New("procurement: jumlah faktur vendor tidak sama dengan total PO")
