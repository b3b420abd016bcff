// Package sales manages project records and the document workflow built on
// top of them: status lifecycle, document gates, numbering, payments and
// delivery confirmation.
package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/finance"
)

// Status is the project lifecycle state.
type Status string

const (
	StatusDraft         Status = "Draft"
	StatusQuotationSent Status = "Penawaran Terkirim"
	StatusApproved      Status = "Disetujui"
	StatusCancelled     Status = "Dibatalkan"
	StatusPartiallyPaid Status = "Dibayar Sebagian"
	StatusPaidOff       Status = "Lunas"
)

// Valid reports whether the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusQuotationSent, StatusApproved, StatusCancelled, StatusPartiallyPaid, StatusPaidOff:
		return true
	}
	return false
}

// InvoiceDetails carries invoice-specific fields.
type InvoiceDetails struct {
	DueDate  *time.Time `json:"dueDate,omitempty"`
	PONumber string     `json:"poNumber,omitempty"`
}

// TaxInvoiceDetails carries the NSFP serial required on faktur pajak.
type TaxInvoiceDetails struct {
	NSFP string `json:"nsfp,omitempty"`
}

// DeliveryDetails carries surat jalan fields.
type DeliveryDetails struct {
	Notes string `json:"deliveryNotes,omitempty"`
}

// HandoverDetails carries the BAST signatories.
type HandoverDetails struct {
	FirstPartyName   string `json:"pihak1Name,omitempty"`
	FirstPartyTitle  string `json:"pihak1Jabatan,omitempty"`
	SecondPartyName  string `json:"pihak2Name,omitempty"`
	SecondPartyTitle string `json:"pihak2Jabatan,omitempty"`
}

// Details groups the document-type-specific fields of a project. The common
// block feeds the financial calculator; each document section carries only
// its own fields.
type Details struct {
	DocDate      *time.Time      `json:"docDate,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	PaymentTerm  string          `json:"paymentTerm,omitempty"`
	HasDP        bool            `json:"hasDp"`
	DPPercent    decimal.Decimal `json:"dpPercentage"`
	IsPPN        *bool           `json:"isPPN,omitempty"`
	ApplyMeterai bool            `json:"applyMeterai"`

	Invoice    InvoiceDetails    `json:"invoice"`
	TaxInvoice TaxInvoiceDetails `json:"taxInvoice"`
	Delivery   DeliveryDetails   `json:"delivery"`
	Handover   HandoverDetails   `json:"handover"`
}

// Project is a sales engagement.
type Project struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	ClientID  string    `json:"clientId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`

	// DocNumbers is keyed by document type. An entry exists only after the
	// document has been generated and is immutable once allocated.
	DocNumbers map[string]string `json:"docNumbers"`

	Items    []finance.LineItem `json:"items"`
	Payments []finance.Payment  `json:"payments"`
	Details  Details            `json:"specificDetails"`

	// StockDeducted guards delivery confirmation against double deduction.
	StockDeducted bool `json:"stockDeducted"`
}

// FinanceInput projects the financially relevant fields.
func (p *Project) FinanceInput() finance.DocumentInput {
	return finance.DocumentInput{
		Items:           p.Items,
		Payments:        p.Payments,
		DiscountPercent: p.Details.Discount,
		IsPPN:           p.Details.IsPPN,
		ApplyMeterai:    p.Details.ApplyMeterai,
		HasDP:           p.Details.HasDP,
		DPPercent:       p.Details.DPPercent,
	}
}

var (
	// ErrGateClosed indicates the document type is not available in the
	// project's current state.
	ErrGateClosed = errors.New("sales: dokumen belum dapat dibuat pada status ini")
	// ErrAlreadyDeducted indicates delivery was already confirmed.
	ErrAlreadyDeducted = errors.New("sales: stok sudah dikurangi untuk proyek ini")
	// ErrProformaAlreadyPaid indicates the DP payment was already recorded.
	ErrProformaAlreadyPaid = errors.New("sales: pembayaran proforma sudah dicatat")
	// ErrDPNotEnabled indicates the project has no down-payment scheme.
	ErrDPNotEnabled = errors.New("sales: proyek tidak menggunakan uang muka")
)
