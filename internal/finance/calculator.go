// Package finance computes the monetary breakdown of a sales document:
// subtotal, discount, PPN, meterai, down payment and outstanding balance.
// All arithmetic uses decimal values; rounding happens only at display time.
package finance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind classifies a payment entry. The structured kind replaces the
// older convention of tagging down payments through free-text notes; notes
// containing "via Proforma" are still honoured for records written before
// the field existed.
type PaymentKind string

const (
	PaymentRegular     PaymentKind = "regular"
	PaymentDownPayment PaymentKind = "down_payment"
)

// legacyDPTag marks pre-migration down-payment notes.
const legacyDPTag = "via Proforma"

// MeteraiFee is the flat Indonesian stamp-duty surcharge.
var MeteraiFee = decimal.NewFromInt(10000)

var (
	defaultPPNRate   = decimal.NewFromInt(11)
	defaultDPPercent = decimal.NewFromInt(50)
	hundred          = decimal.NewFromInt(100)
)

// LineItem is a single sellable position on a document.
type LineItem struct {
	ItemID      string          `json:"itemId"`
	Description string          `json:"description,omitempty"`
	Quantity    float64         `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Payment is a received payment applied against a document.
type Payment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Kind   PaymentKind     `json:"kind"`
	Note   string          `json:"note,omitempty"`
}

// DocumentInput is the financially relevant slice of a sales document.
type DocumentInput struct {
	Items           []LineItem
	Payments        []Payment
	DiscountPercent decimal.Decimal
	// IsPPN overrides the company PKP default when set.
	IsPPN        *bool
	ApplyMeterai bool
	HasDP        bool
	// DPPercent defaults to 50 when zero.
	DPPercent decimal.Decimal
}

// Profile carries the company tax defaults consumed by Compute.
type Profile struct {
	IsPKP bool
	// PPNRate defaults to 11 when zero.
	PPNRate decimal.Decimal
}

// Summary is the full derived breakdown. It is never persisted; callers
// re-derive it from document state whenever needed.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DPP            decimal.Decimal `json:"dpp"`
	PPNAmount      decimal.Decimal `json:"ppnAmount"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	MeteraiAmount  decimal.Decimal `json:"meteraiAmount"`
	FinalTotal     decimal.Decimal `json:"finalTotal"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	AmountDue      decimal.Decimal `json:"amountDue"`
	DPAmount       decimal.Decimal `json:"dpAmount"`
	PPNApplied     bool            `json:"ppnApplied"`
	ProformaPaid   bool            `json:"proformaPaid"`
}

// Compute derives the financial summary for a document. It is pure: inputs
// are never mutated and identical inputs yield identical output.
func Compute(doc DocumentInput, profile Profile) Summary {
	subtotal := decimal.Zero
	for _, item := range doc.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromFloat(item.Quantity)))
	}

	discountAmount := subtotal.Mul(doc.DiscountPercent).Div(hundred)
	dpp := subtotal.Sub(discountAmount)

	ppnApplied := profile.IsPKP
	if doc.IsPPN != nil {
		ppnApplied = *doc.IsPPN
	}
	rate := profile.PPNRate
	if rate.IsZero() {
		rate = defaultPPNRate
	}
	ppnAmount := decimal.Zero
	if ppnApplied {
		ppnAmount = dpp.Mul(rate).Div(hundred)
	}
	grandTotal := dpp.Add(ppnAmount)

	meterai := decimal.Zero
	if doc.ApplyMeterai {
		meterai = MeteraiFee
	}
	finalTotal := grandTotal.Add(meterai)

	totalPaid := decimal.Zero
	proformaPaid := false
	for _, payment := range doc.Payments {
		totalPaid = totalPaid.Add(payment.Amount)
		if payment.Kind == PaymentDownPayment || strings.Contains(payment.Note, legacyDPTag) {
			proformaPaid = true
		}
	}
	amountDue := finalTotal.Sub(totalPaid)

	dpAmount := decimal.Zero
	if doc.HasDP {
		dpPercent := doc.DPPercent
		if dpPercent.IsZero() {
			dpPercent = defaultDPPercent
		}
		dpAmount = grandTotal.Mul(dpPercent).Div(hundred)
	}

	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		DPP:            dpp,
		PPNAmount:      ppnAmount,
		GrandTotal:     grandTotal,
		MeteraiAmount:  meterai,
		FinalTotal:     finalTotal,
		TotalPaid:      totalPaid,
		AmountDue:      amountDue,
		DPAmount:       dpAmount,
		PPNApplied:     ppnApplied,
		ProformaPaid:   proformaPaid,
	}
}
