package sales

import (
	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/finance"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
)

// DocumentTypes lists the sales document types in workflow order.
var DocumentTypes = []string{
	numbering.DocQuotation,
	numbering.DocProforma,
	numbering.DocInvoice,
	numbering.DocTaxInvoice,
	numbering.DocDeliveryOrder,
	numbering.DocHandover,
	numbering.DocReceipt,
}

// Gates evaluates document availability from the project status and flags.
// Each gate is independent of the others; the function is pure.
func Gates(p *Project, profile company.Profile) map[string]bool {
	invoiceEligible := p.Status == StatusApproved || p.Status == StatusPartiallyPaid || p.Status == StatusPaidOff
	receiptEligible := p.Status == StatusPartiallyPaid || p.Status == StatusPaidOff

	return map[string]bool{
		numbering.DocQuotation:     true,
		numbering.DocProforma:      p.Details.HasDP && p.Status != StatusDraft,
		numbering.DocInvoice:       invoiceEligible,
		numbering.DocDeliveryOrder: invoiceEligible,
		numbering.DocHandover:      invoiceEligible,
		numbering.DocReceipt:       receiptEligible,
		numbering.DocTaxInvoice:    profile.IsPKP && invoiceEligible && p.DocNumbers[numbering.DocInvoice] != "",
	}
}

// StatusAfterPayment derives the automatic transition after a payment is
// recorded: paid off once the cumulative total covers the final total,
// partially paid otherwise.
func StatusAfterPayment(summary finance.Summary) Status {
	if summary.TotalPaid.GreaterThanOrEqual(summary.FinalTotal) {
		return StatusPaidOff
	}
	return StatusPartiallyPaid
}
