// Package numbering issues yearly per-document-type sequence numbers and
// renders them in the Indonesian surat-number layout.
package numbering

import (
	"fmt"
	"strings"
	"time"
)

// Document type keys. These are the keys used in counters and in a project's
// docNumbers map.
const (
	DocQuotation           = "penawaran"
	DocProforma            = "proforma"
	DocInvoice             = "invoice"
	DocTaxInvoice          = "fakturpajak"
	DocDeliveryOrder       = "suratjalan"
	DocHandover            = "bast"
	DocReceipt             = "kwitansi"
	DocPurchaseRequisition = "pr"
	DocPurchaseOrder       = "po"
)

var codes = map[string]string{
	DocQuotation:           "Q",
	DocProforma:            "P-INV",
	DocInvoice:             "INV",
	DocTaxInvoice:          "FP",
	DocDeliveryOrder:       "SJ",
	DocHandover:            "BAST",
	DocReceipt:             "KWT",
	DocPurchaseRequisition: "PR",
	DocPurchaseOrder:       "PO",
}

// Code returns the short document code printed on the number.
func Code(docType string) (string, bool) {
	code, ok := codes[docType]
	return code, ok
}

// Known reports whether docType participates in numbering.
func Known(docType string) bool {
	_, ok := codes[docType]
	return ok
}

var romanMonths = [...]string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X", "XI", "XII"}

// Format renders a sequence number as {seq}/{initials}/{code}/{roman month}/{year},
// e.g. 003/KNC/INV/VIII/2025.
func Format(seq int64, initials, docType string, at time.Time) string {
	code, ok := codes[docType]
	if !ok {
		code = strings.ToUpper(docType)
	}
	return fmt.Sprintf("%03d/%s/%s/%s/%d", seq, initials, code, romanMonths[at.Month()-1], at.Year())
}
