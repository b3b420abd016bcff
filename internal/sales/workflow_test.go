package sales

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kencana-erp/kencana-erp/internal/company"
	"github.com/kencana-erp/kencana-erp/internal/numbering"
)

func TestGatesTable(t *testing.T) {
	pkp := company.Profile{IsPKP: true}

	cases := []struct {
		name          string
		status        Status
		hasDP         bool
		invoiceNumber string
		profile       company.Profile
		want          map[string]bool
	}{
		{
			name:    "draft",
			status:  StatusDraft,
			hasDP:   true,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      false,
				numbering.DocInvoice:       false,
				numbering.DocDeliveryOrder: false,
				numbering.DocHandover:      false,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:    "quotation sent with dp",
			status:  StatusQuotationSent,
			hasDP:   true,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      true,
				numbering.DocInvoice:       false,
				numbering.DocDeliveryOrder: false,
				numbering.DocHandover:      false,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:    "quotation sent without dp",
			status:  StatusQuotationSent,
			hasDP:   false,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      false,
				numbering.DocInvoice:       false,
				numbering.DocDeliveryOrder: false,
				numbering.DocHandover:      false,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:    "approved before invoice generated",
			status:  StatusApproved,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      false,
				numbering.DocInvoice:       true,
				numbering.DocDeliveryOrder: true,
				numbering.DocHandover:      true,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:          "approved with invoice number",
			status:        StatusApproved,
			invoiceNumber: "001/KNC/INV/VI/2025",
			profile:       pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      false,
				numbering.DocInvoice:       true,
				numbering.DocDeliveryOrder: true,
				numbering.DocHandover:      true,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    true,
			},
		},
		{
			name:          "approved non pkp",
			status:        StatusApproved,
			invoiceNumber: "001/KNC/INV/VI/2025",
			profile:       company.Profile{IsPKP: false},
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      false,
				numbering.DocInvoice:       true,
				numbering.DocDeliveryOrder: true,
				numbering.DocHandover:      true,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:    "partially paid",
			status:  StatusPartiallyPaid,
			hasDP:   true,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      true,
				numbering.DocInvoice:       true,
				numbering.DocDeliveryOrder: true,
				numbering.DocHandover:      true,
				numbering.DocReceipt:       true,
				numbering.DocTaxInvoice:    false,
			},
		},
		{
			name:    "cancelled",
			status:  StatusCancelled,
			hasDP:   true,
			profile: pkp,
			want: map[string]bool{
				numbering.DocQuotation:     true,
				numbering.DocProforma:      true,
				numbering.DocInvoice:       false,
				numbering.DocDeliveryOrder: false,
				numbering.DocHandover:      false,
				numbering.DocReceipt:       false,
				numbering.DocTaxInvoice:    false,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			project := &Project{Status: tc.status, DocNumbers: map[string]string{}}
			project.Details.HasDP = tc.hasDP
			if tc.invoiceNumber != "" {
				project.DocNumbers[numbering.DocInvoice] = tc.invoiceNumber
			}
			require.Equal(t, tc.want, Gates(project, tc.profile))
		})
	}
}
