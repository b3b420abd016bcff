package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func sampleDocument() DocumentInput {
	return DocumentInput{
		Items: []LineItem{
			{ItemID: "ITM-001", Quantity: 2, UnitPrice: decimal.NewFromInt(500000)},
		},
		DiscountPercent: decimal.NewFromInt(10),
		IsPPN:           boolPtr(true),
	}
}

func TestComputeTaxBreakdown(t *testing.T) {
	summary := Compute(sampleDocument(), Profile{IsPKP: true, PPNRate: decimal.NewFromInt(11)})

	require.True(t, summary.Subtotal.Equal(decimal.NewFromInt(1000000)), "subtotal %s", summary.Subtotal)
	require.True(t, summary.DiscountAmount.Equal(decimal.NewFromInt(100000)), "discount %s", summary.DiscountAmount)
	require.True(t, summary.DPP.Equal(decimal.NewFromInt(900000)), "dpp %s", summary.DPP)
	require.True(t, summary.PPNAmount.Equal(decimal.NewFromInt(99000)), "ppn %s", summary.PPNAmount)
	require.True(t, summary.GrandTotal.Equal(decimal.NewFromInt(999000)), "grand total %s", summary.GrandTotal)
	require.True(t, summary.FinalTotal.Equal(decimal.NewFromInt(999000)))
	require.True(t, summary.PPNApplied)
}

func TestComputeMeteraiSurcharge(t *testing.T) {
	doc := sampleDocument()
	doc.ApplyMeterai = true

	summary := Compute(doc, Profile{IsPKP: true})

	require.True(t, summary.MeteraiAmount.Equal(decimal.NewFromInt(10000)))
	require.True(t, summary.FinalTotal.Equal(decimal.NewFromInt(1009000)), "final total %s", summary.FinalTotal)
}

func TestComputeDefaults(t *testing.T) {
	doc := DocumentInput{
		Items: []LineItem{{ItemID: "ITM-002", Quantity: 1, UnitPrice: decimal.NewFromInt(100000)}},
	}

	// isPPN unset falls back to the company PKP flag, rate falls back to 11.
	summary := Compute(doc, Profile{IsPKP: true})
	require.True(t, summary.PPNApplied)
	require.True(t, summary.PPNAmount.Equal(decimal.NewFromInt(11000)), "ppn %s", summary.PPNAmount)

	summary = Compute(doc, Profile{IsPKP: false})
	require.False(t, summary.PPNApplied)
	require.True(t, summary.PPNAmount.IsZero())
	require.True(t, summary.GrandTotal.Equal(summary.DPP))
}

func TestComputeDownPayment(t *testing.T) {
	doc := sampleDocument()
	doc.HasDP = true

	summary := Compute(doc, Profile{IsPKP: true})
	// DP percentage defaults to 50.
	require.True(t, summary.DPAmount.Equal(decimal.NewFromInt(499500)), "dp %s", summary.DPAmount)

	doc.DPPercent = decimal.NewFromInt(30)
	summary = Compute(doc, Profile{IsPKP: true})
	require.True(t, summary.DPAmount.Equal(decimal.NewFromInt(299700)), "dp %s", summary.DPAmount)

	doc.HasDP = false
	summary = Compute(doc, Profile{IsPKP: true})
	require.True(t, summary.DPAmount.IsZero())
}

func TestComputeAmountDueIdentity(t *testing.T) {
	doc := sampleDocument()
	payments := []decimal.Decimal{
		decimal.NewFromInt(250000),
		decimal.NewFromInt(499500),
		decimal.RequireFromString("0.01"),
	}

	total := decimal.Zero
	for i, amount := range payments {
		doc.Payments = append(doc.Payments, Payment{
			ID:     "PAY-" + string(rune('A'+i)),
			Amount: amount,
			Date:   time.Date(2025, 6, 1+i, 0, 0, 0, 0, time.UTC),
			Kind:   PaymentRegular,
		})
		total = total.Add(amount)

		summary := Compute(doc, Profile{IsPKP: true})
		require.True(t, summary.TotalPaid.Equal(total))
		require.True(t, summary.AmountDue.Equal(summary.FinalTotal.Sub(total)))
	}
}

func TestComputeProformaPaidFlag(t *testing.T) {
	doc := sampleDocument()
	doc.Payments = []Payment{{ID: "PAY-1", Amount: decimal.NewFromInt(100), Kind: PaymentRegular}}
	require.False(t, Compute(doc, Profile{}).ProformaPaid)

	doc.Payments = append(doc.Payments, Payment{ID: "PAY-DP-1", Amount: decimal.NewFromInt(100), Kind: PaymentDownPayment})
	require.True(t, Compute(doc, Profile{}).ProformaPaid)

	// Legacy records tag the down payment through the note text.
	doc.Payments = []Payment{{ID: "PAY-2", Amount: decimal.NewFromInt(100), Kind: PaymentRegular, Note: "Pembayaran DP (50%) via Proforma No. 001/KNC/P-INV/VI/2025"}}
	require.True(t, Compute(doc, Profile{}).ProformaPaid)
}

func TestComputeIsPure(t *testing.T) {
	doc := sampleDocument()
	doc.Payments = []Payment{{ID: "PAY-1", Amount: decimal.NewFromInt(500000), Kind: PaymentRegular}}
	profile := Profile{IsPKP: true, PPNRate: decimal.NewFromInt(11)}

	first := Compute(doc, profile)
	second := Compute(doc, profile)

	require.Equal(t, first, second)
	require.Len(t, doc.Items, 1)
	require.True(t, doc.Items[0].UnitPrice.Equal(decimal.NewFromInt(500000)))
}
