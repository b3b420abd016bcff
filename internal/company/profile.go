// Package company holds the singleton company profile whose tax and payment
// defaults feed the sales document workflow.
package company

import (
	"github.com/shopspring/decimal"

	"github.com/kencana-erp/kencana-erp/internal/finance"
)

// Profile is the singleton company record.
type Profile struct {
	CompanyName        string          `json:"companyName"`
	CompanyInitials    string          `json:"companyInitials"`
	Phone              string          `json:"phone,omitempty"`
	Address            string          `json:"address,omitempty"`
	Email              string          `json:"email,omitempty"`
	Website            string          `json:"website,omitempty"`
	NPWP               string          `json:"npwp,omitempty"`
	LogoURL            string          `json:"logoUrl,omitempty"`
	StampURL           string          `json:"stampUrl,omitempty"`
	DirectorName       string          `json:"directorName,omitempty"`
	DefaultPaymentTerm string          `json:"defaultPaymentTerm,omitempty"`
	DefaultHasDP       bool            `json:"defaultHasDp"`
	Terms              string          `json:"companyTerms,omitempty"`
	PaymentInfo        string          `json:"companyPaymentInfo,omitempty"`
	IsPKP              bool            `json:"isPKP"`
	PPNRate            decimal.Decimal `json:"ppnRate"`
}

// DefaultProfile is returned before the profile has been saved for the first
// time.
func DefaultProfile() Profile {
	return Profile{
		CompanyInitials: "KNC",
		PPNRate:         decimal.NewFromInt(11),
	}
}

// TaxProfile projects the fields consumed by the financial calculator.
func (p Profile) TaxProfile() finance.Profile {
	return finance.Profile{IsPKP: p.IsPKP, PPNRate: p.PPNRate}
}
