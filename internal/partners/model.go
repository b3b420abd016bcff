// Package partners manages the client and vendor contact records referenced
// by sales projects and purchase orders.
package partners

import "time"

// FallbackName is substituted when a referenced contact no longer exists.
// Dangling references degrade to this placeholder instead of failing reads.
const FallbackName = "(tidak ditemukan)"

// Client is a sales-side contact record.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"clientDepartment,omitempty"`
	PIC        string    `json:"pic,omitempty"`
	Email      string    `json:"clientEmail,omitempty"`
	Address    string    `json:"address,omitempty"`
	NPWP       string    `json:"npwp,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Vendor is a procurement-side contact record.
type Vendor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	NPWP          string    `json:"npwp,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
