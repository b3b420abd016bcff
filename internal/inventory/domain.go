// Package inventory operates the stock ledger: signed-delta adjustments,
// BOM fan-out on delivery, goods-receipt postings and consumable usage.
package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category determines which optional item attributes apply.
type Category string

const (
	CategoryProduct     Category = "product"
	CategoryRawMaterial Category = "raw_material"
	CategoryConsumable  Category = "consumable"
	CategoryAsset       Category = "asset"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryProduct, CategoryRawMaterial, CategoryConsumable, CategoryAsset:
		return true
	}
	return false
}

// Stocked reports whether items of this category carry a stock level.
func (c Category) Stocked() bool {
	switch c {
	case CategoryProduct, CategoryRawMaterial, CategoryConsumable:
		return true
	}
	return false
}

// BOMLine is one raw-material component of a finished product.
type BOMLine struct {
	ItemID   string  `json:"id"`
	Quantity float64 `json:"quantity"`
}

// Item is an inventory entity. Stock is never written directly by sales
// flows; it changes only through the ledger operations in this package.
type Item struct {
	ID       string   `json:"id"`
	Code     string   `json:"itemCode"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit,omitempty"`
	Category Category `json:"category"`

	Stock float64 `json:"stock"`

	// Product fields.
	Price decimal.Decimal `json:"price,omitempty"`
	BOM   []BOMLine       `json:"bom,omitempty"`

	// Asset fields.
	PurchaseDate     *time.Time      `json:"purchaseDate,omitempty"`
	PurchaseValue    decimal.Decimal `json:"purchaseValue,omitempty"`
	UsefulLifeMonths int             `json:"usefulLifeMonths,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// UsageRecord logs consumable material taken out of stock.
type UsageRecord struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	PIC       string    `json:"pic"`
	Date      time.Time `json:"date"`
	Quantity  float64   `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeliveryLine is one sold position to deduct on delivery confirmation.
type DeliveryLine struct {
	ItemID   string
	Quantity float64
}

// ReceiptLine is one purchased position to add on goods receipt.
type ReceiptLine struct {
	ItemID   string
	Quantity float64
}

var (
	// ErrInvalidQuantity indicates a non-positive quantity input.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrNegativeStock indicates the adjustment would drive stock below zero
	// while negative stock is disallowed.
	ErrNegativeStock = errors.New("inventory: insufficient stock")
	// ErrNotStocked indicates the item category carries no stock level.
	ErrNotStocked = errors.New("inventory: item does not carry stock")
)
