package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind distinguishes stocked products from bundles
type ProductKind string

const (
	ProductKindSimple ProductKind = "simple"
	ProductKindBundle ProductKind = "bundle"
)

// Product is a catalog entry. Exactly one of Simple or Bundle is set: a simple
// product owns a stock level and its ledger, a bundle only lists components.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Cost      decimal.Decimal `json:"cost"`
	Price     decimal.Decimal `json:"price"`
	Simple    *StockLevel     `json:"simple,omitempty"`
	Bundle    *BundleSpec     `json:"bundle,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockLevel is the stock of a simple product. Stock may go negative (oversell).
type StockLevel struct {
	Stock   int             `json:"stock"`
	History []StockMovement `json:"history"`
}

// BundleComponent is one (product, quantity) pair of a bundle
type BundleComponent struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// BundleSpec lists the simple products consumed by one unit of a bundle
type BundleSpec struct {
	Components []BundleComponent `json:"components"`
}

func (p Product) Kind() ProductKind {
	if p.Bundle != nil {
		return ProductKindBundle
	}
	return ProductKindSimple
}

func (p Product) IsBundle() bool {
	return p.Bundle != nil
}

// Stock returns the on-hand quantity of a simple product; ok is false for bundles
func (p Product) Stock() (stock int, ok bool) {
	if p.Simple == nil {
		return 0, false
	}
	return p.Simple.Stock, true
}

// Clone returns a deep copy so the ledger can append without aliasing history
func (p Product) Clone() Product {
	c := p
	if p.Simple != nil {
		s := *p.Simple
		s.History = append([]StockMovement(nil), p.Simple.History...)
		c.Simple = &s
	}
	if p.Bundle != nil {
		b := BundleSpec{Components: append([]BundleComponent(nil), p.Bundle.Components...)}
		c.Bundle = &b
	}
	return c
}

// CreateProductRequest represents the request body for registering a product
type CreateProductRequest struct {
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Cost         decimal.Decimal   `json:"cost"`
	Price        decimal.Decimal   `json:"price"`
	InitialStock int               `json:"initial_stock"`
	IsCombo      bool              `json:"is_combo"`
	ComboItems   []BundleComponent `json:"combo_items"`
}

// UpdateProductRequest edits catalog fields. Stock and history are never touched
// here, and a product cannot switch between simple and bundle.
type UpdateProductRequest struct {
	Name       string            `json:"name"`
	Category   string            `json:"category"`
	Cost       decimal.Decimal   `json:"cost"`
	Price      decimal.Decimal   `json:"price"`
	ComboItems []BundleComponent `json:"combo_items"`
}

// DefaultCategory is used when a product is registered without one
const DefaultCategory = "geral"
