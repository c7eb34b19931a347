package models

import (
	"math"
	"time"
)

// MaxMovementQuantity is the largest quantity a single movement may carry
const MaxMovementQuantity = math.MaxInt32

// MovementKind is the type of a stock ledger entry
type MovementKind string

const (
	MovementInitial      MovementKind = "INITIAL"       // Opening balance at registration
	MovementIn           MovementKind = "IN"            // Manual stock entry
	MovementOut          MovementKind = "OUT"           // Manual stock exit (loss, own use)
	MovementSale         MovementKind = "SALE"          // Simple product sold
	MovementSaleCombo    MovementKind = "SALE_COMBO"    // Component consumed by a bundle sale
	MovementCancelReturn MovementKind = "CANCEL_RETURN" // Returned by an order cancellation
)

// Sign returns +1 for kinds that add stock, -1 for kinds that remove it and 0 for
// unknown kinds.
func (k MovementKind) Sign() int {
	switch k {
	case MovementInitial, MovementIn, MovementCancelReturn:
		return 1
	case MovementOut, MovementSale, MovementSaleCombo:
		return -1
	}
	return 0
}

func (k MovementKind) Valid() bool {
	return k.Sign() != 0
}

// Manual reports whether the kind may be posted directly by an operator.
func (k MovementKind) Manual() bool {
	return k == MovementIn || k == MovementOut
}

// StockMovement is one append-only ledger entry. Quantity is always positive;
// the direction comes from Kind.
type StockMovement struct {
	At        time.Time    `json:"at"`
	Kind      MovementKind `json:"kind"`
	Quantity  int          `json:"quantity"`
	Reference string       `json:"reference,omitempty"`
}

// Signed returns the quantity with the direction of the movement applied
func (m StockMovement) Signed() int {
	return m.Kind.Sign() * m.Quantity
}

// StockMovementRequest is the body of a manual stock in/out
type StockMovementRequest struct {
	Kind      MovementKind `json:"kind"`
	Quantity  int          `json:"quantity"`
	Reference string       `json:"reference"`
}

// OversellSignal reports a simple product whose stock went below zero.
// It is a business signal, not a failure.
type OversellSignal struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
}
