package services

import (
	"fmt"
	"time"

	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"
)

// LedgerOutcome reports what a ledger call skipped or oversold. Neither aborts the call.
type LedgerOutcome struct {
	Skipped  []models.NotFoundError  `json:"skipped,omitempty"`
	Oversold []models.OversellSignal `json:"oversold,omitempty"`
}

func (o *LedgerOutcome) merge(other LedgerOutcome) {
	o.Skipped = append(o.Skipped, other.Skipped...)
	o.Oversold = append(o.Oversold, other.Oversold...)
}

// Clean reports whether nothing was skipped or oversold
func (o LedgerOutcome) Clean() bool {
	return len(o.Skipped) == 0 && len(o.Oversold) == 0
}

// LedgerService owns stock quantities and the movement history of simple
// products. Every method takes a product slice and returns a new one; the
// input is never modified.
type LedgerService struct {
	Now func() time.Time
}

// NewLedgerService creates a ledger stamping movements with the shop clock
func NewLedgerService() *LedgerService {
	return &LedgerService{Now: timeutil.Now}
}

// ApplyMovement appends one movement to a simple product and adjusts its stock.
// Negative stock is allowed and reported as an oversell.
func (s *LedgerService) ApplyMovement(products []models.Product, productID string, kind models.MovementKind, quantity int, reference string) ([]models.Product, LedgerOutcome, error) {
	if quantity <= 0 || quantity > models.MaxMovementQuantity {
		return products, LedgerOutcome{}, models.NewValidationError("quantity", "must be a positive whole number")
	}
	if !kind.Valid() {
		return products, LedgerOutcome{}, models.NewValidationError("kind", "unknown movement kind "+string(kind))
	}

	idx := models.ProductIndex(products, productID)
	if idx < 0 {
		return products, LedgerOutcome{}, &models.NotFoundError{Entity: "product", ID: productID}
	}
	if products[idx].IsBundle() {
		return products, LedgerOutcome{}, models.NewValidationError("product_id", "bundles carry no stock, move their components instead")
	}

	next := models.CloneProducts(products)
	var out LedgerOutcome
	s.apply(next, idx, kind, quantity, reference, s.Now(), &out)
	return next, out, nil
}

// DeductForSale removes the stock sold by one line. Bundle lines are expanded
// into SALE_COMBO movements on their snapshotted components.
func (s *LedgerService) DeductForSale(products []models.Product, line models.LineItem) ([]models.Product, LedgerOutcome, error) {
	return s.DeductLines(products, []models.LineItem{line})
}

// ReverseForSale mirrors DeductForSale with CANCEL_RETURN movements
func (s *LedgerService) ReverseForSale(products []models.Product, line models.LineItem) ([]models.Product, LedgerOutcome, error) {
	return s.ReverseLines(products, []models.LineItem{line})
}

// DeductLines applies the sale of every line or none of them
func (s *LedgerService) DeductLines(products []models.Product, lines []models.LineItem) ([]models.Product, LedgerOutcome, error) {
	return s.saleMovements(products, lines, false)
}

// ReverseLines returns the stock of every line or none of them
func (s *LedgerService) ReverseLines(products []models.Product, lines []models.LineItem) ([]models.Product, LedgerOutcome, error) {
	return s.saleMovements(products, lines, true)
}

func (s *LedgerService) saleMovements(products []models.Product, lines []models.LineItem, reverse bool) ([]models.Product, LedgerOutcome, error) {
	for _, line := range lines {
		if err := validateLine(line); err != nil {
			return products, LedgerOutcome{}, err
		}
	}

	next := models.CloneProducts(products)
	at := s.Now()
	var out LedgerOutcome

	for _, line := range lines {
		if !line.IsBundle {
			kind := models.MovementSale
			if reverse {
				kind = models.MovementCancelReturn
			}
			s.applyIfSimple(next, line.ProductID, kind, line.Quantity, "", at, &out)
			continue
		}

		kind := models.MovementSaleCombo
		if reverse {
			kind = models.MovementCancelReturn
		}
		for _, c := range line.Components {
			s.applyIfSimple(next, c.ProductID, kind, c.Quantity*line.Quantity, line.Name, at, &out)
		}
	}
	return next, out, nil
}

func validateLine(line models.LineItem) error {
	if line.Quantity <= 0 {
		return models.NewValidationError("quantity", "line "+line.Name+" must have a positive quantity")
	}
	if line.Quantity > models.MaxMovementQuantity {
		return models.NewValidationError("quantity", "line "+line.Name+" quantity is too large")
	}
	if line.IsBundle {
		for _, c := range line.Components {
			if c.Quantity <= 0 {
				return models.NewValidationError("components", "bundle "+line.Name+" has a non-positive component quantity")
			}
			// component quantity times line quantity must fit one movement
			if c.Quantity > models.MaxMovementQuantity/line.Quantity {
				return models.NewValidationError("quantity", "bundle "+line.Name+" expands to too many units")
			}
		}
	}
	return nil
}

// applyIfSimple skips ids that are gone or are no longer simple products
func (s *LedgerService) applyIfSimple(products []models.Product, id string, kind models.MovementKind, quantity int, reference string, at time.Time, out *LedgerOutcome) {
	idx := models.ProductIndex(products, id)
	if idx < 0 || products[idx].IsBundle() {
		out.Skipped = append(out.Skipped, models.NotFoundError{Entity: "product", ID: id})
		return
	}
	s.apply(products, idx, kind, quantity, reference, at, out)
}

func (s *LedgerService) apply(products []models.Product, idx int, kind models.MovementKind, quantity int, reference string, at time.Time, out *LedgerOutcome) {
	if quantity <= 0 || quantity > models.MaxMovementQuantity {
		panic(fmt.Sprintf("ledger: movement quantity %d out of range", quantity))
	}
	p := &products[idx]
	p.Simple.History = append(p.Simple.History, models.StockMovement{
		At:        at,
		Kind:      kind,
		Quantity:  quantity,
		Reference: reference,
	})
	p.Simple.Stock += kind.Sign() * quantity
	metrics.StockMovementsTotal.WithLabelValues(string(kind)).Inc()

	if kind.Sign() < 0 && p.Simple.Stock < 0 {
		out.Oversold = append(out.Oversold, models.OversellSignal{
			ProductID: p.ID,
			Name:      p.Name,
			Stock:     p.Simple.Stock,
		})
	}
}

// Balance recomputes stock from the movement history
func Balance(history []models.StockMovement) int {
	total := 0
	for _, m := range history {
		total += m.Signed()
	}
	return total
}
