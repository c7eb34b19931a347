package services

import (
	"fmt"
	"sort"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutResult is the outcome of closing a sale
type CheckoutResult struct {
	Snapshot *models.Snapshot
	Order    models.Order
	Outcome  LedgerOutcome
}

// CancelPlan is the computed, not yet applied, cancellation of an order
type CancelPlan struct {
	Order  models.Order
	Prompt string
}

// OrderService drives the order lifecycle. Stock effects go through the ledger;
// every method returns a new snapshot and leaves its input untouched.
type OrderService struct {
	Ledger *LedgerService
	Now    func() time.Time
	NewID  func() string
}

// NewOrderService creates the order service. Stock effects go through ledger.
func NewOrderService(ledger *LedgerService) *OrderService {
	return &OrderService{
		Ledger: ledger,
		Now:    timeutil.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// CreateOrder validates the cart, snapshots every line and deducts stock.
// Nothing is touched unless all validation passes.
func (s *OrderService) CreateOrder(snap *models.Snapshot, req models.CheckoutRequest) (*CheckoutResult, error) {
	if req.ClientID == "" {
		return nil, models.NewValidationError("client_id", "pick a client before closing the sale")
	}
	if _, ok := snap.ClientByID(req.ClientID); !ok {
		return nil, models.NewValidationError("client_id", "the selected client no longer exists, pick another one")
	}
	if len(req.Items) == 0 {
		return nil, models.NewValidationError("items", "the cart is empty, add at least one product")
	}

	payment := req.PaymentMethod
	if payment == "" {
		payment = models.PaymentPix
	}
	if !models.ValidPaymentMethod(payment) {
		return nil, models.NewValidationError("payment_method", "choose pix, cash or card")
	}
	if req.Discount.IsNegative() {
		return nil, models.NewValidationError("discount", "discount cannot be negative")
	}

	var (
		lines    []models.LineItem
		outcome  LedgerOutcome
		subtotal = decimal.Zero
	)
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, models.NewValidationError("quantity", "fix the quantity, it must be at least 1")
		}
		if item.Quantity > models.MaxMovementQuantity {
			return nil, models.NewValidationError("quantity", "fix the quantity, it is too large")
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, models.NewValidationError("unit_price", "price cannot be negative")
		}

		p, ok := snap.ProductByID(item.ProductID)
		if !ok {
			outcome.Skipped = append(outcome.Skipped, models.NotFoundError{Entity: "product", ID: item.ProductID})
			continue
		}

		line := models.LineItem{
			ProductID:     p.ID,
			Name:          p.Name,
			Category:      p.Category,
			UnitPrice:     p.Price,
			OriginalPrice: p.Price,
			Quantity:      item.Quantity,
			IsBundle:      p.IsBundle(),
		}
		if item.UnitPrice != nil {
			line.UnitPrice = *item.UnitPrice
		}
		if p.IsBundle() {
			line.Components = append([]models.BundleComponent(nil), p.Bundle.Components...)
		}
		lines = append(lines, line)
		subtotal = subtotal.Add(line.LineTotal())
	}

	if len(lines) == 0 {
		return nil, models.NewValidationError("items", "none of the cart products exist anymore, rebuild the cart")
	}
	if req.Discount.GreaterThan(subtotal) {
		return nil, models.NewValidationError("discount", "discount cannot exceed the subtotal")
	}
	total := subtotal.Sub(req.Discount)

	var changeFor *decimal.Decimal
	if payment == models.PaymentCash && req.ChangeFor != nil && !req.ChangeFor.IsZero() {
		if req.ChangeFor.LessThan(total) {
			return nil, models.NewValidationError("change_for", "cash received is less than the total")
		}
		v := *req.ChangeFor
		changeFor = &v
	}

	products, ledgerOut, err := s.Ledger.DeductLines(snap.Products, lines)
	if err != nil {
		return nil, err
	}
	outcome.merge(ledgerOut)

	order := models.Order{
		ID:            s.NewID(),
		ClientID:      req.ClientID,
		Items:         lines,
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Total:         total,
		PaymentMethod: payment,
		ChangeFor:     changeFor,
		Note:          req.Note,
		CreatedAt:     s.Now(),
		Status:        models.OrderPending,
	}

	next := snap.Clone()
	next.Products = products
	next.Orders = append(next.Orders, order.Clone())
	return &CheckoutResult{Snapshot: next, Order: order, Outcome: outcome}, nil
}

// Advance moves an order one stage forward: Pending to Assembling to OnRoute
func (s *OrderService) Advance(snap *models.Snapshot, orderID string) (*models.Snapshot, models.Order, error) {
	return s.transition(snap, orderID, "advance", func(o models.Order) (models.OrderStatus, bool) {
		return o.Status.Next()
	})
}

// Deliver closes an order that is on route
func (s *OrderService) Deliver(snap *models.Snapshot, orderID string) (*models.Snapshot, models.Order, error) {
	return s.transition(snap, orderID, "deliver", onRouteToDelivered)
}

// ForceDeliver marks an OnRoute order delivered without route confirmation.
// The stock effect already happened at checkout.
func (s *OrderService) ForceDeliver(snap *models.Snapshot, orderID string, confirmer Confirmer) (*models.Snapshot, models.Order, error) {
	o, ok := snap.OrderByID(orderID)
	if !ok {
		return nil, models.Order{}, &models.NotFoundError{Entity: "order", ID: orderID}
	}
	if o.Status != models.OrderOnRoute {
		return nil, models.Order{}, &models.TransitionError{OrderID: orderID, From: o.Status, Action: "force-deliver"}
	}
	prompt := fmt.Sprintf("Mark order %s as delivered without route confirmation?", o.ShortID())
	if !confirmer.Confirm(prompt) {
		return nil, models.Order{}, &models.ConfirmationError{Prompt: prompt}
	}
	return s.transition(snap, orderID, "force-deliver", onRouteToDelivered)
}

func onRouteToDelivered(o models.Order) (models.OrderStatus, bool) {
	if o.Status != models.OrderOnRoute {
		return o.Status, false
	}
	return models.OrderDelivered, true
}

func (s *OrderService) transition(snap *models.Snapshot, orderID, action string, next func(models.Order) (models.OrderStatus, bool)) (*models.Snapshot, models.Order, error) {
	idx := snap.OrderIndex(orderID)
	if idx < 0 {
		return nil, models.Order{}, &models.NotFoundError{Entity: "order", ID: orderID}
	}
	current := snap.Orders[idx]
	to, ok := next(current)
	if !ok {
		return nil, models.Order{}, &models.TransitionError{OrderID: orderID, From: current.Status, Action: action}
	}

	out := snap.Clone()
	out.Orders[idx].Status = to
	return out, out.Orders[idx].Clone(), nil
}

// PlanCancel checks that an order may be cancelled and builds the confirmation prompt
func (s *OrderService) PlanCancel(snap *models.Snapshot, orderID string) (*CancelPlan, error) {
	o, ok := snap.OrderByID(orderID)
	if !ok {
		return nil, &models.NotFoundError{Entity: "order", ID: orderID}
	}
	if !o.Status.Cancellable() {
		return nil, &models.TransitionError{OrderID: orderID, From: o.Status, Action: "cancel"}
	}
	return &CancelPlan{
		Order:  o.Clone(),
		Prompt: fmt.Sprintf("Cancel order %s and return its items to stock?", o.ShortID()),
	}, nil
}

// ApplyCancel returns the stock of every line of the planned order and removes it
func (s *OrderService) ApplyCancel(snap *models.Snapshot, plan *CancelPlan) (*models.Snapshot, LedgerOutcome, error) {
	idx := snap.OrderIndex(plan.Order.ID)
	if idx < 0 {
		return nil, LedgerOutcome{}, &models.NotFoundError{Entity: "order", ID: plan.Order.ID}
	}
	current := snap.Orders[idx]
	if !current.Status.Cancellable() {
		return nil, LedgerOutcome{}, &models.TransitionError{OrderID: current.ID, From: current.Status, Action: "cancel"}
	}

	products, outcome, err := s.Ledger.ReverseLines(snap.Products, current.Items)
	if err != nil {
		return nil, LedgerOutcome{}, err
	}

	out := snap.Clone()
	out.Products = products
	out.Orders = append(out.Orders[:idx], out.Orders[idx+1:]...)
	return out, outcome, nil
}

// Cancel runs plan, confirmation and apply. A declined prompt changes nothing.
func (s *OrderService) Cancel(snap *models.Snapshot, orderID string, confirmer Confirmer) (*models.Snapshot, LedgerOutcome, error) {
	plan, err := s.PlanCancel(snap, orderID)
	if err != nil {
		return nil, LedgerOutcome{}, err
	}
	if !confirmer.Confirm(plan.Prompt) {
		return nil, LedgerOutcome{}, &models.ConfirmationError{Prompt: plan.Prompt}
	}
	return s.ApplyCancel(snap, plan)
}

// TogglePrintFlag flips the label or picking list flag
func (s *OrderService) TogglePrintFlag(snap *models.Snapshot, orderID string, which models.PrintFlag) (*models.Snapshot, models.Order, error) {
	if which != models.PrintFlagLabel && which != models.PrintFlagList {
		return nil, models.Order{}, models.NewValidationError("flag", "use label or list")
	}
	idx := snap.OrderIndex(orderID)
	if idx < 0 {
		return nil, models.Order{}, &models.NotFoundError{Entity: "order", ID: orderID}
	}

	out := snap.Clone()
	o := &out.Orders[idx]
	if which == models.PrintFlagLabel {
		o.PrintedLabel = !o.PrintedLabel
	} else {
		o.PrintedList = !o.PrintedList
	}
	return out, o.Clone(), nil
}

// ActiveOrders lists every order not yet delivered, oldest first
func (s *OrderService) ActiveOrders(snap *models.Snapshot) []models.Order {
	return filterOrders(snap, func(o models.Order) bool { return !o.Status.Terminal() })
}

// OrdersByStatus lists orders in one status, oldest first
func (s *OrderService) OrdersByStatus(snap *models.Snapshot, status models.OrderStatus) []models.Order {
	return filterOrders(snap, func(o models.Order) bool { return o.Status == status })
}

func filterOrders(snap *models.Snapshot, keep func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range snap.Orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	sortChronological(out)
	return out
}

func sortChronological(orders []models.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}
