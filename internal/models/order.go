package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment stage of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"    // Pendente
	OrderAssembling OrderStatus = "assembling" // Montagem
	OrderOnRoute    OrderStatus = "on_route"   // Rota
	OrderDelivered  OrderStatus = "delivered"  // Entregue
)

// Next returns the status reached by one advance step. ok is false when the
// status cannot be advanced (OnRoute is closed by delivery, Delivered is terminal).
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case OrderPending:
		return OrderAssembling, true
	case OrderAssembling:
		return OrderOnRoute, true
	}
	return s, false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered
}

// Cancellable reports whether an order in this status may be cancelled
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderAssembling || s == OrderOnRoute
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAssembling, OrderOnRoute, OrderDelivered:
		return true
	}
	return false
}

// Payment methods accepted at checkout
const (
	PaymentPix  = "pix"
	PaymentCash = "cash"
	PaymentCard = "card"
)

func ValidPaymentMethod(m string) bool {
	return m == PaymentPix || m == PaymentCash || m == PaymentCard
}

// LineItem is a sold product frozen at sale time. Bundle lines keep the
// component list they were sold with so cancellation never reads the live catalog.
type LineItem struct {
	ProductID     string            `json:"product_id"`
	Name          string            `json:"name"`
	Category      string            `json:"category"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	OriginalPrice decimal.Decimal   `json:"original_price"`
	Quantity      int               `json:"quantity"`
	IsBundle      bool              `json:"is_bundle"`
	Components    []BundleComponent `json:"components,omitempty"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PriceOverridden reports whether the operator changed the price at the cart
func (l LineItem) PriceOverridden() bool {
	return !l.UnitPrice.Equal(l.OriginalPrice)
}

type Order struct {
	ID            string           `json:"id"`
	ClientID      string           `json:"client_id"`
	Items         []LineItem       `json:"items"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discount      decimal.Decimal  `json:"discount"`
	Total         decimal.Decimal  `json:"total"`
	PaymentMethod string           `json:"payment_method"`
	ChangeFor     *decimal.Decimal `json:"change_for,omitempty"`
	Note          string           `json:"note,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Status        OrderStatus      `json:"status"`
	PrintedLabel  bool             `json:"printed_label"`
	PrintedList   bool             `json:"printed_list"`
}

// Change returns the change due to the customer when a cash basis was recorded
func (o Order) Change() (decimal.Decimal, bool) {
	if o.ChangeFor == nil {
		return decimal.Zero, false
	}
	return o.ChangeFor.Sub(o.Total), true
}

// ShortID is the compact id printed on labels
func (o Order) ShortID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// Clone copies the order including its line items
func (o Order) Clone() Order {
	c := o
	c.Items = make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		it.Components = append([]BundleComponent(nil), it.Components...)
		c.Items[i] = it
	}
	if o.ChangeFor != nil {
		v := *o.ChangeFor
		c.ChangeFor = &v
	}
	return c
}

// PrintFlag names one of the two print acknowledgement flags
type PrintFlag string

const (
	PrintFlagLabel PrintFlag = "label"
	PrintFlagList  PrintFlag = "list"
)

// CartItem is one cart entry at checkout. UnitPrice overrides the catalog price when set.
type CartItem struct {
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CheckoutRequest represents the request body for closing a sale
type CheckoutRequest struct {
	ClientID      string           `json:"client_id"`
	Items         []CartItem       `json:"items"`
	PaymentMethod string           `json:"payment_method"`
	ChangeFor     *decimal.Decimal `json:"change_for,omitempty"`
	Discount      decimal.Decimal  `json:"discount"`
	Note          string           `json:"note"`
}

// CartWarning is returned when a product is added to the cart without stock
type CartWarning struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Message   string `json:"message"`
}
