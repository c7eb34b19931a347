package services_test

import (
	"fmt"
	"testing"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/internal/timeutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one minute per call
func stepClock() func() time.Time {
	t := time.Date(2025, 3, 4, 9, 0, 0, 0, timeutil.Local)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

type env struct {
	ledger  *services.LedgerService
	catalog *services.CatalogService
	orders  *services.OrderService
	routes  *services.RouteService
}

func newEnv() *env {
	clock := stepClock()
	ledger := &services.LedgerService{Now: clock}
	return &env{
		ledger:  ledger,
		catalog: &services.CatalogService{Ledger: ledger, Now: clock, NewID: seqIDs("id")},
		orders:  &services.OrderService{Ledger: ledger, Now: clock, NewID: seqIDs("order")},
		routes:  services.NewRouteService(),
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (e *env) product(t *testing.T, snap *models.Snapshot, name, price string, stock int) (*models.Snapshot, models.Product) {
	t.Helper()
	next, p, err := e.catalog.RegisterProduct(snap, models.CreateProductRequest{
		Name:         name,
		Price:        money(price),
		InitialStock: stock,
	})
	require.NoError(t, err)
	return next, p
}

func (e *env) bundle(t *testing.T, snap *models.Snapshot, name, price string, items ...models.BundleComponent) (*models.Snapshot, models.Product) {
	t.Helper()
	next, p, err := e.catalog.RegisterProduct(snap, models.CreateProductRequest{
		Name:       name,
		Price:      money(price),
		IsCombo:    true,
		ComboItems: items,
	})
	require.NoError(t, err)
	return next, p
}

func (e *env) client(t *testing.T, snap *models.Snapshot, name, route string) (*models.Snapshot, models.Client) {
	t.Helper()
	next, c, err := e.catalog.RegisterClient(snap, models.CreateClientRequest{
		Name:     name,
		Phone:    "(65) 99999-0000",
		Address:  "Rua " + name + ", 10",
		District: "Centro",
		Route:    route,
	})
	require.NoError(t, err)
	return next, c
}

func (e *env) checkout(t *testing.T, snap *models.Snapshot, clientID string, items ...models.CartItem) (*models.Snapshot, models.Order) {
	t.Helper()
	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID:      clientID,
		Items:         items,
		PaymentMethod: models.PaymentPix,
	})
	require.NoError(t, err)
	return res.Snapshot, res.Order
}

// toOnRoute advances a fresh order twice
func (e *env) toOnRoute(t *testing.T, snap *models.Snapshot, orderID string) *models.Snapshot {
	t.Helper()
	for i := 0; i < 2; i++ {
		next, _, err := e.orders.Advance(snap, orderID)
		require.NoError(t, err)
		snap = next
	}
	return snap
}

func stockOf(t *testing.T, snap *models.Snapshot, id string) int {
	t.Helper()
	p, ok := snap.ProductByID(id)
	require.True(t, ok, "product %s missing", id)
	stock, simple := p.Stock()
	require.True(t, simple, "product %s is a bundle", id)
	return stock
}

func historyOf(t *testing.T, snap *models.Snapshot, id string) []models.StockMovement {
	t.Helper()
	p, ok := snap.ProductByID(id)
	require.True(t, ok)
	require.NotNil(t, p.Simple)
	return p.Simple.History
}

func item(productID string, qty int) models.CartItem {
	return models.CartItem{ProductID: productID, Quantity: qty}
}
