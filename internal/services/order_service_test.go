package services_test

import (
	"testing"

	"delivery-backend/internal/models"
	"delivery-backend/internal/services"

	"github.com/davecgh/go-spew/spew"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedShop(t *testing.T, e *env) (*models.Snapshot, models.Product, models.Product, models.Client) {
	t.Helper()
	snap, burger := e.product(t, models.NewSnapshot(), "Burger", "15.00", 10)
	snap, juice := e.product(t, snap, "Suco", "6.00", 10)
	snap, c := e.client(t, snap, "Maria", "Norte")
	return snap, burger, juice, c
}

func TestCheckoutSnapshotsLinesAndDeductsStock(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, juice, c := seedShop(t, e)
	snap, combo := e.bundle(t, snap, "Combo", "19.90",
		models.BundleComponent{ProductID: burger.ID, Quantity: 1},
		models.BundleComponent{ProductID: juice.ID, Quantity: 1},
	)

	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID: c.ID,
		Items:    []models.CartItem{item(burger.ID, 2), item(combo.ID, 1)},
		Discount: money("4.90"),
		Note:     "sem cebola",
	})
	require.NoError(t, err)
	assert.True(t, res.Outcome.Clean())

	o := res.Order
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentPix, o.PaymentMethod, "payment defaults to pix")
	assert.True(t, o.Subtotal.Equal(money("49.90")), o.Subtotal.String())
	assert.True(t, o.Total.Equal(money("45.00")), o.Total.String())
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[1].IsBundle)
	assert.Len(t, o.Items[1].Components, 2)

	assert.Equal(t, 7, stockOf(t, res.Snapshot, burger.ID))
	assert.Equal(t, 9, stockOf(t, res.Snapshot, juice.ID))
	assert.Equal(t, 10, stockOf(t, snap, burger.ID), "input snapshot untouched")
}

func TestCheckoutLineSnapshotSurvivesCatalogEdits(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 1))

	snap, _, err := e.catalog.UpdateProduct(snap, burger.ID, models.UpdateProductRequest{
		Name:  "Burger Duplo",
		Price: money("22.00"),
	})
	require.NoError(t, err)
	snap, err = e.catalog.DeleteProduct(snap, burger.ID, services.AutoConfirm(true))
	require.NoError(t, err)

	stored, ok := snap.OrderByID(order.ID)
	require.True(t, ok)
	assert.Equal(t, "Burger", stored.Items[0].Name)
	assert.True(t, stored.Items[0].UnitPrice.Equal(money("15.00")))
	assert.True(t, stored.Total.Equal(order.Total))
}

func TestCheckoutValidationLeavesSnapshotUnchanged(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	before := snap.Clone()
	negative := money("-1")
	tooLow := money("10")

	cases := []struct {
		name  string
		req   models.CheckoutRequest
		field string
	}{
		{"no client", models.CheckoutRequest{Items: []models.CartItem{item(burger.ID, 1)}}, "client_id"},
		{"unknown client", models.CheckoutRequest{ClientID: "ghost", Items: []models.CartItem{item(burger.ID, 1)}}, "client_id"},
		{"empty cart", models.CheckoutRequest{ClientID: c.ID}, "items"},
		{"bad payment", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item(burger.ID, 1)}, PaymentMethod: "boleto"}, "payment_method"},
		{"negative discount", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item(burger.ID, 1)}, Discount: money("-2")}, "discount"},
		{"zero quantity", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item(burger.ID, 0)}}, "quantity"},
		{"negative price", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{{ProductID: burger.ID, Quantity: 1, UnitPrice: &negative}}}, "unit_price"},
		{"all products gone", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item("gone", 1)}}, "items"},
		{"discount over subtotal", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item(burger.ID, 1)}, Discount: money("15.01")}, "discount"},
		{"cash below total", models.CheckoutRequest{ClientID: c.ID, Items: []models.CartItem{item(burger.ID, 1)}, PaymentMethod: models.PaymentCash, ChangeFor: &tooLow}, "change_for"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.orders.CreateOrder(snap, tc.req)
			require.Error(t, err)
			assert.Nil(t, res)

			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Equal(t, before, snap, spew.Sdump(snap.Products))
}

func TestCheckoutSkipsUnknownProducts(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)

	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID: c.ID,
		Items:    []models.CartItem{item(burger.ID, 1), item("gone", 3)},
	})
	require.NoError(t, err)
	assert.Len(t, res.Order.Items, 1)
	require.Len(t, res.Outcome.Skipped, 1)
	assert.Equal(t, "gone", res.Outcome.Skipped[0].ID)
}

func TestCheckoutPriceOverride(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	promo := money("12.50")

	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID: c.ID,
		Items:    []models.CartItem{{ProductID: burger.ID, Quantity: 2, UnitPrice: &promo}},
	})
	require.NoError(t, err)
	line := res.Order.Items[0]
	assert.True(t, line.PriceOverridden())
	assert.True(t, line.OriginalPrice.Equal(money("15.00")))
	assert.True(t, res.Order.Total.Equal(money("25.00")))
}

func TestCheckoutCashChange(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	fifty := money("50")

	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID:      c.ID,
		Items:         []models.CartItem{item(burger.ID, 2)},
		PaymentMethod: models.PaymentCash,
		ChangeFor:     &fifty,
	})
	require.NoError(t, err)
	change, ok := res.Order.Change()
	require.True(t, ok)
	assert.True(t, change.Equal(money("20")), change.String())

	// change basis is dropped for non-cash payments
	res, err = e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID:      c.ID,
		Items:         []models.CartItem{item(burger.ID, 2)},
		PaymentMethod: models.PaymentCard,
		ChangeFor:     &fifty,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Order.ChangeFor)
	_, ok = res.Order.Change()
	assert.False(t, ok)
}

func TestOrderLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 1))

	_, _, err := e.orders.Deliver(snap, order.ID)
	assert.True(t, models.IsTransition(err), "pending orders cannot be delivered")

	want := []models.OrderStatus{models.OrderAssembling, models.OrderOnRoute}
	for _, status := range want {
		next, o, err := e.orders.Advance(snap, order.ID)
		require.NoError(t, err)
		assert.Equal(t, status, o.Status)
		snap = next
	}

	_, _, err = e.orders.Advance(snap, order.ID)
	assert.True(t, models.IsTransition(err), "advance stops at on_route")

	snap, o, err := e.orders.Deliver(snap, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, o.Status)

	_, _, err = e.orders.Cancel(snap, order.ID, services.AutoConfirm(true))
	assert.True(t, models.IsTransition(err), "delivered orders cannot be cancelled")

	_, _, err = e.orders.Advance(snap, "missing")
	assert.True(t, models.IsNotFound(err))
}

func TestDeliveryDoesNotTouchStock(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 3))
	snap = e.toOnRoute(t, snap, order.ID)
	historyLen := len(historyOf(t, snap, burger.ID))

	snap, _, err := e.orders.Deliver(snap, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stockOf(t, snap, burger.ID))
	assert.Len(t, historyOf(t, snap, burger.ID), historyLen)
}

func TestForceDeliverRequiresConfirmation(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 1))

	_, _, err := e.orders.ForceDeliver(snap, order.ID, services.AutoConfirm(true))
	assert.True(t, models.IsTransition(err), "only on_route orders")

	snap = e.toOnRoute(t, snap, order.ID)

	var asked string
	_, _, err = e.orders.ForceDeliver(snap, order.ID, services.ConfirmFunc(func(p string) bool {
		asked = p
		return false
	}))
	assert.ErrorIs(t, err, models.ErrConfirmationRequired)
	assert.Contains(t, asked, order.ShortID())

	next, o, err := e.orders.ForceDeliver(snap, order.ID, services.AutoConfirm(true))
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, o.Status)
	assert.Equal(t, stockOf(t, snap, burger.ID), stockOf(t, next, burger.ID))
}

func TestCancelRestoresStockAndRemovesOrder(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, juice, c := seedShop(t, e)
	before := snap.Clone()
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 2), item(juice.ID, 4))
	snap = e.toOnRoute(t, snap, order.ID)

	snap, out, err := e.orders.Cancel(snap, order.ID, services.AutoConfirm(true))
	require.NoError(t, err)
	assert.True(t, out.Clean())

	_, ok := snap.OrderByID(order.ID)
	assert.False(t, ok)
	for _, id := range []string{burger.ID, juice.ID} {
		assert.Equal(t, stockOf(t, before, id), stockOf(t, snap, id))
		h := historyOf(t, snap, id)
		assert.Equal(t, models.MovementCancelReturn, h[len(h)-1].Kind)
	}
}

func TestDeclinedCancelChangesNothing(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 2))
	before := snap.Clone()

	next, _, err := e.orders.Cancel(snap, order.ID, services.AutoConfirm(false))
	assert.Nil(t, next)
	var cerr *models.ConfirmationError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Prompt, order.ShortID())
	assert.Equal(t, before, snap)
}

func TestPlanThenApplyCancel(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 2))

	plan, err := e.orders.PlanCancel(snap, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, plan.Order.ID)

	// the order was delivered between planning and applying
	delivered := e.toOnRoute(t, snap, order.ID)
	delivered, _, err = e.orders.Deliver(delivered, order.ID)
	require.NoError(t, err)
	_, _, err = e.orders.ApplyCancel(delivered, plan)
	assert.True(t, models.IsTransition(err))

	next, _, err := e.orders.ApplyCancel(snap, plan)
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, next, burger.ID))
}

func TestTogglePrintFlag(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, order := e.checkout(t, snap, c.ID, item(burger.ID, 1))

	snap, o, err := e.orders.TogglePrintFlag(snap, order.ID, models.PrintFlagLabel)
	require.NoError(t, err)
	assert.True(t, o.PrintedLabel)
	assert.False(t, o.PrintedList)

	snap, o, err = e.orders.TogglePrintFlag(snap, order.ID, models.PrintFlagList)
	require.NoError(t, err)
	assert.True(t, o.PrintedList)

	_, o, err = e.orders.TogglePrintFlag(snap, order.ID, models.PrintFlagLabel)
	require.NoError(t, err)
	assert.False(t, o.PrintedLabel)

	_, _, err = e.orders.TogglePrintFlag(snap, order.ID, models.PrintFlag("receipt"))
	assert.True(t, models.IsValidation(err))
}

func TestActiveOrdersAreChronological(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, first := e.checkout(t, snap, c.ID, item(burger.ID, 1))
	snap, second := e.checkout(t, snap, c.ID, item(burger.ID, 1))
	snap, third := e.checkout(t, snap, c.ID, item(burger.ID, 1))
	snap = e.toOnRoute(t, snap, second.ID)
	snap, _, err := e.orders.Deliver(snap, second.ID)
	require.NoError(t, err)

	active := e.orders.ActiveOrders(snap)
	require.Len(t, active, 2)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, third.ID, active[1].ID)

	delivered := e.orders.OrdersByStatus(snap, models.OrderDelivered)
	require.Len(t, delivered, 1)
	assert.Equal(t, second.ID, delivered[0].ID)
}

func TestOrderTotalsAreExact(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Bala", "0.10", 100)
	snap, c := e.client(t, snap, "Ana", "")

	_, order := e.checkout(t, snap, c.ID, item(p.ID, 3))
	assert.True(t, order.Total.Equal(decimal.RequireFromString("0.30")), order.Total.String())
}

func TestCheckoutRejectsOversizedBundleQuantity(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger, _, c := seedShop(t, e)
	snap, combo := e.bundle(t, snap, "Combo", "19.90", models.BundleComponent{ProductID: burger.ID, Quantity: 2})
	before := snap.Clone()

	for _, qty := range []int{models.MaxMovementQuantity + 1, models.MaxMovementQuantity/2 + 1} {
		res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
			ClientID: c.ID,
			Items:    []models.CartItem{item(combo.ID, qty)},
		})
		assert.Nil(t, res)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, "quantity %d", qty)
		assert.Equal(t, "quantity", verr.Field)
	}
	assert.Equal(t, before, snap)
}
