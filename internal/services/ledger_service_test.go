package services_test

import (
	"math"
	"testing"

	"delivery-backend/internal/models"
	"delivery-backend/internal/services"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockEqualsSignedSumOfHistory(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Água 500ml", "3.00", 10)

	steps := []struct {
		kind models.MovementKind
		qty  int
	}{
		{models.MovementIn, 5},
		{models.MovementOut, 2},
		{models.MovementSale, 20},
		{models.MovementCancelReturn, 4},
		{models.MovementSale, 1},
		{models.MovementIn, 12},
	}

	products := snap.Products
	for _, s := range steps {
		next, _, err := e.ledger.ApplyMovement(products, p.ID, s.kind, s.qty, "")
		require.NoError(t, err)
		products = next

		got := products[models.ProductIndex(products, p.ID)].Simple
		require.Equal(t, services.Balance(got.History), got.Stock, spew.Sdump(got.History))
	}

	final := products[models.ProductIndex(products, p.ID)].Simple
	assert.Equal(t, 10+5-2-20+4-1+12, final.Stock)
	assert.Len(t, final.History, len(steps)+1)
	assert.Equal(t, models.MovementInitial, final.History[0].Kind)
}

func TestApplyMovementRejectsBadInputWithoutMutation(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, water := e.product(t, models.NewSnapshot(), "Água 500ml", "3.00", 10)
	snap, combo := e.bundle(t, snap, "Fardo", "30.00", models.BundleComponent{ProductID: water.ID, Quantity: 12})
	before := snap.Clone()

	_, _, err := e.ledger.ApplyMovement(snap.Products, water.ID, models.MovementIn, 0, "")
	assert.True(t, models.IsValidation(err))

	_, _, err = e.ledger.ApplyMovement(snap.Products, water.ID, models.MovementIn, -3, "")
	assert.True(t, models.IsValidation(err))

	_, _, err = e.ledger.ApplyMovement(snap.Products, water.ID, models.MovementKind("GIFT"), 1, "")
	assert.True(t, models.IsValidation(err))

	_, _, err = e.ledger.ApplyMovement(snap.Products, combo.ID, models.MovementIn, 1, "")
	assert.True(t, models.IsValidation(err), "bundles carry no stock")

	_, _, err = e.ledger.ApplyMovement(snap.Products, "missing", models.MovementIn, 1, "")
	assert.True(t, models.IsNotFound(err))

	assert.Equal(t, before, snap)
}

func TestApplyMovementDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Suco", "5.00", 3)
	before := snap.Clone()

	next, _, err := e.ledger.ApplyMovement(snap.Products, p.ID, models.MovementOut, 1, "quebra")
	require.NoError(t, err)

	assert.Equal(t, before.Products, snap.Products)
	assert.Equal(t, 2, next[0].Simple.Stock)
	assert.Equal(t, "quebra", next[0].Simple.History[1].Reference)
}

func TestOversellIsReportedNotBlocked(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Gelo", "8.00", 1)

	next, out, err := e.ledger.ApplyMovement(snap.Products, p.ID, models.MovementSale, 3, "")
	require.NoError(t, err)
	assert.Equal(t, -2, next[0].Simple.Stock)
	require.Len(t, out.Oversold, 1)
	assert.Equal(t, models.OversellSignal{ProductID: p.ID, Name: "Gelo", Stock: -2}, out.Oversold[0])

	// returning stock is never an oversell even while still negative
	_, out, err = e.ledger.ApplyMovement(next, p.ID, models.MovementCancelReturn, 1, "")
	require.NoError(t, err)
	assert.Empty(t, out.Oversold)
}

func TestBundleSaleDeductsComponentsAndReverses(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger := e.product(t, models.NewSnapshot(), "Burger", "15.00", 10)
	snap, juice := e.product(t, snap, "Suco", "6.00", 10)
	snap, combo := e.bundle(t, snap, "Combo Lanche", "19.90",
		models.BundleComponent{ProductID: burger.ID, Quantity: 1},
		models.BundleComponent{ProductID: juice.ID, Quantity: 2},
	)

	line := models.LineItem{
		ProductID:  combo.ID,
		Name:       combo.Name,
		Quantity:   3,
		IsBundle:   true,
		Components: combo.Bundle.Components,
	}

	sold, out, err := e.ledger.DeductForSale(snap.Products, line)
	require.NoError(t, err)
	assert.True(t, out.Clean())

	after := &models.Snapshot{Products: sold}
	assert.Equal(t, 7, stockOf(t, after, burger.ID))
	assert.Equal(t, 4, stockOf(t, after, juice.ID))

	last := historyOf(t, after, juice.ID)[1]
	assert.Equal(t, models.MovementSaleCombo, last.Kind)
	assert.Equal(t, 6, last.Quantity)
	assert.Equal(t, "Combo Lanche", last.Reference)

	// the combo itself never gains a stock field
	c, _ := after.ProductByID(combo.ID)
	assert.Nil(t, c.Simple)

	restored, _, err := e.ledger.ReverseForSale(sold, line)
	require.NoError(t, err)
	back := &models.Snapshot{Products: restored}
	for _, id := range []string{burger.ID, juice.ID} {
		assert.Equal(t, stockOf(t, snap, id), stockOf(t, back, id))
		assert.Len(t, historyOf(t, back, id), len(historyOf(t, snap, id))+2)
	}
	rev := historyOf(t, back, burger.ID)
	assert.Equal(t, models.MovementCancelReturn, rev[len(rev)-1].Kind)
	assert.Equal(t, 3, rev[len(rev)-1].Quantity)
}

func TestReverseUsesLineSnapshotNotLiveDefinition(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger := e.product(t, models.NewSnapshot(), "Burger", "15.00", 10)
	snap, juice := e.product(t, snap, "Suco", "6.00", 10)
	snap, combo := e.bundle(t, snap, "Combo", "19.90", models.BundleComponent{ProductID: burger.ID, Quantity: 1})
	snap, c := e.client(t, snap, "João", "Norte")

	snap, order := e.checkout(t, snap, c.ID, item(combo.ID, 2))
	assert.Equal(t, 8, stockOf(t, snap, burger.ID))

	// the combo now uses juice instead of burger
	snap, _, err := e.catalog.UpdateProduct(snap, combo.ID, models.UpdateProductRequest{
		Name:       "Combo",
		Price:      money("19.90"),
		ComboItems: []models.BundleComponent{{ProductID: juice.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	snap, _, err = e.orders.Cancel(snap, order.ID, services.AutoConfirm(true))
	require.NoError(t, err)
	assert.Equal(t, 10, stockOf(t, snap, burger.ID))
	assert.Equal(t, 10, stockOf(t, snap, juice.ID))
	assert.Len(t, historyOf(t, snap, juice.ID), 1)
}

func TestMissingComponentIsSkipped(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger := e.product(t, models.NewSnapshot(), "Burger", "15.00", 10)

	line := models.LineItem{
		ProductID: "combo",
		Name:      "Combo",
		Quantity:  1,
		IsBundle:  true,
		Components: []models.BundleComponent{
			{ProductID: burger.ID, Quantity: 1},
			{ProductID: "gone", Quantity: 1},
		},
	}
	next, out, err := e.ledger.DeductForSale(snap.Products, line)
	require.NoError(t, err)
	assert.Equal(t, 9, stockOf(t, &models.Snapshot{Products: next}, burger.ID))
	require.Len(t, out.Skipped, 1)
	assert.Equal(t, "gone", out.Skipped[0].ID)
}

func TestDeductLinesIsAllOrNothing(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Burger", "15.00", 10)

	lines := []models.LineItem{
		{ProductID: p.ID, Name: "Burger", Quantity: 1},
		{ProductID: p.ID, Name: "Burger", Quantity: 0},
	}
	next, _, err := e.ledger.DeductLines(snap.Products, lines)
	assert.True(t, models.IsValidation(err))
	assert.Equal(t, snap.Products, next)
	assert.Equal(t, 10, stockOf(t, snap, p.ID))
}

func TestOversizedQuantitiesAreRejected(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, burger := e.product(t, models.NewSnapshot(), "Burger", "15.00", 5)
	before := snap.Clone()

	_, _, err := e.ledger.ApplyMovement(snap.Products, burger.ID, models.MovementIn, models.MaxMovementQuantity+1, "")
	assert.True(t, models.IsValidation(err))

	lines := map[string]models.LineItem{
		"huge simple line": {ProductID: burger.ID, Name: "Burger", Quantity: math.MaxInt64/2 + 1},
		"wraps to negative": {
			ProductID: "combo", Name: "Combo", Quantity: math.MaxInt64/2 + 1, IsBundle: true,
			Components: []models.BundleComponent{{ProductID: burger.ID, Quantity: 2}},
		},
		"wraps to zero": {
			ProductID: "combo", Name: "Combo", Quantity: math.MaxInt64/4 + 1, IsBundle: true,
			Components: []models.BundleComponent{{ProductID: burger.ID, Quantity: 4}},
		},
		"product past bound": {
			ProductID: "combo", Name: "Combo", Quantity: models.MaxMovementQuantity/2 + 1, IsBundle: true,
			Components: []models.BundleComponent{{ProductID: burger.ID, Quantity: 2}},
		},
	}
	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			next, out, err := e.ledger.DeductForSale(snap.Products, line)
			assert.True(t, models.IsValidation(err), "%v", err)
			assert.Empty(t, out.Oversold)
			assert.Equal(t, before.Products, next)
		})
	}
	assert.Equal(t, 5, stockOf(t, snap, burger.ID))

	// the largest expansion that fits is still accepted as one positive movement
	ok := models.LineItem{
		ProductID: "combo", Name: "Combo", Quantity: models.MaxMovementQuantity / 2, IsBundle: true,
		Components: []models.BundleComponent{{ProductID: burger.ID, Quantity: 2}},
	}
	next, _, err := e.ledger.DeductForSale(snap.Products, ok)
	require.NoError(t, err)
	h := historyOf(t, &models.Snapshot{Products: next}, burger.ID)
	assert.Positive(t, h[len(h)-1].Quantity)
	assert.Equal(t, services.Balance(h), stockOf(t, &models.Snapshot{Products: next}, burger.ID))
}
