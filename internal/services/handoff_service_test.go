package services_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandoff() *services.HandoffService {
	h := services.NewHandoffService("test-secret", "delivery-test")
	h.Now = func() time.Time { return time.Date(2025, 3, 4, 18, 30, 0, 0, time.UTC) }
	return h
}

func TestHandoffRoundTrip(t *testing.T) {
	t.Parallel()
	e := newEnv()
	snap, p := e.product(t, models.NewSnapshot(), "Água 500ml", "3.50", 20)
	snap, c := e.client(t, snap, "José", "Norte")
	hundred := money("100")

	res, err := e.orders.CreateOrder(snap, models.CheckoutRequest{
		ClientID:      c.ID,
		Items:         []models.CartItem{item(p.ID, 4)},
		PaymentMethod: models.PaymentCash,
		ChangeFor:     &hundred,
		Note:          "portão azul",
	})
	require.NoError(t, err)
	snap = e.toOnRoute(t, res.Snapshot, res.Order.ID)
	snap, plain := e.checkout(t, snap, c.ID, item(p.ID, 1))
	snap = e.toOnRoute(t, snap, plain.ID)

	sequence := e.routes.ListReady(snap, "Norte")
	h := newHandoff()
	token, sent, err := h.Encode("Norte", "65999990000", sequence, snap.ClientByID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// the client moves and the product is renamed after the link was issued
	snap, _, err = e.catalog.UpdateClient(snap, c.ID, models.UpdateClientRequest{
		Name:    "José Carlos",
		Address: "Av. Nova, 99",
		Route:   "Sul",
	})
	require.NoError(t, err)
	snap, _, err = e.catalog.UpdateProduct(snap, p.ID, models.UpdateProductRequest{
		Name:  "Água 1L",
		Price: money("5.00"),
	})
	require.NoError(t, err)
	moved, _ := snap.ClientByID(c.ID)
	require.Equal(t, "José Carlos", moved.Name)

	got, err := h.Decode(token)
	require.NoError(t, err)

	assert.Equal(t, models.HandoffSchemaVersion, got.Version)
	assert.Equal(t, "Norte", got.Route)
	assert.Equal(t, "65999990000", got.CompanyPhone)
	assert.True(t, got.GeneratedAt.Equal(sent.GeneratedAt))
	require.Len(t, got.Orders, 2)

	for i, want := range sent.Orders {
		have := got.Orders[i]
		assert.Equal(t, want.ID, have.ID)
		assert.Equal(t, want.Customer, have.Customer)
		assert.Equal(t, want.Address, have.Address)
		assert.Equal(t, want.Items, have.Items)
		assert.True(t, want.Total.Equal(have.Total), "%s != %s", want.Total, have.Total)
	}

	first := got.Orders[0]
	assert.Equal(t, "José", first.Customer)
	assert.Equal(t, "Rua José, 10", first.Address)
	assert.Equal(t, []string{"4x Água 500ml"}, first.Items)
	assert.True(t, first.Total.Equal(money("14.00")))
	assert.Equal(t, "portão azul", first.Note)
	require.NotNil(t, first.Change)
	assert.True(t, first.Change.Equal(money("86")), first.Change.String())
	assert.True(t, first.ChangeFor.Equal(hundred))
	assert.Nil(t, got.Orders[1].Change)
}

func TestHandoffDecodeAcceptsFragment(t *testing.T) {
	t.Parallel()
	h := newHandoff()
	order := models.Order{ID: "o-1", Total: money("10"), Items: []models.LineItem{{Name: "Gelo", Quantity: 2}}}
	token, _, err := h.Encode("all", "", []models.Order{order}, nil)
	require.NoError(t, err)

	link := services.DriverLink("https://loja.example.com/", token)
	assert.Equal(t, "https://loja.example.com/driver#driver="+token, link)

	got, err := h.Decode(link[strings.Index(link, "#"):])
	require.NoError(t, err)
	assert.Equal(t, []string{"2x Gelo"}, got.Orders[0].Items)
	assert.Empty(t, got.Orders[0].Customer, "no lookup leaves client fields empty")
}

func TestHandoffRejectsMalformedTokens(t *testing.T) {
	t.Parallel()
	h := newHandoff()
	order := models.Order{ID: "o-1", Total: money("10")}
	token, _, err := h.Encode("Sul", "", []models.Order{order}, nil)
	require.NoError(t, err)

	foreign, _, err := services.NewHandoffService("other-secret", "x").Encode("Sul", "", []models.Order{order}, nil)
	require.NoError(t, err)

	future := jwt.NewWithClaims(jwt.SigningMethodHS256, &services.HandoffClaims{
		Payload: models.HandoffPayload{Version: models.HandoffSchemaVersion + 1, Route: "Sul"},
	})
	futureToken, err := future.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &services.HandoffClaims{
		Payload: models.HandoffPayload{Version: models.HandoffSchemaVersion},
	})
	noneToken, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"d":{"v":1,"route":"Norte"}}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	for name, tok := range map[string]string{
		"empty":         "",
		"garbage":       "not-a-token",
		"truncated":     token[:len(token)/2],
		"tampered":      tampered,
		"wrong secret":  foreign,
		"wrong version": futureToken,
		"alg none":      noneToken,
	} {
		t.Run(name, func(t *testing.T) {
			got, err := h.Decode(tok)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, models.ErrMalformedHandoff)
			assert.True(t, services.IsMalformedHandoff(err))
		})
	}
}

func TestHandoffEmptyRoute(t *testing.T) {
	t.Parallel()
	_, _, err := newHandoff().Encode("Norte", "", nil, nil)
	assert.True(t, models.IsValidation(err))
}

func TestHandoffMissingClientLeavesFieldsEmpty(t *testing.T) {
	t.Parallel()
	h := newHandoff()
	lookup := func(string) (models.Client, bool) { return models.Client{}, false }
	_, payload, err := h.Encode("all", "", []models.Order{{ID: "o-9", ClientID: "gone"}}, lookup)
	require.NoError(t, err)
	assert.Equal(t, "o-9", payload.Orders[0].ID)
	assert.Empty(t, payload.Orders[0].Phone)
	assert.Empty(t, payload.Orders[0].Address)
}
