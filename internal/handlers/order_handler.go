package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// DocumentArchiver keeps a copy of every printed document
type DocumentArchiver interface {
	PutPDF(ctx context.Context, orderID, kind string, data []byte) (string, error)
}

type OrderHandler struct {
	Workspace *services.Workspace
	Orders    *services.OrderService
	Print     *services.PrintService
	Docs      DocumentArchiver
	Alerts    OversellPublisher
}

func NewOrderHandler(ws *services.Workspace, orders *services.OrderService, print *services.PrintService, docs DocumentArchiver, alerts OversellPublisher) *OrderHandler {
	return &OrderHandler{Workspace: ws, Orders: orders, Print: print, Docs: docs, Alerts: alerts}
}

// ListOrders returns active orders, or the orders in ?status=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	snap := h.Workspace.View()
	status := models.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		utils.JSON(w, http.StatusOK, h.Orders.ActiveOrders(snap))
		return
	}
	if !status.Valid() {
		writeError(w, models.NewValidationError("status", "unknown status "+string(status)))
		return
	}
	utils.JSON(w, http.StatusOK, h.Orders.OrdersByStatus(snap, status))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	o, ok := h.Workspace.View().OrderByID(id)
	if !ok {
		writeError(w, &models.NotFoundError{Entity: "order", ID: id})
		return
	}
	utils.JSON(w, http.StatusOK, o)
}

// Checkout closes the cart into a Pending order
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var result *services.CheckoutResult
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		res, err := h.Orders.CreateOrder(s, req)
		if err != nil {
			return nil, err
		}
		result = res
		return res.Snapshot, nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	reportOutcome(h.Alerts, result.Outcome)
	log.Printf("[Orders] Created %s total %s (%d lines)", result.Order.ShortID(), result.Order.Total.StringFixed(2), len(result.Order.Items))

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"order":   result.Order,
		"outcome": result.Outcome,
	})
}

func (h *OrderHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "advanced", h.Orders.Advance)
}

func (h *OrderHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "delivered", h.Orders.Deliver)
}

// ForceDeliver needs ?confirm=true
func (h *OrderHandler) ForceDeliver(w http.ResponseWriter, r *http.Request) {
	confirmer := services.AutoConfirm(confirmed(r))
	h.transition(w, r, "force_delivered", func(s *models.Snapshot, id string) (*models.Snapshot, models.Order, error) {
		return h.Orders.ForceDeliver(s, id, confirmer)
	})
}

func (h *OrderHandler) transition(w http.ResponseWriter, r *http.Request, event string, fn func(*models.Snapshot, string) (*models.Snapshot, models.Order, error)) {
	id := mux.Vars(r)["id"]
	var order models.Order
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, o, err := fn(s, id)
		order = o
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.OrdersTotal.WithLabelValues(event).Inc()
	utils.JSON(w, http.StatusOK, order)
}

// Cancel reverses the stock of the order and removes it. Without ?confirm=true
// the prompt is returned with 409 and nothing changes.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var outcome services.LedgerOutcome
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, out, err := h.Orders.Cancel(s, id, services.AutoConfirm(confirmed(r)))
		outcome = out
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.OrdersTotal.WithLabelValues("cancelled").Inc()
	log.Printf("[Orders] Cancelled %s", id)
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"cancelled": id,
		"outcome":   outcome,
	})
}

// TogglePrintFlag flips the label or list flag named in the path
func (h *OrderHandler) TogglePrintFlag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var order models.Order
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, o, err := h.Orders.TogglePrintFlag(s, vars["id"], models.PrintFlag(vars["which"]))
		order = o
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

func (h *OrderHandler) Label(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "label", func(snap *models.Snapshot, o models.Order, c models.Client) ([]byte, error) {
		return h.Print.Label(o, c)
	})
}

func (h *OrderHandler) PickingList(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "picking-list", func(snap *models.Snapshot, o models.Order, c models.Client) ([]byte, error) {
		return h.Print.PickingList(o, c, func(id string) string {
			p, _ := snap.ProductByID(id)
			return p.Name
		})
	})
}

func (h *OrderHandler) render(w http.ResponseWriter, r *http.Request, kind string, fn func(*models.Snapshot, models.Order, models.Client) ([]byte, error)) {
	snap := h.Workspace.View()
	id := mux.Vars(r)["id"]
	o, ok := snap.OrderByID(id)
	if !ok {
		writeError(w, &models.NotFoundError{Entity: "order", ID: id})
		return
	}
	// a deleted client prints as blank
	c, _ := snap.ClientByID(o.ClientID)

	data, err := fn(snap, o, c)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Docs != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		if key, err := h.Docs.PutPDF(ctx, o.ID, kind, data); err != nil {
			log.Printf("[Documents] archive %s for %s failed: %v", kind, o.ShortID(), err)
		} else {
			w.Header().Set("X-Document-Key", key)
		}
		cancel()
	}
	utils.PDF(w, kind+"-"+o.ShortID()+".pdf", data)
}
