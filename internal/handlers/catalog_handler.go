package handlers

import (
	"net/http"

	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// OversellPublisher receives oversell signals after a change is saved
type OversellPublisher interface {
	PublishOversell(signals []models.OversellSignal)
}

type CatalogHandler struct {
	Workspace *services.Workspace
	Catalog   *services.CatalogService
	Alerts    OversellPublisher
}

func NewCatalogHandler(ws *services.Workspace, catalog *services.CatalogService, alerts OversellPublisher) *CatalogHandler {
	return &CatalogHandler{Workspace: ws, Catalog: catalog, Alerts: alerts}
}

// ListProducts returns the catalog, optionally filtered by ?category=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.Catalog.ListProducts(h.Workspace.View(), r.URL.Query().Get("category"))
	utils.JSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := h.Workspace.View().ProductByID(id)
	if !ok {
		writeError(w, &models.NotFoundError{Entity: "product", ID: id})
		return
	}
	utils.JSON(w, http.StatusOK, p)
}

// CreateProduct registers a simple product or a bundle
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var product models.Product
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, p, err := h.Catalog.RegisterProduct(s, req)
		product = p
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var product models.Product
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, p, err := h.Catalog.UpdateProduct(s, mux.Vars(r)["id"], req)
		product = p
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

// DeleteProduct needs ?confirm=true; without it the prompt comes back as 409
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	_, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		return h.Catalog.DeleteProduct(s, mux.Vars(r)["id"], services.AutoConfirm(confirmed(r)))
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveStock posts a manual IN or OUT
func (h *CatalogHandler) MoveStock(w http.ResponseWriter, r *http.Request) {
	var req models.StockMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id := mux.Vars(r)["id"]
	var outcome services.LedgerOutcome
	snap, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		next, out, err := h.Catalog.MoveStock(s, id, req)
		outcome = out
		return next, err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.report(outcome)

	p, _ := snap.ProductByID(id)
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"product": p,
		"outcome": outcome,
	})
}

// History returns the stock ledger of a simple product, newest first
func (h *CatalogHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := h.Workspace.View().ProductByID(id)
	if !ok {
		writeError(w, &models.NotFoundError{Entity: "product", ID: id})
		return
	}
	if p.IsBundle() {
		writeError(w, models.NewValidationError("id", "bundles have no stock history"))
		return
	}

	history := make([]models.StockMovement, len(p.Simple.History))
	for i, m := range p.Simple.History {
		history[len(history)-1-i] = m
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"product_id": p.ID,
		"stock":      p.Simple.Stock,
		"history":    history,
	})
}

// Availability tells the cart whether to ask before adding the product
func (h *CatalogHandler) Availability(w http.ResponseWriter, r *http.Request) {
	warning, err := h.Catalog.CheckAvailability(h.Workspace.View(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"available": warning == nil,
		"warning":   warning,
	})
}

func (h *CatalogHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"company_phone": h.Workspace.View().CompanyPhone,
	})
}

func (h *CatalogHandler) SetCompanyPhone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap, err := h.Workspace.Update(r.Context(), func(s *models.Snapshot) (*models.Snapshot, error) {
		return h.Catalog.SetCompanyPhone(s, req.Phone)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"company_phone": snap.CompanyPhone})
}

func (h *CatalogHandler) report(outcome services.LedgerOutcome) {
	reportOutcome(h.Alerts, outcome)
}

func reportOutcome(alerts OversellPublisher, outcome services.LedgerOutcome) {
	if len(outcome.Oversold) == 0 {
		return
	}
	metrics.OversellTotal.Add(float64(len(outcome.Oversold)))
	if alerts != nil {
		alerts.PublishOversell(outcome.Oversold)
	}
}
