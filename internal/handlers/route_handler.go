package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"delivery-backend/internal/cache"
	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/pkg/utils"
)

type RouteHandler struct {
	Workspace    *services.Workspace
	Routes       *services.RouteService
	Handoff      *services.HandoffService
	BaseURL      string
	CompanyPhone string
}

func NewRouteHandler(ws *services.Workspace, routes *services.RouteService, handoff *services.HandoffService, baseURL, companyPhone string) *RouteHandler {
	return &RouteHandler{
		Workspace:    ws,
		Routes:       routes,
		Handoff:      handoff,
		BaseURL:      baseURL,
		CompanyPhone: companyPhone,
	}
}

// ListTags returns the distinct client route tags
func (h *RouteHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	if data, ok := cache.GetCached(r.Context(), cache.RouteTagsKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	tags := h.Routes.RouteTags(h.Workspace.View().Clients)
	if data, err := json.Marshal(tags); err == nil {
		cache.SetCached(r.Context(), cache.RouteTagsKey, data, 5*time.Minute)
	}
	utils.JSON(w, http.StatusOK, tags)
}

// CurrentPlan returns the working delivery sequence
func (h *RouteHandler) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Workspace.Planner().Current(h.Workspace.View()))
}

// SelectRoute switches the route filter and resets the sequence
func (h *RouteHandler) SelectRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Route string `json:"route"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, h.Workspace.Planner().Select(h.Workspace.View(), req.Route))
}

// MoveOrder shifts one order up or down in the sequence
func (h *RouteHandler) MoveOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID   string             `json:"order_id"`
		Direction services.Direction `json:"direction"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Direction != services.DirectionUp && req.Direction != services.DirectionDown {
		writeError(w, models.NewValidationError("direction", "use up or down"))
		return
	}
	plan, err := h.Workspace.Planner().Move(h.Workspace.View(), req.OrderID, req.Direction)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, plan)
}

// CreateHandoff issues the driver token for the current sequence. A route in
// the body different from the selected one selects it first. order_ids
// narrows the sequence and keeps its order.
func (h *RouteHandler) CreateHandoff(w http.ResponseWriter, r *http.Request) {
	var req models.HandoffRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	snap := h.Workspace.View()
	planner := h.Workspace.Planner()
	plan := planner.Current(snap)
	if req.Route != "" && req.Route != plan.Route {
		plan = planner.Select(snap, req.Route)
	}

	sequence := plan.Orders
	if len(req.OrderIDs) > 0 {
		sequence = pickOrders(plan.Orders, req.OrderIDs)
	}

	companyPhone := snap.CompanyPhone
	if companyPhone == "" {
		companyPhone = h.CompanyPhone
	}

	token, payload, err := h.Handoff.Encode(plan.Route, companyPhone, sequence, snap.ClientByID)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.HandoffTokensTotal.WithLabelValues("issued").Inc()
	log.Printf("[Handoff] Issued token for route %s with %d orders", plan.Route, len(payload.Orders))

	utils.JSON(w, http.StatusCreated, models.HandoffResponse{
		Token:   token,
		Link:    services.DriverLink(h.BaseURL, token),
		Payload: payload,
	})
}

func pickOrders(orders []models.Order, ids []string) []models.Order {
	byID := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	out := make([]models.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}
