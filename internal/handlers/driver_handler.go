package handlers

import (
	"net/http"

	"delivery-backend/internal/metrics"
	"delivery-backend/internal/models"
	"delivery-backend/internal/services"
	"delivery-backend/internal/timeutil"
	"delivery-backend/internal/whatsapp"
	"delivery-backend/pkg/utils"
)

// DriverHandler serves the driver view. It only reads the token and never
// touches the workspace.
type DriverHandler struct {
	Handoff *services.HandoffService
}

func NewDriverHandler(handoff *services.HandoffService) *DriverHandler {
	return &DriverHandler{Handoff: handoff}
}

type driverStop struct {
	Position int                    `json:"position"`
	Order    models.DriverOrder     `json:"order"`
	Actions  whatsapp.DriverActions `json:"actions"`
}

type driverView struct {
	Route        string       `json:"route"`
	CompanyPhone string       `json:"company_phone"`
	GeneratedAt  string       `json:"generated_at"`
	Deliveries   int          `json:"deliveries"`
	Stops        []driverStop `json:"stops"`
}

// Open decodes ?token= (GET) or {"token": ...} (POST) into the delivery list
func (h *DriverHandler) Open(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if r.Method == http.MethodPost {
		var req struct {
			Token string `json:"token"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, models.ErrMalformedHandoff)
			return
		}
		token = req.Token
	}

	payload, err := h.Handoff.Decode(token)
	if err != nil {
		metrics.HandoffTokensTotal.WithLabelValues("rejected").Inc()
		writeError(w, err)
		return
	}
	metrics.HandoffTokensTotal.WithLabelValues("opened").Inc()

	view := driverView{
		Route:        payload.Route,
		CompanyPhone: payload.CompanyPhone,
		GeneratedAt:  timeutil.FormatLocal(payload.GeneratedAt, timeutil.DisplayLayout),
		Deliveries:   len(payload.Orders),
		Stops:        make([]driverStop, len(payload.Orders)),
	}
	for i, o := range payload.Orders {
		view.Stops[i] = driverStop{
			Position: i + 1,
			Order:    o,
			Actions:  whatsapp.ForOrder(o, payload.CompanyPhone),
		}
	}
	utils.JSON(w, http.StatusOK, view)
}
