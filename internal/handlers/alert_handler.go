package handlers

import (
	"net/http"

	"delivery-backend/internal/monitoring"
	"delivery-backend/pkg/utils"
)

type AlertHandler struct {
	Hub *monitoring.AlertHub
}

func NewAlertHandler(hub *monitoring.AlertHub) *AlertHandler {
	return &AlertHandler{Hub: hub}
}

// Recent lists the latest stock alerts
func (h *AlertHandler) Recent(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Hub.Recent())
}

// Stream upgrades to a websocket that receives alerts as they happen
func (h *AlertHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.Hub.HandleWebSocket(w, r)
}
