package monitoring

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"

	"github.com/gorilla/websocket"
)

const maxRecentAlerts = 50

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	ProductID string    `json:"product_id,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AlertHub pushes stock alerts to every connected websocket client
type AlertHub struct {
	alerts     []Alert
	nextID     int
	alertsMux  sync.RWMutex
	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Alert
}

func NewAlertHub() *AlertHub {
	return &AlertHub{
		alerts:    make([]Alert, 0),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Alert, 64),
	}
}

// Run delivers queued alerts until the hub is closed
func (h *AlertHub) Run() {
	for alert := range h.broadcast {
		h.clientsMux.Lock()
		for client := range h.clients {
			if err := client.WriteJSON(alert); err != nil {
				client.Close()
				delete(h.clients, client)
			}
		}
		h.clientsMux.Unlock()
	}
}

func (h *AlertHub) Close() {
	close(h.broadcast)
}

// Publish records an alert and queues it for broadcast. A full queue drops the
// broadcast but the alert stays in Recent.
func (h *AlertHub) Publish(alert Alert) Alert {
	h.alertsMux.Lock()
	h.nextID++
	alert.ID = h.nextID
	if alert.Timestamp.IsZero() {
		alert.Timestamp = timeutil.Now()
	}
	h.alerts = append(h.alerts, alert)
	if len(h.alerts) > maxRecentAlerts {
		h.alerts = h.alerts[len(h.alerts)-maxRecentAlerts:]
	}
	h.alertsMux.Unlock()

	select {
	case h.broadcast <- alert:
	default:
		log.Printf("[Alerts] broadcast queue full, dropped alert %d", alert.ID)
	}
	return alert
}

// PublishOversell turns oversell signals into warning alerts
func (h *AlertHub) PublishOversell(signals []models.OversellSignal) {
	for _, s := range signals {
		h.Publish(Alert{
			Severity:  "warning",
			Type:      "oversell",
			ProductID: s.ProductID,
			Message:   fmt.Sprintf("%s stock is now %d", s.Name, s.Stock),
		})
	}
}

// Recent returns the latest alerts, oldest first
func (h *AlertHub) Recent() []Alert {
	h.alertsMux.RLock()
	defer h.alertsMux.RUnlock()
	return append([]Alert(nil), h.alerts...)
}

// HandleWebSocket registers the connection and keeps it until the client leaves
func (h *AlertHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Alerts] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	h.clientsMux.Lock()
	h.clients[conn] = true
	h.clientsMux.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.clientsMux.Lock()
			delete(h.clients, conn)
			h.clientsMux.Unlock()
			break
		}
	}
}
