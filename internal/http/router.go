package http

import (
	"net/http"

	"delivery-backend/internal/handlers"
	"delivery-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Catalog *handlers.CatalogHandler
	Clients *handlers.ClientHandler
	Orders  *handlers.OrderHandler
	Routes  *handlers.RouteHandler
	Driver  *handlers.DriverHandler
	Health  *handlers.HealthHandler
	Alerts  *handlers.AlertHandler
}

func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	// Health and metrics
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Catalog
	api.HandleFunc("/products", h.Catalog.ListProducts).Methods("GET")
	api.HandleFunc("/products", h.Catalog.CreateProduct).Methods("POST")
	api.HandleFunc("/products/{id}", h.Catalog.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", h.Catalog.UpdateProduct).Methods("PUT")
	api.HandleFunc("/products/{id}", h.Catalog.DeleteProduct).Methods("DELETE")
	api.HandleFunc("/products/{id}/movements", h.Catalog.MoveStock).Methods("POST")
	api.HandleFunc("/products/{id}/history", h.Catalog.History).Methods("GET")
	api.HandleFunc("/products/{id}/availability", h.Catalog.Availability).Methods("GET")

	// Settings
	api.HandleFunc("/settings", h.Catalog.GetSettings).Methods("GET")
	api.HandleFunc("/settings/company-phone", h.Catalog.SetCompanyPhone).Methods("PUT")

	// Clients
	api.HandleFunc("/clients", h.Clients.ListClients).Methods("GET")
	api.HandleFunc("/clients", h.Clients.CreateClient).Methods("POST")
	api.HandleFunc("/clients/{id}", h.Clients.GetClient).Methods("GET")
	api.HandleFunc("/clients/{id}", h.Clients.UpdateClient).Methods("PUT")
	api.HandleFunc("/clients/{id}", h.Clients.DeleteClient).Methods("DELETE")

	// Orders
	api.HandleFunc("/orders", h.Orders.ListOrders).Methods("GET")
	api.HandleFunc("/orders", h.Orders.Checkout).Methods("POST")
	api.HandleFunc("/orders/{id}", h.Orders.GetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}", h.Orders.Cancel).Methods("DELETE")
	api.HandleFunc("/orders/{id}/advance", h.Orders.Advance).Methods("POST")
	api.HandleFunc("/orders/{id}/deliver", h.Orders.Deliver).Methods("POST")
	api.HandleFunc("/orders/{id}/force-deliver", h.Orders.ForceDeliver).Methods("POST")
	api.HandleFunc("/orders/{id}/cancel", h.Orders.Cancel).Methods("POST")
	api.HandleFunc("/orders/{id}/print-flags/{which}", h.Orders.TogglePrintFlag).Methods("POST")
	api.HandleFunc("/orders/{id}/label.pdf", h.Orders.Label).Methods("GET")
	api.HandleFunc("/orders/{id}/picking-list.pdf", h.Orders.PickingList).Methods("GET")

	// Routes and handoff
	api.HandleFunc("/routes", h.Routes.ListTags).Methods("GET")
	api.HandleFunc("/routes/plan", h.Routes.CurrentPlan).Methods("GET")
	api.HandleFunc("/routes/plan", h.Routes.SelectRoute).Methods("POST")
	api.HandleFunc("/routes/plan/move", h.Routes.MoveOrder).Methods("POST")
	api.HandleFunc("/routes/handoff", h.Routes.CreateHandoff).Methods("POST")

	// Driver view reads only the token
	api.HandleFunc("/driver", h.Driver.Open).Methods("GET", "POST")

	// Stock alerts
	api.HandleFunc("/alerts", h.Alerts.Recent).Methods("GET")
	r.HandleFunc("/ws/alerts", h.Alerts.Stream)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
	})

	return r
}
