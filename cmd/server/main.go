package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-backend/internal/cache"
	"delivery-backend/internal/config"
	"delivery-backend/internal/database"
	"delivery-backend/internal/db"
	"delivery-backend/internal/handlers"
	"delivery-backend/internal/health"
	h "delivery-backend/internal/http"
	"delivery-backend/internal/middleware"
	"delivery-backend/internal/monitoring"
	"delivery-backend/internal/repositories"
	"delivery-backend/internal/services"
	"delivery-backend/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	ctx := context.Background()

	// Persistence: Postgres when configured, in-memory otherwise
	var pool *pgxpool.Pool
	var store repositories.SnapshotStore
	if cfg.Database.Enabled() {
		var err error
		pool, err = db.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("[DB] %v", err)
		}
		defer pool.Close()

		if err := database.NewMigrator(pool).RunMigrations(ctx); err != nil {
			log.Fatalf("[DB] migrations failed: %v", err)
		}
		store = repositories.NewSnapshotRepository(pool)
		log.Printf("[DB] Connected to %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	} else {
		store = repositories.NewMemorySnapshotStore()
		log.Printf("[DB] No database configured, workspace lives in memory")
	}

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] unavailable, running without cache: %v", err)
	}
	defer cache.Close()
	if cache.Enabled() {
		store = repositories.NewCachedSnapshotStore(store, 10*time.Minute)
	}

	// Core services
	ledger := services.NewLedgerService()
	catalog := services.NewCatalogService(ledger)
	orders := services.NewOrderService(ledger)
	routes := services.NewRouteService()
	handoff := services.NewHandoffService(cfg.Handoff.Secret, cfg.Handoff.Issuer)
	printer := services.NewPrintService(cfg.Company.Name)

	ws, err := services.OpenWorkspace(ctx, store, services.NewRoutePlanner(routes))
	if err != nil {
		log.Fatalf("[Workspace] %v", err)
	}

	hub := monitoring.NewAlertHub()
	go hub.Run()
	defer hub.Close()

	var docs handlers.DocumentArchiver
	if cfg.Documents.Enabled() {
		archive, err := storage.NewDocumentStore(ctx, cfg.Documents)
		if err != nil {
			log.Printf("[Documents] archiving disabled: %v", err)
		} else {
			docs = archive
		}
	}

	router := h.NewRouter(h.Handlers{
		Catalog: handlers.NewCatalogHandler(ws, catalog, hub),
		Clients: handlers.NewClientHandler(ws, catalog),
		Orders:  handlers.NewOrderHandler(ws, orders, printer, docs, hub),
		Routes:  handlers.NewRouteHandler(ws, routes, handoff, cfg.Server.PublicBaseURL, cfg.Company.Phone),
		Driver:  handlers.NewDriverHandler(handoff),
		Health:  handlers.NewHealthHandler(health.NewHealthChecker(pool)),
		Alerts:  handlers.NewAlertHandler(hub),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
