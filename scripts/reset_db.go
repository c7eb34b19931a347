package main

import (
	"context"
	"fmt"
	"log"

	"delivery-backend/internal/config"
	"delivery-backend/internal/database"
	"delivery-backend/internal/db"
	"delivery-backend/internal/models"
	"delivery-backend/internal/repositories"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Delivery Workspace")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("⚠️  WARNING: This will DELETE the stored workspace!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all products and stock history")
	fmt.Println("  - Delete all clients")
	fmt.Println("  - Delete all orders")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	cfg := config.Load()
	if !cfg.Database.Enabled() {
		log.Fatal("DB_HOST is not set, nothing to reset")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	if err := database.NewMigrator(pool).RunMigrations(ctx); err != nil {
		log.Fatalf("Migrations failed: %v\n", err)
	}

	repo := repositories.NewSnapshotRepository(pool)
	if err := repo.Reset(ctx); err != nil {
		log.Fatalf("Failed to delete workspace: %v\n", err)
	}
	fmt.Println("  ✓ Cleared workspace")

	snap := models.NewSnapshot()
	snap.CompanyPhone = cfg.Company.Phone
	if err := repo.Save(ctx, snap); err != nil {
		log.Fatalf("Failed to save empty workspace: %v\n", err)
	}
	fmt.Println("  ✓ Created empty workspace")

	fmt.Println()
	fmt.Println("✅ Workspace reset successful!")
}
