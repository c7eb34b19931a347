package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"

	"github.com/google/uuid"
)

// CatalogService manages the product and client registries
type CatalogService struct {
	Ledger *LedgerService
	Now    func() time.Time
	NewID  func() string
}

// NewCatalogService creates the catalog with uuid ids and the shop clock
func NewCatalogService(ledger *LedgerService) *CatalogService {
	return &CatalogService{
		Ledger: ledger,
		Now:    timeutil.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// RegisterProduct adds a simple product (with its opening balance) or a bundle
func (s *CatalogService) RegisterProduct(snap *models.Snapshot, req models.CreateProductRequest) (*models.Snapshot, models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.Product{}, models.NewValidationError("name", "product name is required")
	}
	if req.Price.IsNegative() || req.Cost.IsNegative() {
		return nil, models.Product{}, models.NewValidationError("price", "price and cost cannot be negative")
	}

	now := s.Now()
	p := models.Product{
		ID:        s.NewID(),
		Name:      name,
		Category:  strings.TrimSpace(req.Category),
		Cost:      req.Cost,
		Price:     req.Price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}

	if req.IsCombo {
		components, err := validateComponents(snap.Products, req.ComboItems)
		if err != nil {
			return nil, models.Product{}, err
		}
		p.Bundle = &models.BundleSpec{Components: components}
		out := snap.Clone()
		out.Products = append(out.Products, p)
		return out, p.Clone(), nil
	}

	if req.InitialStock < 0 {
		return nil, models.Product{}, models.NewValidationError("initial_stock", "initial stock cannot be negative")
	}
	p.Simple = &models.StockLevel{History: []models.StockMovement{}}

	products := append(models.CloneProducts(snap.Products), p)
	if req.InitialStock > 0 {
		var err error
		products, _, err = s.Ledger.ApplyMovement(products, p.ID, models.MovementInitial, req.InitialStock, "")
		if err != nil {
			return nil, models.Product{}, err
		}
	}

	out := snap.Clone()
	out.Products = products
	created, _ := out.ProductByID(p.ID)
	return out, created.Clone(), nil
}

// validateComponents merges duplicate ids and rejects nested or unknown components
func validateComponents(products []models.Product, items []models.BundleComponent) ([]models.BundleComponent, error) {
	if len(items) == 0 {
		return nil, models.NewValidationError("combo_items", "a bundle needs at least one component")
	}
	merged := []models.BundleComponent{}
	pos := map[string]int{}
	for _, it := range items {
		if it.Quantity <= 0 || it.Quantity > models.MaxMovementQuantity {
			return nil, models.NewValidationError("combo_items", "component quantities must be positive")
		}
		idx := models.ProductIndex(products, it.ProductID)
		if idx < 0 {
			return nil, &models.NotFoundError{Entity: "product", ID: it.ProductID}
		}
		if products[idx].IsBundle() {
			return nil, models.NewValidationError("combo_items", products[idx].Name+" is a bundle, bundles cannot be nested")
		}
		if i, ok := pos[it.ProductID]; ok {
			if merged[i].Quantity > models.MaxMovementQuantity-it.Quantity {
				return nil, models.NewValidationError("combo_items", "component quantity is too large")
			}
			merged[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

// UpdateProduct edits catalog fields. Stock and history are kept as they are.
func (s *CatalogService) UpdateProduct(snap *models.Snapshot, id string, req models.UpdateProductRequest) (*models.Snapshot, models.Product, error) {
	idx := models.ProductIndex(snap.Products, id)
	if idx < 0 {
		return nil, models.Product{}, &models.NotFoundError{Entity: "product", ID: id}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, models.Product{}, models.NewValidationError("name", "product name is required")
	}
	if req.Price.IsNegative() || req.Cost.IsNegative() {
		return nil, models.Product{}, models.NewValidationError("price", "price and cost cannot be negative")
	}

	current := snap.Products[idx]
	if !current.IsBundle() && len(req.ComboItems) > 0 {
		return nil, models.Product{}, models.NewValidationError("combo_items", "a simple product cannot become a bundle, register a new bundle instead")
	}

	out := snap.Clone()
	p := &out.Products[idx]
	if current.IsBundle() {
		others := append(append([]models.Product{}, snap.Products[:idx]...), snap.Products[idx+1:]...)
		components, err := validateComponents(others, req.ComboItems)
		if err != nil {
			return nil, models.Product{}, err
		}
		p.Bundle = &models.BundleSpec{Components: components}
	}
	p.Name = name
	p.Category = strings.TrimSpace(req.Category)
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
	p.Cost = req.Cost
	p.Price = req.Price
	p.UpdatedAt = s.Now()
	return out, p.Clone(), nil
}

// DeleteProduct removes a product from the catalog. Past orders keep their snapshots.
func (s *CatalogService) DeleteProduct(snap *models.Snapshot, id string, confirmer Confirmer) (*models.Snapshot, error) {
	idx := models.ProductIndex(snap.Products, id)
	if idx < 0 {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	prompt := fmt.Sprintf("Delete product %s?", snap.Products[idx].Name)
	if used := bundlesUsing(snap.Products, id); len(used) > 0 {
		prompt = fmt.Sprintf("Delete product %s? It is a component of %s and will be skipped when those bundles sell.",
			snap.Products[idx].Name, strings.Join(used, ", "))
	}
	if !confirmer.Confirm(prompt) {
		return nil, &models.ConfirmationError{Prompt: prompt}
	}

	out := snap.Clone()
	out.Products = append(out.Products[:idx], out.Products[idx+1:]...)
	return out, nil
}

func bundlesUsing(products []models.Product, id string) []string {
	var names []string
	for _, p := range products {
		if !p.IsBundle() {
			continue
		}
		for _, c := range p.Bundle.Components {
			if c.ProductID == id {
				names = append(names, p.Name)
				break
			}
		}
	}
	return names
}

// MoveStock posts a manual IN or OUT movement
func (s *CatalogService) MoveStock(snap *models.Snapshot, id string, req models.StockMovementRequest) (*models.Snapshot, LedgerOutcome, error) {
	if !req.Kind.Manual() {
		return nil, LedgerOutcome{}, models.NewValidationError("kind", "only IN and OUT can be posted manually")
	}
	products, outcome, err := s.Ledger.ApplyMovement(snap.Products, id, req.Kind, req.Quantity, strings.TrimSpace(req.Reference))
	if err != nil {
		return nil, LedgerOutcome{}, err
	}
	out := snap.Clone()
	out.Products = products
	return out, outcome, nil
}

// CheckAvailability warns when a simple product is added to the cart without
// stock. The sale is never blocked; the caller decides whether to go on.
func (s *CatalogService) CheckAvailability(snap *models.Snapshot, id string) (*models.CartWarning, error) {
	p, ok := snap.ProductByID(id)
	if !ok {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	stock, simple := p.Stock()
	if !simple || stock > 0 {
		return nil, nil
	}
	return &models.CartWarning{
		ProductID: p.ID,
		Name:      p.Name,
		Stock:     stock,
		Message:   fmt.Sprintf("%s is out of stock (%d). Add it anyway?", p.Name, stock),
	}, nil
}

// ListProducts returns the catalog sorted by category and name
func (s *CatalogService) ListProducts(snap *models.Snapshot, category string) []models.Product {
	out := []models.Product{}
	for _, p := range snap.Products {
		if category == "" || strings.EqualFold(p.Category, category) {
			out = append(out, p.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// RegisterClient adds a client; the city defaults to Cuiabá
func (s *CatalogService) RegisterClient(snap *models.Snapshot, req models.CreateClientRequest) (*models.Snapshot, models.Client, error) {
	c, err := s.clientFromRequest(req)
	if err != nil {
		return nil, models.Client{}, err
	}
	c.ID = s.NewID()
	c.CreatedAt = s.Now()

	out := snap.Clone()
	out.Clients = append(out.Clients, c)
	return out, c, nil
}

func (s *CatalogService) UpdateClient(snap *models.Snapshot, id string, req models.UpdateClientRequest) (*models.Snapshot, models.Client, error) {
	idx := snap.ClientIndex(id)
	if idx < 0 {
		return nil, models.Client{}, &models.NotFoundError{Entity: "client", ID: id}
	}
	c, err := s.clientFromRequest(req)
	if err != nil {
		return nil, models.Client{}, err
	}
	c.ID = id
	c.CreatedAt = snap.Clients[idx].CreatedAt

	out := snap.Clone()
	out.Clients[idx] = c
	return out, c, nil
}

// DeleteClient removes a client. Orders keep the id and show an empty client.
func (s *CatalogService) DeleteClient(snap *models.Snapshot, id string, confirmer Confirmer) (*models.Snapshot, error) {
	idx := snap.ClientIndex(id)
	if idx < 0 {
		return nil, &models.NotFoundError{Entity: "client", ID: id}
	}
	prompt := fmt.Sprintf("Delete client %s?", snap.Clients[idx].Name)
	if !confirmer.Confirm(prompt) {
		return nil, &models.ConfirmationError{Prompt: prompt}
	}
	out := snap.Clone()
	out.Clients = append(out.Clients[:idx], out.Clients[idx+1:]...)
	return out, nil
}

func (s *CatalogService) clientFromRequest(req models.CreateClientRequest) (models.Client, error) {
	c := models.Client{
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		District: strings.TrimSpace(req.District),
		City:     strings.TrimSpace(req.City),
		Route:    strings.TrimSpace(req.Route),
		MapLink:  strings.TrimSpace(req.MapLink),
	}
	if c.Name == "" {
		return models.Client{}, models.NewValidationError("name", "client name is required")
	}
	if strings.EqualFold(c.Route, AllRoutes) {
		return models.Client{}, models.NewValidationError("route", `"`+AllRoutes+`" selects every route, pick another route name`)
	}
	if c.City == "" {
		c.City = models.DefaultCity
	}
	return c, nil
}

// SetCompanyPhone stores the number drivers confirm deliveries to
func (s *CatalogService) SetCompanyPhone(snap *models.Snapshot, phone string) (*models.Snapshot, error) {
	phone = strings.TrimSpace(phone)
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if phone != "" && digits < 10 {
		return nil, models.NewValidationError("phone", "use the full number with area code")
	}
	out := snap.Clone()
	out.CompanyPhone = phone
	return out, nil
}
