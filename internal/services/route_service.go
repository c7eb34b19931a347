package services

import (
	"sort"
	"strings"
	"sync"

	"delivery-backend/internal/models"

	"github.com/shopspring/decimal"
)

// AllRoutes selects every route tag
const AllRoutes = "all"

// Direction moves an order in the delivery sequence
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// RouteService groups OnRoute orders by the client's route tag
type RouteService struct{}

// NewRouteService creates a stateless route service
func NewRouteService() *RouteService {
	return &RouteService{}
}

// ListReady returns OnRoute orders for the tag, oldest first. An empty tag or
// "all" matches every route. Orders whose client is gone only match "all".
func (s *RouteService) ListReady(snap *models.Snapshot, routeTag string) []models.Order {
	all := isAllRoutes(routeTag)
	out := []models.Order{}
	for _, o := range snap.Orders {
		if o.Status != models.OrderOnRoute {
			continue
		}
		if !all {
			c, ok := snap.ClientByID(o.ClientID)
			if !ok || !strings.EqualFold(strings.TrimSpace(c.Route), strings.TrimSpace(routeTag)) {
				continue
			}
		}
		out = append(out, o.Clone())
	}
	sortChronological(out)
	return out
}

func isAllRoutes(tag string) bool {
	tag = strings.TrimSpace(tag)
	return tag == "" || strings.EqualFold(tag, AllRoutes)
}

// Reorder swaps the element at index with its neighbour. Out of range indexes
// and moves past either end leave the sequence as it is.
func Reorder[T any](sequence []T, index int, dir Direction) []T {
	out := append([]T(nil), sequence...)
	var other int
	switch dir {
	case DirectionUp:
		other = index - 1
	case DirectionDown:
		other = index + 1
	default:
		return out
	}
	if index < 0 || index >= len(out) || other < 0 || other >= len(out) {
		return out
	}
	out[index], out[other] = out[other], out[index]
	return out
}

// RouteTotal sums the totals of the sequence
func RouteTotal(sequence []models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range sequence {
		total = total.Add(o.Total)
	}
	return total
}

// RouteTags lists the distinct non-empty route tags of the clients
func (s *RouteService) RouteTags(clients []models.Client) []string {
	seen := map[string]bool{}
	tags := []string{}
	for _, c := range clients {
		tag := strings.TrimSpace(c.Route)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// RoutePlan is the current working sequence for one route selection
type RoutePlan struct {
	Route  string          `json:"route"`
	Orders []models.Order  `json:"orders"`
	Total  decimal.Decimal `json:"total"`
}

// RoutePlanner keeps the operator's manual delivery order for the selected
// route. Changing the selection resets the order to chronological.
type RoutePlanner struct {
	mu     sync.Mutex
	routes *RouteService
	tag    string
	ids    []string
}

// NewRoutePlanner starts with every route selected
func NewRoutePlanner(routes *RouteService) *RoutePlanner {
	return &RoutePlanner{routes: routes, tag: AllRoutes}
}

// Select switches the route filter and resets the working order
func (p *RoutePlanner) Select(snap *models.Snapshot, tag string) RoutePlan {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isAllRoutes(tag) {
		tag = AllRoutes
	}
	p.tag = strings.TrimSpace(tag)
	p.ids = orderIDs(p.routes.ListReady(snap, p.tag))
	return p.planLocked(snap)
}

// Current refreshes and returns the plan for the current selection
func (p *RoutePlanner) Current(snap *models.Snapshot) RoutePlan {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshLocked(snap)
	return p.planLocked(snap)
}

// Move shifts one order up or down in the working order
func (p *RoutePlanner) Move(snap *models.Snapshot, orderID string, dir Direction) (RoutePlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.refreshLocked(snap)
	idx := -1
	for i, id := range p.ids {
		if id == orderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RoutePlan{}, &models.NotFoundError{Entity: "order on route", ID: orderID}
	}
	p.ids = Reorder(p.ids, idx, dir)
	return p.planLocked(snap), nil
}

// refreshLocked keeps the manual order, drops orders that left the route and
// appends newly ready ones at the end
func (p *RoutePlanner) refreshLocked(snap *models.Snapshot) {
	ready := p.routes.ListReady(snap, p.tag)
	present := make(map[string]bool, len(ready))
	for _, o := range ready {
		present[o.ID] = true
	}

	kept := make([]string, 0, len(ready))
	known := make(map[string]bool, len(p.ids))
	for _, id := range p.ids {
		if present[id] {
			kept = append(kept, id)
			known[id] = true
		}
	}
	for _, o := range ready {
		if !known[o.ID] {
			kept = append(kept, o.ID)
		}
	}
	p.ids = kept
}

func (p *RoutePlanner) planLocked(snap *models.Snapshot) RoutePlan {
	orders := make([]models.Order, 0, len(p.ids))
	for _, id := range p.ids {
		if o, ok := snap.OrderByID(id); ok {
			orders = append(orders, o.Clone())
		}
	}
	return RoutePlan{Route: p.tag, Orders: orders, Total: RouteTotal(orders)}
}

func orderIDs(orders []models.Order) []string {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	return ids
}
