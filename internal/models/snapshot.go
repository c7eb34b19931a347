package models

import "time"

// SnapshotVersion is bumped when the persisted document shape changes
const SnapshotVersion = "3.1"

// Snapshot is the whole working dataset. Services take one in and hand a new
// one back; the caller owns the single writable reference.
type Snapshot struct {
	Version      string    `json:"version"`
	Products     []Product `json:"products"`
	Clients      []Client  `json:"clients"`
	Orders       []Order   `json:"orders"`
	CompanyPhone string    `json:"company_phone"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:  SnapshotVersion,
		Products: []Product{},
		Clients:  []Client{},
		Orders:   []Order{},
	}
}

// Clone returns a deep copy of the dataset
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Version:      s.Version,
		CompanyPhone: s.CompanyPhone,
		UpdatedAt:    s.UpdatedAt,
		Products:     CloneProducts(s.Products),
		Clients:      append([]Client{}, s.Clients...),
		Orders:       make([]Order, len(s.Orders)),
	}
	for i, o := range s.Orders {
		c.Orders[i] = o.Clone()
	}
	return c
}

func CloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}

func (s *Snapshot) ProductByID(id string) (Product, bool) {
	if i := s.productIndex(id); i >= 0 {
		return s.Products[i], true
	}
	return Product{}, false
}

func (s *Snapshot) ClientByID(id string) (Client, bool) {
	for _, c := range s.Clients {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

func (s *Snapshot) OrderByID(id string) (Order, bool) {
	if i := s.OrderIndex(id); i >= 0 {
		return s.Orders[i], true
	}
	return Order{}, false
}

func (s *Snapshot) productIndex(id string) int {
	return ProductIndex(s.Products, id)
}

func (s *Snapshot) ClientIndex(id string) int {
	for i, c := range s.Clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) OrderIndex(id string) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// ProductIndex returns the position of id in products or -1
func ProductIndex(products []Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
