package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// HandoffSchemaVersion is carried in every driver token. Tokens with any other
// version are rejected as malformed.
const HandoffSchemaVersion = 1

// HandoffPayload is the self-contained route snapshot handed to the driver
type HandoffPayload struct {
	Version      int           `json:"v"`
	Route        string        `json:"route"`
	CompanyPhone string        `json:"company_phone"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Orders       []DriverOrder `json:"orders"`
}

// DriverOrder is the denormalized projection of one order for the driver.
// Only item names travel; pricing internals stay at the origin.
type DriverOrder struct {
	ID        string           `json:"id"`
	Customer  string           `json:"customer"`
	Phone     string           `json:"phone"`
	Address   string           `json:"address"`
	District  string           `json:"district"`
	MapLink   string           `json:"map_link,omitempty"`
	Total     decimal.Decimal  `json:"total"`
	PayMethod string           `json:"pay_method"`
	ChangeFor *decimal.Decimal `json:"change_for,omitempty"`
	Change    *decimal.Decimal `json:"change,omitempty"`
	Note      string           `json:"note,omitempty"`
	Items     []string         `json:"items"`
}

// HandoffRequest asks for a driver token for the current route plan
type HandoffRequest struct {
	Route    string   `json:"route"`
	OrderIDs []string `json:"order_ids,omitempty"`
}

// HandoffResponse is returned to the origin when a token is issued
type HandoffResponse struct {
	Token   string          `json:"token"`
	Link    string          `json:"link"`
	Payload *HandoffPayload `json:"payload"`
}
