package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

const defaultHandoffSecret = "delivery-handoff"

// HandoffClaims wraps the driver payload in a signed token. The signature
// detects casual edits to the link; it does not expire.
type HandoffClaims struct {
	Payload models.HandoffPayload `json:"d"`
	jwt.RegisteredClaims
}

// HandoffService turns a route into a self-contained driver token and back
type HandoffService struct {
	secret []byte
	issuer string
	Now    func() time.Time
}

// NewHandoffService creates the token codec. An empty secret falls back to a
// fixed development key.
func NewHandoffService(secret, issuer string) *HandoffService {
	if secret == "" {
		secret = defaultHandoffSecret
	}
	return &HandoffService{secret: []byte(secret), issuer: issuer, Now: timeutil.Now}
}

// Encode projects the route sequence into a driver payload and signs it.
// Client details are resolved now; a missing client leaves its fields empty.
func (s *HandoffService) Encode(routeTag, companyContact string, sequence []models.Order, clientLookup func(id string) (models.Client, bool)) (string, *models.HandoffPayload, error) {
	if len(sequence) == 0 {
		return "", nil, models.NewValidationError("orders", "nothing to deliver on this route, mark orders ready first")
	}

	now := s.Now()
	payload := &models.HandoffPayload{
		Version:      models.HandoffSchemaVersion,
		Route:        routeTag,
		CompanyPhone: companyContact,
		GeneratedAt:  now,
		Orders:       make([]models.DriverOrder, 0, len(sequence)),
	}
	for _, o := range sequence {
		payload.Orders = append(payload.Orders, projectOrder(o, clientLookup))
	}

	claims := &HandoffClaims{
		Payload: *payload,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   s.issuer,
			Subject:  routeTag,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign handoff: %w", err)
	}
	return token, payload, nil
}

func projectOrder(o models.Order, clientLookup func(string) (models.Client, bool)) models.DriverOrder {
	d := models.DriverOrder{
		ID:        o.ID,
		Total:     o.Total,
		PayMethod: o.PaymentMethod,
		Note:      o.Note,
		Items:     ItemLabels(o.Items),
	}
	if clientLookup != nil {
		if c, ok := clientLookup(o.ClientID); ok {
			d.Customer = c.Name
			d.Phone = c.Phone
			d.Address = c.Address
			d.District = c.District
			d.MapLink = c.MapLink
		}
	}
	if change, ok := o.Change(); ok {
		basis := *o.ChangeFor
		d.ChangeFor = &basis
		d.Change = &change
	}
	return d
}

// ItemLabels renders line items as "2x Name" for the driver
func ItemLabels(items []models.LineItem) []string {
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = fmt.Sprintf("%dx %s", it.Quantity, it.Name)
	}
	return labels
}

// Decode verifies and unpacks a driver token. Every failure is reported as
// ErrMalformedHandoff.
func (s *HandoffService) Decode(token string) (*models.HandoffPayload, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "#driver="))
	if token == "" {
		return nil, models.ErrMalformedHandoff
	}

	claims := &HandoffClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		log.Printf("[Handoff] rejected token: %v", err)
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedHandoff, err)
	}
	if !parsed.Valid {
		return nil, models.ErrMalformedHandoff
	}
	if claims.Payload.Version != models.HandoffSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", models.ErrMalformedHandoff, claims.Payload.Version)
	}
	return &claims.Payload, nil
}

// DriverLink builds the URL the driver opens. The token travels in the
// fragment so it never reaches a server log. baseURL is the front end, whose
// /driver page reads the fragment and posts it to /api/driver.
func DriverLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/driver#driver=" + token
}

// IsMalformedHandoff reports whether err came from a bad driver token
func IsMalformedHandoff(err error) bool {
	return errors.Is(err, models.ErrMalformedHandoff)
}
