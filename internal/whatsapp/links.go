package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"delivery-backend/internal/models"

	"github.com/shopspring/decimal"
)

const countryCode = "55"

// DriverActions are the click-to-chat links shown on one delivery card
type DriverActions struct {
	Going   string `json:"going,omitempty"`
	Arrived string `json:"arrived,omitempty"`
	Confirm string `json:"confirm,omitempty"`
	Map     string `json:"map,omitempty"`
}

// FormatPhoneNumber keeps the digits and adds the Brazilian country code
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return ""
	}
	if (len(cleaned) == 12 || len(cleaned) == 13) && strings.HasPrefix(cleaned, countryCode) {
		return cleaned
	}
	return countryCode + cleaned
}

// ChatLink opens a WhatsApp conversation with text already typed. Empty when
// there is no number to send to.
func ChatLink(phone, text string) string {
	number := FormatPhoneNumber(phone)
	if number == "" {
		return ""
	}
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(text)
}

// Money renders a value as R$ 1.234,50
func Money(v decimal.Decimal) string {
	s := v.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(c)
	}
	out := "R$ " + grouped.String() + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

// ForOrder builds the driver links for one delivery. The confirmation goes to
// the company phone and is omitted when none is configured.
func ForOrder(order models.DriverOrder, companyPhone string) DriverActions {
	a := DriverActions{
		Going:   ChatLink(order.Phone, fmt.Sprintf("Olá %s, seu pedido saiu para entrega e está chegando! 🛵", order.Customer)),
		Arrived: ChatLink(order.Phone, fmt.Sprintf("Olá %s, o entregador chegou! 📍", order.Customer)),
		Map:     order.MapLink,
	}

	var pay strings.Builder
	pay.WriteString(order.PayMethod)
	if order.Change != nil && order.Change.IsPositive() {
		pay.WriteString(" (Troco " + Money(*order.Change) + ")")
	}
	text := fmt.Sprintf("✅ BAIXA DE ENTREGA\n\nCliente: %s\nValor: %s\nPgto: %s\nStatus: ENTREGUE",
		order.Customer, Money(order.Total), pay.String())
	a.Confirm = ChatLink(companyPhone, text)
	return a
}
