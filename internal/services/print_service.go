package services

import (
	"bytes"
	"fmt"
	"strings"

	"delivery-backend/internal/models"
	"delivery-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

// PrintService renders shipping labels and picking lists as PDF
type PrintService struct {
	CompanyName string
}

// NewPrintService creates the PDF renderer headed with companyName
func NewPrintService(companyName string) *PrintService {
	return &PrintService{CompanyName: companyName}
}

// Label renders a 100x150mm shipping label for one order
func (s *PrintService) Label(order models.Order, client models.Client) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: 100, Ht: 150},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 5)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if s.CompanyName != "" {
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(90, 5, tr(s.CompanyName), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(90, 10, "PEDIDO #"+strings.ToUpper(order.ShortID()), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	name := client.Name
	if name == "" {
		name = "-"
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.MultiCell(90, 7, tr(name), "LTR", "C", false)
	pdf.SetFont("Arial", "", 11)
	pdf.MultiCell(90, 6, tr(client.Address), "LR", "C", false)
	pdf.CellFormat(90, 6, tr(strings.Trim(client.District+" - "+client.City, " -")), "LR", 1, "C", false, 0, "")

	route := client.Route
	if route == "" {
		route = "GERAL"
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 8, tr("ROTA: "+strings.ToUpper(route)), "LBR", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "", 9)
	note := order.Note
	if note == "" {
		note = "-"
	}
	pdf.MultiCell(90, 5, tr("OBS: "+note), "", "L", false)
	pdf.CellFormat(90, 5, tr(fmt.Sprintf("Total: R$ %s (%s)", order.Total.StringFixed(2), order.PaymentMethod)), "", 1, "L", false, 0, "")

	return output(pdf)
}

// PickingList renders the checklist used to assemble one order. Bundle lines
// also list their components; productName resolves component names.
func (s *PrintService) PickingList(order models.Order, client models.Client, productName func(id string) string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(128, 8, tr("LISTA DE SEPARAÇÃO #"+strings.ToUpper(order.ShortID())), "B", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(128, 6, tr("CLIENTE: "+client.Name), "", 1, "L", false, 0, "")
	pdf.CellFormat(128, 6, "DATA: "+timeutil.FormatLocal(order.CreatedAt, timeutil.DisplayLayout), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Courier", "", 11)
	for _, it := range order.Items {
		pdf.CellFormat(10, 7, "[ ]", "", 0, "L", false, 0, "")
		pdf.CellFormat(118, 7, tr(fmt.Sprintf("%dx %s", it.Quantity, it.Name)), "", 1, "L", false, 0, "")
		for _, c := range it.Components {
			pdf.CellFormat(18, 5, "", "", 0, "L", false, 0, "")
			name := ""
			if productName != nil {
				name = productName(c.ProductID)
			}
			if name == "" {
				name = c.ProductID[:min(8, len(c.ProductID))]
			}
			pdf.CellFormat(110, 5, tr(fmt.Sprintf("- %dx %s", c.Quantity*it.Quantity, name)), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(2)
	pdf.SetFont("Courier", "", 10)
	pdf.MultiCell(128, 5, tr("OBS: "+order.Note), "T", "L", false)

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
