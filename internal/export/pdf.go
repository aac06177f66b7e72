// Package export renders invoices into downloadable documents.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"invoicer/internal/model"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

// Exporter turns an invoice into a document.
type Exporter interface {
	Export(inv model.Invoice, bank *model.BankAccount) ([]byte, error)
	ContentType() string
	Extension() string
}

var fieldLabels = map[string]string{
	model.FieldGST:                "GST",
	model.FieldTaxID:              "Tax ID",
	model.FieldVATNumber:          "VAT Number",
	model.FieldCustomerID:         "Customer ID",
	model.FieldReferenceNumber:    "Reference Number",
	model.FieldProjectCode:        "Project Code",
	model.FieldBankDetails:        "Bank Details",
	model.FieldTermsAndConditions: "Terms & Conditions",
}

// PDFExporter renders A4 invoices with gofpdf core fonts.
type PDFExporter struct {
	// Compress deflates page streams. Off keeps the text searchable in the raw bytes.
	Compress bool
}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{Compress: true}
}

func (e *PDFExporter) ContentType() string { return "application/pdf" }
func (e *PDFExporter) Extension() string   { return "pdf" }

// Export renders the effective view of inv, so optional fields outside its active set
// never reach the document. bank is printed only while bankDetails is active.
func (e *PDFExporter) Export(inv model.Invoice, bank *model.BankAccount) ([]byte, error) {
	inv = inv.Effective()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.Compress)
	pdf.SetTitle("Invoice "+inv.Number, true)
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(20, 20, 20)
	pdf.Cell(0, 10, tr("INVOICE "+inv.Number))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, "Status: "+strings.ToUpper(string(inv.Status)))
	pdf.Ln(5)
	if !inv.Date.IsZero() {
		pdf.Cell(0, 6, "Date: "+inv.Date.Format("2006-01-02"))
		pdf.Ln(5)
	}
	if !inv.DueDate.IsZero() {
		pdf.Cell(0, 6, "Due: "+inv.DueDate.Format("2006-01-02"))
		pdf.Ln(5)
	}
	if inv.PaymentTerms != "" {
		pdf.Cell(0, 6, tr("Payment terms: "+inv.PaymentTerms))
		pdf.Ln(5)
	}
	if inv.PONumber != "" {
		pdf.Cell(0, 6, tr("PO: "+inv.PONumber))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Parties side by side
	pdf.SetTextColor(20, 20, 20)
	y := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(91, 6, "From")
	pdf.Cell(91, 6, "Bill To")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
	left := nonEmpty(inv.From.Name, inv.From.Address, inv.From.PostalCode, inv.From.Email, inv.From.Phone, prefixed("Tax No: ", inv.From.TaxNumber))
	right := nonEmpty(inv.To.BusinessName, inv.To.Address, inv.To.Optional)
	startY := pdf.GetY()
	pdf.MultiCell(91, 5, tr(strings.Join(left, "\n")), "", "L", false)
	leftEnd := pdf.GetY()
	pdf.SetXY(14+91, startY)
	pdf.MultiCell(91, 5, tr(strings.Join(right, "\n")), "", "L", false)
	if leftEnd > pdf.GetY() {
		pdf.SetY(leftEnd)
	}
	if pdf.GetY() < y {
		pdf.SetY(y)
	}
	pdf.Ln(4)

	// Optional fields, filtered by the active set
	var extra []string
	for _, name := range inv.ActiveFields {
		if name == model.FieldBankDetails || name == model.FieldTermsAndConditions {
			continue
		}
		if v := inv.Get(name); v != nil && *v != "" {
			extra = append(extra, fieldLabels[name]+": "+*v)
		}
	}
	if len(extra) > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(strings.Join(extra, "\n")), "", "L", false)
		pdf.Ln(3)
	}

	writeItems(pdf, tr, inv)
	writeTotals(pdf, inv)

	if inv.Notes != "" {
		section(pdf, "Notes")
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}
	if inv.Terms != "" {
		section(pdf, "Terms")
		pdf.MultiCell(0, 5, tr(inv.Terms), "", "L", false)
	}
	if model.ContainsField(inv.ActiveFields, model.FieldBankDetails) {
		lines := nonEmpty(value(inv.BankDetails))
		if bank != nil {
			lines = append(lines, nonEmpty(
				bank.BankName,
				prefixed("Account name: ", bank.AccountName),
				prefixed("Account number: ", bank.AccountNumber),
				prefixed("SWIFT: ", bank.SwiftCode),
				prefixed("IFSC: ", bank.IFSCCode),
				prefixed("Routing: ", bank.RoutingNumber),
			)...)
		}
		if len(lines) > 0 {
			section(pdf, fieldLabels[model.FieldBankDetails])
			pdf.MultiCell(0, 5, tr(strings.Join(lines, "\n")), "", "L", false)
		}
	}
	if v := value(inv.TermsAndConditions); v != "" {
		section(pdf, fieldLabels[model.FieldTermsAndConditions])
		pdf.MultiCell(0, 5, tr(v), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return buf.Bytes(), nil
}

func writeItems(pdf *gofpdf.Fpdf, tr func(string) string, inv model.Invoice) {
	labels := inv.ItemLabels
	colW := []float64{92, 26, 32, 32}

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(245, 245, 245)
		pdf.SetDrawColor(200, 200, 200)
		pdf.CellFormat(colW[0], 8, tr(labels.Description), "1", 0, "L", true, 0, "")
		pdf.CellFormat(colW[1], 8, tr(labels.Quantity), "1", 0, "R", true, 0, "")
		pdf.CellFormat(colW[2], 8, tr(labels.Price), "1", 0, "R", true, 0, "")
		pdf.CellFormat(colW[3], 8, tr(labels.Amount), "1", 1, "R", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	for _, item := range inv.Items {
		if pdf.GetY() > 260 {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(colW[0], 8, tr(trimTo(item.Description, 60)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colW[1], 8, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[2], 8, money(item.Rate, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colW[3], 8, money(item.Amount(), inv.Currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func writeTotals(pdf *gofpdf.Fpdf, inv model.Invoice) {
	rows := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", inv.Subtotal()},
		{"Tax (" + inv.Tax.String() + "%)", inv.TaxAmount()},
		{"Shipping", inv.Shipping},
		{"Discount", inv.Discount.Neg()},
		{"Total", inv.Total()},
		{"Amount paid", inv.AmountPaid},
		{"Balance due", inv.BalanceDue()},
	}
	for _, r := range rows {
		style := ""
		if r.label == "Total" || r.label == "Balance due" {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.CellFormat(150, 6, r.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(32, 6, money(r.value, inv.Currency), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 10)
}

func money(d decimal.Decimal, currency string) string {
	return strings.TrimSpace(d.StringFixed(2) + " " + currency)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func prefixed(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func trimTo(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
