package export

import (
	"bytes"
	"testing"
	"time"

	"invoicer/internal/model"

	"github.com/shopspring/decimal"
)

func sampleInvoice() model.Invoice {
	return model.Invoice{
		ID:     "inv-1",
		Status: model.StatusPending,
		InvoiceForm: model.InvoiceForm{
			Number:   "INV-0042",
			Date:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			DueDate:  time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			Currency: "EUR",
			From:     model.Sender{Name: "Studio North", Address: "1 Main St"},
			To:       model.Recipient{BusinessName: "Client Co", Address: "2 Side St"},
			Items: []model.Item{
				{Description: "Design", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(150)},
			},
			Tax:        decimal.NewFromInt(10),
			ItemLabels: model.DefaultItemLabels(),
			OptionalFields: model.OptionalFields{
				GST:         model.String("GSTVISIBLE"),
				VATNumber:   model.String("STALEVAT"),
				BankDetails: model.String("STALEBANK"),
			},
		},
		ActiveFields: []string{model.FieldGST},
	}
}

func TestExportRendersOnlyActiveFields(t *testing.T) {
	out, err := (&PDFExporter{}).Export(sampleInvoice(), &model.BankAccount{BankName: "STALEACCOUNT"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header")
	}
	for _, want := range []string{"INV-0042", "GSTVISIBLE", "Client Co", "330.00 EUR"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output misses %q", want)
		}
	}
	for _, stale := range []string{"STALEVAT", "STALEBANK", "STALEACCOUNT"} {
		if bytes.Contains(out, []byte(stale)) {
			t.Errorf("output contains inactive value %q", stale)
		}
	}
}

func TestExportBankDetailsWhenActive(t *testing.T) {
	inv := sampleInvoice()
	inv.ActiveFields = []string{model.FieldBankDetails}
	out, err := (&PDFExporter{}).Export(inv, &model.BankAccount{BankName: "First Bank", AccountNumber: "12345678"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"STALEBANK", "First Bank", "12345678"} {
		if !bytes.Contains(out, []byte(want)) {
			t.Errorf("output misses %q", want)
		}
	}
}

func TestCompressedExport(t *testing.T) {
	out, err := NewPDFExporter().Export(sampleInvoice(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 || !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("empty or invalid compressed output")
	}
}
