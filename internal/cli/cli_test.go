package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"invoicer/internal/cli"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

func newApp(t *testing.T) (*cli.App, model.Workspace) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	app := cli.NewApp(storage.NewMemoryStore(), repository.Options{Clock: clock})
	ws, err := app.Services.Workspaces.EnsureDefault(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	return app, ws
}

func run(t *testing.T, app *cli.App, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand(func(context.Context) (*cli.App, error) { return app, nil })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func addInvoice(t *testing.T, app *cli.App, ws model.Workspace, customer string) model.Invoice {
	t.Helper()
	inv, err := app.Services.Invoices.AddInvoice(context.Background(), model.Invoice{
		WorkspaceID: ws.ID,
		InvoiceForm: model.InvoiceForm{
			Date:     time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			Currency: "EUR",
			To:       model.Recipient{BusinessName: customer, Address: "1 Main St"},
			Items: []model.Item{
				{Description: "Consulting", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(150)},
			},
		},
		ActiveFields: []string{},
	})
	if err != nil {
		t.Fatalf("AddInvoice() error = %v", err)
	}
	return inv
}

func TestNextNumber(t *testing.T) {
	app, ws := newApp(t)

	out, err := run(t, app, "invoices", "next-number")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "INV-0001" {
		t.Errorf("next-number on an empty store = %q, want INV-0001", out)
	}

	addInvoice(t, app, ws, "Acme")
	out, _ = run(t, app, "invoices", "next-number")
	if strings.TrimSpace(out) != "INV-0002" {
		t.Errorf("next-number after one invoice = %q, want INV-0002", out)
	}
}

func TestInvoicesList(t *testing.T) {
	app, ws := newApp(t)
	addInvoice(t, app, ws, "Acme")
	addInvoice(t, app, ws, "Globex")

	out, err := run(t, app, "invoices", "list", "--search", "glob")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Globex") || strings.Contains(out, "Acme") {
		t.Errorf("search output:\n%s", out)
	}
	if !strings.Contains(out, "300.00 EUR") {
		t.Errorf("expected computed total in output:\n%s", out)
	}
	if !strings.Contains(out, "1 of 1 invoices") {
		t.Errorf("expected count line in output:\n%s", out)
	}

	out, err = run(t, app, "invoices", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var listed []service.InvoiceResponse
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("--json output does not decode: %v", err)
	}
	if len(listed) != 2 {
		t.Errorf("listed %d invoices, want 2", len(listed))
	}
}

func TestInvoicesListRejectsUnknownStatus(t *testing.T) {
	app, _ := newApp(t)
	if _, err := run(t, app, "invoices", "list", "--status", "archived"); err == nil {
		t.Fatal("expected an error for an unknown status")
	}
}

func TestWorkspacesUse(t *testing.T) {
	app, _ := newApp(t)
	ctx := context.Background()
	other, err := app.Services.Workspaces.CreateWorkspace(ctx, service.CreateWorkspaceRequest{Name: "Side Gig"})
	if err != nil {
		t.Fatal(err)
	}
	personal, _ := app.Services.Workspaces.ListWorkspaces(ctx)

	if _, err := run(t, app, "workspaces", "use", personal[0].ID); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, app, "workspaces", "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, other.ID) && strings.HasPrefix(line, "*") {
			t.Errorf("Side Gig still marked current:\n%s", out)
		}
	}

	if _, err := run(t, app, "workspaces", "use", "missing"); err == nil {
		t.Error("expected an error switching to an unknown workspace")
	}
}

func TestDraftShowAndClear(t *testing.T) {
	app, ws := newApp(t)
	ctx := context.Background()

	out, err := run(t, app, "draft", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No draft saved") {
		t.Errorf("draft show on empty slot = %q", out)
	}

	saved, err := app.Repos.Drafts.Save(ctx, model.Draft{ID: "draft-1", WorkspaceID: ws.ID, ActiveFields: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	out, _ = run(t, app, "draft", "show")
	if !strings.Contains(out, saved.ID) {
		t.Errorf("draft show missing the draft id:\n%s", out)
	}

	if _, err := run(t, app, "draft", "clear"); err != nil {
		t.Fatal(err)
	}
	if d, _ := app.Repos.Drafts.Get(ctx); d != nil {
		t.Errorf("draft still stored after clear: %+v", d)
	}
}

func TestExportWritesPDF(t *testing.T) {
	app, ws := newApp(t)
	inv := addInvoice(t, app, ws, "Acme")
	path := filepath.Join(t.TempDir(), "out.pdf")

	if _, err := run(t, app, "invoices", "export", inv.ID, "-o", path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("export did not write a PDF, got %q", data[:min(len(data), 8)])
	}
}

func TestStats(t *testing.T) {
	app, ws := newApp(t)
	addInvoice(t, app, ws, "Acme")
	addInvoice(t, app, ws, "Acme")

	out, err := run(t, app, "stats", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var stats model.StatisticsResponse
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("stats --json does not decode: %v", err)
	}
	if stats.TotalInvoices != 2 || !stats.TotalInvoiced.Equal(decimal.NewFromInt(600)) {
		t.Errorf("stats = %d invoices, %s invoiced", stats.TotalInvoices, stats.TotalInvoiced)
	}

	out, err = run(t, app, "stats", "--from", "2024-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Invoices:    0") {
		t.Errorf("invoices before --from were counted:\n%s", out)
	}

	out, err = run(t, app, "stats", "--group-by", "month")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2024-02-01") || !strings.Contains(out, "600.00") {
		t.Errorf("monthly revenue missing from output:\n%s", out)
	}

	if _, err := run(t, app, "stats", "--from", "March"); err == nil {
		t.Error("expected an error for a malformed --from")
	}
}
