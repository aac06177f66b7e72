package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

var epoch = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func setup(t *testing.T) (context.Context, *service.Services, model.Workspace) {
	t.Helper()
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(epoch)
	repos := repository.New(storage.NewMemoryStore(), repository.Options{Clock: clock})
	svcs := service.New(repos, clock)
	ws, err := svcs.Workspaces.EnsureDefault(ctx)
	if err != nil {
		t.Fatalf("EnsureDefault() error = %v", err)
	}
	return ctx, svcs, ws
}

func invoice(ws model.Workspace, date time.Time, status model.InvoiceStatus, qty, rate int64) model.Invoice {
	return model.Invoice{
		WorkspaceID: ws.ID,
		Status:      status,
		InvoiceForm: model.InvoiceForm{
			Date:     date,
			Currency: "EUR",
			To:       model.Recipient{BusinessName: "Acme"},
			Items:    []model.Item{{Description: "Work", Quantity: decimal.NewFromInt(qty), Rate: decimal.NewFromInt(rate)}},
		},
		ActiveFields: []string{},
	}
}

func TestEnsureDefaultIsIdempotent(t *testing.T) {
	ctx, svcs, ws := setup(t)
	if ws.Name != model.DefaultWorkspaceName || !ws.IsPersonal {
		t.Errorf("default workspace = %+v", ws)
	}
	again, err := svcs.Workspaces.EnsureDefault(ctx)
	if err != nil {
		t.Fatal(err)
	}
	all, _ := svcs.Workspaces.ListWorkspaces(ctx)
	if again.ID != ws.ID || len(all) != 1 {
		t.Errorf("second EnsureDefault created another workspace: %d total", len(all))
	}
}

func TestAddInvoiceValidation(t *testing.T) {
	ctx, svcs, ws := setup(t)

	tests := []struct {
		name string
		inv  model.Invoice
	}{
		{"negative quantity", invoice(ws, epoch, "", -1, 10)},
		{"negative rate", invoice(ws, epoch, "", 1, -10)},
		{"unknown status", invoice(ws, epoch, "archived", 1, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svcs.Invoices.AddInvoice(ctx, tt.inv); !errors.Is(err, service.ErrValidation) {
				t.Errorf("AddInvoice() error = %v, want ErrValidation", err)
			}
		})
	}

	created, err := svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, "", 1, 10))
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != model.StatusPending {
		t.Errorf("default status = %s, want pending", created.Status)
	}

	if _, err := svcs.Invoices.AddInvoice(ctx, invoice(model.Workspace{ID: "elsewhere"}, epoch, "", 1, 1)); !errors.Is(err, repository.ErrWorkspaceNotFound) {
		t.Errorf("AddInvoice() into unknown workspace error = %v", err)
	}
}

func TestQuickDeleteOnlyDrafts(t *testing.T) {
	ctx, svcs, ws := setup(t)
	draft, _ := svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, model.StatusDraft, 1, 10))
	paid, _ := svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, model.StatusPaid, 1, 10))

	if err := svcs.Invoices.QuickDelete(ctx, paid.ID); !errors.Is(err, repository.ErrNotDeletable) {
		t.Errorf("QuickDelete(paid) error = %v, want ErrNotDeletable", err)
	}
	if err := svcs.Invoices.QuickDelete(ctx, draft.ID); err != nil {
		t.Fatalf("QuickDelete(draft) error = %v", err)
	}
	if _, err := svcs.Invoices.GetInvoice(ctx, draft.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("draft still readable after quick delete: %v", err)
	}
}

func TestListInvoicesFilterAndPages(t *testing.T) {
	ctx, svcs, ws := setup(t)
	for i := 0; i < 5; i++ {
		status := model.StatusPending
		if i%2 == 0 {
			status = model.StatusPaid
		}
		if _, err := svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, status, 1, 10)); err != nil {
			t.Fatal(err)
		}
	}

	paid, total, err := svcs.Invoices.ListInvoices(ctx, ws.ID, service.InvoiceFilter{Status: "paid"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(paid) != 3 {
		t.Errorf("paid = %d of %d, want 3 of 3", len(paid), total)
	}

	page, total, _ := svcs.Invoices.ListInvoices(ctx, ws.ID, service.InvoiceFilter{Page: 3, Limit: 2})
	if total != 5 || len(page) != 1 {
		t.Errorf("page 3 = %d items of %d, want 1 of 5", len(page), total)
	}
	beyond, _, _ := svcs.Invoices.ListInvoices(ctx, ws.ID, service.InvoiceFilter{Page: 9, Limit: 2})
	if beyond == nil || len(beyond) != 0 {
		t.Errorf("page past the end = %v, want an empty list", beyond)
	}

	found, _, _ := svcs.Invoices.ListInvoices(ctx, ws.ID, service.InvoiceFilter{Search: "inv-0004"})
	if len(found) != 1 || found[0].Number != "INV-0004" {
		t.Errorf("search by number = %+v", found)
	}
}

func TestBlankFormSender(t *testing.T) {
	ctx, svcs, ws := setup(t)

	if _, err := svcs.Workspaces.UpdateBusinessDetails(ctx, ws.ID, model.BusinessDetails{Name: "Fallback Co", Logo: "fallback.png"}); err != nil {
		t.Fatal(err)
	}
	form, err := svcs.Invoices.BlankForm(ctx, ws.ID)
	if err != nil {
		t.Fatal(err)
	}
	if form.From.Name != "Fallback Co" || form.Logo != "fallback.png" {
		t.Errorf("sender without a default business = %+v logo %q", form.From, form.Logo)
	}
	if form.Number != "INV-0001" || form.Currency != "EUR" || len(form.Items) != 1 {
		t.Errorf("blank form = %+v", form)
	}
	if want := model.CanonicalTime(epoch).Add(30 * 24 * time.Hour); !form.DueDate.Equal(want) {
		t.Errorf("due date = %v, want %v", form.DueDate, want)
	}

	if _, err := svcs.Businesses.Create(ctx, ws.ID, model.Business{Name: "Default Biz", Logo: "biz.png"}); err != nil {
		t.Fatal(err)
	}
	form, _ = svcs.Invoices.BlankForm(ctx, ws.ID)
	if form.From.Name != "Default Biz" || form.Logo != "biz.png" {
		t.Errorf("default business did not win: %+v", form.From)
	}
}

func TestDeleteWorkspace(t *testing.T) {
	ctx, svcs, personal := setup(t)

	if err := svcs.Workspaces.DeleteWorkspace(ctx, personal.ID); !errors.Is(err, service.ErrLastWorkspace) {
		t.Errorf("deleting the last workspace error = %v", err)
	}

	agency, err := svcs.Workspaces.CreateWorkspace(ctx, service.CreateWorkspaceRequest{Name: "Agency"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svcs.Customers.Create(ctx, agency.ID, model.Customer{BusinessName: "Client"}); err != nil {
		t.Fatal(err)
	}
	if err := svcs.Workspaces.DeleteWorkspace(ctx, agency.ID); !errors.Is(err, service.ErrWorkspaceNotEmpty) {
		t.Errorf("deleting a workspace with customers error = %v", err)
	}

	empty, _ := svcs.Workspaces.CreateWorkspace(ctx, service.CreateWorkspaceRequest{Name: "Empty"})
	if err := svcs.Workspaces.DeleteWorkspace(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteWorkspace(empty) error = %v", err)
	}
	current, _ := svcs.Workspaces.Current(ctx)
	if current.ID == empty.ID {
		t.Error("current workspace still points at the deleted one")
	}
}

func TestTemplates(t *testing.T) {
	ctx, svcs, ws := setup(t)

	seeded, err := svcs.Templates.EnsureStandard(ctx, ws.ID)
	if err != nil {
		t.Fatal(err)
	}
	if seeded {
		t.Error("standard template seeded twice; the workspace got one on creation")
	}
	list, _ := svcs.Templates.List(ctx, ws.ID)
	if len(list) != 1 || !list[0].IsDefault {
		t.Fatalf("templates = %+v", list)
	}

	dup, err := svcs.Templates.Duplicate(ctx, ws.ID, list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if dup.ID == list[0].ID || dup.IsDefault || len(dup.Sections) != len(list[0].Sections) {
		t.Errorf("duplicate = %+v", dup)
	}
}

func sameAccount(a, b model.BankAccount) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	a.CreatedAt, b.CreatedAt = time.Time{}, time.Time{}
	return a == b
}

func TestRecordUpdate(t *testing.T) {
	ctx, svcs, ws := setup(t)
	acct, err := svcs.BankAccounts.Create(ctx, ws.ID, model.BankAccount{Name: "Main", BankName: "First Bank"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svcs.BankAccounts.Update(ctx, ws.ID, acct.ID, []byte(`{"id":"other"}`)); !errors.Is(err, repository.ErrInvalidUpdate) {
		t.Errorf("Update() changing id error = %v, want ErrInvalidUpdate", err)
	}
	updated, err := svcs.BankAccounts.Update(ctx, ws.ID, acct.ID, []byte(`{"swiftCode":"FBNKUS33"}`))
	if err != nil {
		t.Fatal(err)
	}
	if updated.SwiftCode != "FBNKUS33" || updated.BankName != "First Bank" {
		t.Errorf("merged record = %+v", updated)
	}
	stored, err := svcs.BankAccounts.Get(ctx, ws.ID, acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !sameAccount(stored, updated) {
		t.Errorf("stored record %+v differs from the returned merge %+v", stored, updated)
	}

	// A body that is not an object is rejected before anything is written.
	if _, err := svcs.BankAccounts.Update(ctx, ws.ID, acct.ID, []byte(`["swiftCode"]`)); !errors.Is(err, service.ErrValidation) {
		t.Errorf("Update() with an array body error = %v, want ErrValidation", err)
	}
	if again, _ := svcs.BankAccounts.Get(ctx, ws.ID, acct.ID); !sameAccount(again, updated) {
		t.Errorf("record changed by a rejected patch: %+v", again)
	}

	other, _ := svcs.Workspaces.CreateWorkspace(ctx, service.CreateWorkspaceRequest{Name: "Other"})
	if _, err := svcs.BankAccounts.Update(ctx, other.ID, acct.ID, []byte(`{"name":"Stolen"}`)); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Update() from another workspace error = %v, want ErrNotFound", err)
	}
}

func TestStatistics(t *testing.T) {
	ctx, svcs, ws := setup(t)
	svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, model.StatusPaid, 2, 50))
	svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, model.StatusPending, 1, 40))
	svcs.Invoices.AddInvoice(ctx, invoice(ws, epoch, model.StatusDraft, 1, 1000))

	stats, err := svcs.Statistics.GetStatistics(ctx, ws.ID, time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalInvoices != 3 {
		t.Errorf("TotalInvoices = %d, want 3", stats.TotalInvoices)
	}
	if !stats.TotalInvoiced.Equal(decimal.NewFromInt(140)) || !stats.TotalPaid.Equal(decimal.NewFromInt(100)) || !stats.Outstanding.Equal(decimal.NewFromInt(40)) {
		t.Errorf("invoiced %s paid %s outstanding %s", stats.TotalInvoiced, stats.TotalPaid, stats.Outstanding)
	}
	if len(stats.ByStatus) != 4 || stats.ByStatus[0].Status != model.StatusDraft || stats.ByStatus[0].Count != 1 {
		t.Errorf("ByStatus = %+v", stats.ByStatus)
	}
}

func TestRevenueGrouping(t *testing.T) {
	ctx, svcs, ws := setup(t)
	// 2024-01-17 is a Wednesday, 2024-01-22 the following Monday
	svcs.Invoices.AddInvoice(ctx, invoice(ws, time.Date(2024, 1, 17, 12, 0, 0, 0, time.UTC), model.StatusPending, 1, 100))
	svcs.Invoices.AddInvoice(ctx, invoice(ws, time.Date(2024, 1, 22, 9, 0, 0, 0, time.UTC), model.StatusPaid, 1, 50))
	svcs.Invoices.AddInvoice(ctx, invoice(ws, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), model.StatusPending, 1, 10))
	svcs.Invoices.AddInvoice(ctx, invoice(ws, time.Date(2024, 1, 18, 9, 0, 0, 0, time.UTC), model.StatusDraft, 1, 999))

	tests := []struct {
		groupBy string
		periods []string
	}{
		{"week", []string{"2024-01-15", "2024-01-22", "2024-04-29"}},
		{"month", []string{"2024-01-01", "2024-05-01"}},
		{"", []string{"2024-01-01", "2024-05-01"}},
		{"quarter", []string{"2024-01-01", "2024-04-01"}},
		{"year", []string{"2024-01-01"}},
	}
	for _, tt := range tests {
		points, err := svcs.Revenue.GetRevenueStatistics(ctx, ws.ID, service.RevenueFilter{GroupBy: tt.groupBy})
		if err != nil {
			t.Fatalf("group by %q: %v", tt.groupBy, err)
		}
		var got []string
		for _, p := range points {
			got = append(got, p.Period)
		}
		if len(got) != len(tt.periods) {
			t.Errorf("group by %q periods = %v, want %v", tt.groupBy, got, tt.periods)
			continue
		}
		for i := range got {
			if got[i] != tt.periods[i] {
				t.Errorf("group by %q periods = %v, want %v", tt.groupBy, got, tt.periods)
				break
			}
		}
	}

	months, _ := svcs.Revenue.GetRevenueStatistics(ctx, ws.ID, service.RevenueFilter{GroupBy: "month"})
	jan := months[0]
	if jan.InvoiceCount != 2 || !jan.TotalInvoiced.Equal(decimal.NewFromInt(150)) || !jan.TotalPaid.Equal(decimal.NewFromInt(50)) {
		t.Errorf("january = %+v (drafts must be left out)", jan)
	}

	if _, err := svcs.Revenue.GetRevenueStatistics(ctx, ws.ID, service.RevenueFilter{GroupBy: "decade"}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("unknown group_by error = %v, want ErrValidation", err)
	}
}
