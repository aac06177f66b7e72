package repository_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// countingStore records how many writes reach the underlying store.
type countingStore struct {
	*storage.MemoryStore
	sets int
}

func (s *countingStore) Set(ctx context.Context, key, value string) error {
	s.sets++
	return s.MemoryStore.Set(ctx, key, value)
}

func setup(t *testing.T, opts repository.Options) (*repository.Repositories, *countingStore, model.Workspace) {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	}
	store := &countingStore{MemoryStore: storage.NewMemoryStore()}
	repos := repository.New(store, opts)
	ws, err := repos.Workspaces.Add(context.Background(), model.Workspace{Name: "Acme"})
	if err != nil {
		t.Fatalf("add workspace: %v", err)
	}
	return repos, store, ws
}

func defaults(t *testing.T, items []model.Business) []string {
	t.Helper()
	var ids []string
	for _, b := range items {
		if b.IsDefault {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func TestBusinessDefaults(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})

	x, err := repos.Businesses.Add(ctx, model.Business{WorkspaceID: ws.ID, Name: "X"})
	if err != nil {
		t.Fatal(err)
	}
	if !x.IsDefault {
		t.Fatal("first business of a workspace should be default")
	}
	y, err := repos.Businesses.Add(ctx, model.Business{WorkspaceID: ws.ID, Name: "Y"})
	if err != nil {
		t.Fatal(err)
	}
	if y.IsDefault {
		t.Fatal("second business should not be default")
	}

	if err := repos.Businesses.SetDefault(ctx, y.ID); err != nil {
		t.Fatal(err)
	}
	list, _ := repos.Businesses.ListByWorkspace(ctx, ws.ID)
	if got := defaults(t, list); len(got) != 1 || got[0] != y.ID {
		t.Fatalf("defaults after SetDefault = %v, want [%s]", got, y.ID)
	}

	// Deleting the default promotes the remaining one.
	if err := repos.Businesses.Delete(ctx, y.ID); err != nil {
		t.Fatal(err)
	}
	list, _ = repos.Businesses.ListByWorkspace(ctx, ws.ID)
	if got := defaults(t, list); len(got) != 1 || got[0] != x.ID {
		t.Fatalf("defaults after delete = %v, want [%s]", got, x.ID)
	}

	// Deleting the sole business leaves nothing and is not an error.
	if err := repos.Businesses.Delete(ctx, x.ID); err != nil {
		t.Fatalf("Delete(last) error = %v", err)
	}
	list, _ = repos.Businesses.ListByWorkspace(ctx, ws.ID)
	if len(list) != 0 {
		t.Fatalf("got %d businesses, want 0", len(list))
	}
}

func TestProtectLastRecord(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{ProtectLastRecord: true})

	acct, err := repos.BankAccounts.Add(ctx, model.BankAccount{WorkspaceID: ws.ID, Name: "Main"})
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.BankAccounts.Delete(ctx, acct.ID); !errors.Is(err, repository.ErrLastDefaultRecord) {
		t.Fatalf("Delete(last) error = %v, want ErrLastDefaultRecord", err)
	}

	// Customers are not guarded.
	c, _ := repos.Customers.Add(ctx, model.Customer{WorkspaceID: ws.ID, BusinessName: "Client"})
	if err := repos.Customers.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete(customer) error = %v", err)
	}
}

func TestCustomerNeverAutoDefault(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})

	c, err := repos.Customers.Add(ctx, model.Customer{WorkspaceID: ws.ID, BusinessName: "First"})
	if err != nil {
		t.Fatal(err)
	}
	if c.IsDefault {
		t.Fatal("customer became default without being asked")
	}
	d, _ := repos.Customers.Add(ctx, model.Customer{WorkspaceID: ws.ID, BusinessName: "Second", IsDefault: true})
	if _, err := repos.Customers.Update(ctx, c.ID, func(c *model.Customer) { c.IsDefault = true }); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Customers.FindByID(ctx, d.ID)
	if got.IsDefault {
		t.Fatal("Update to default did not clear the previous default")
	}
}

func TestScopedAddRequiresWorkspace(t *testing.T) {
	repos, _, _ := setup(t, repository.Options{})
	_, err := repos.Templates.Add(context.Background(), model.Template{WorkspaceID: "nope", Name: "T"})
	if !errors.Is(err, repository.ErrWorkspaceNotFound) {
		t.Fatalf("Add() error = %v, want ErrWorkspaceNotFound", err)
	}
}

func TestScopedUpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})
	b, _ := repos.Businesses.Add(ctx, model.Business{WorkspaceID: ws.ID, Name: "X"})
	_, err := repos.Businesses.Update(ctx, b.ID, func(b *model.Business) { b.WorkspaceID = "other" })
	if !errors.Is(err, repository.ErrInvalidUpdate) {
		t.Fatalf("Update() error = %v, want ErrInvalidUpdate", err)
	}
}

func TestDefaultUniquenessUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	repos, _, wsA := setup(t, repository.Options{})
	wsB, _ := repos.Workspaces.Add(ctx, model.Workspace{Name: "B"})
	workspaces := []string{wsA.ID, wsB.ID}
	rng := rand.New(rand.NewSource(7))

	for step := 0; step < 300; step++ {
		ws := workspaces[rng.Intn(len(workspaces))]
		list, _ := repos.BankAccounts.ListByWorkspace(ctx, ws)
		switch op := rng.Intn(4); {
		case op == 0 || len(list) == 0:
			_, err := repos.BankAccounts.Add(ctx, model.BankAccount{WorkspaceID: ws, IsDefault: rng.Intn(3) == 0})
			if err != nil {
				t.Fatal(err)
			}
		case op == 1:
			if err := repos.BankAccounts.Delete(ctx, list[rng.Intn(len(list))].ID); err != nil {
				t.Fatal(err)
			}
		case op == 2:
			if err := repos.BankAccounts.SetDefault(ctx, list[rng.Intn(len(list))].ID); err != nil {
				t.Fatal(err)
			}
		default:
			flag := rng.Intn(2) == 0
			if _, err := repos.BankAccounts.Update(ctx, list[rng.Intn(len(list))].ID, func(a *model.BankAccount) { a.IsDefault = flag }); err != nil {
				t.Fatal(err)
			}
		}

		for _, w := range workspaces {
			accounts, _ := repos.BankAccounts.ListByWorkspace(ctx, w)
			n := 0
			for _, a := range accounts {
				if a.IsDefault {
					n++
				}
			}
			if n > 1 {
				t.Fatalf("step %d: workspace %s has %d defaults", step, w, n)
			}
		}
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})

	n, err := repos.Invoices.NextInvoiceNumber(ctx)
	if err != nil || n != "INV-0001" {
		t.Fatalf("NextInvoiceNumber() on empty = %q, %v", n, err)
	}

	for _, number := range []string{"INV-0003", "INV-0007", "custom"} {
		form := model.InvoiceForm{Number: number}
		if _, err := repos.Invoices.Add(ctx, model.Invoice{Status: model.StatusPending, InvoiceForm: form, WorkspaceID: ws.ID}); err != nil {
			t.Fatal(err)
		}
	}
	n, _ = repos.Invoices.NextInvoiceNumber(ctx)
	if n != "INV-0008" {
		t.Fatalf("NextInvoiceNumber() = %q, want INV-0008", n)
	}
}

func TestNextInvoiceNumberPadding(t *testing.T) {
	tests := []struct {
		numbers []string
		want    string
	}{
		{nil, "INV-0001"},
		{[]string{"INV-0009"}, "INV-0010"},
		{[]string{"INV-9999"}, "INV-10000"},
		{[]string{"draft", "INV-12"}, "INV-0013"},
	}
	for _, tt := range tests {
		var invoices []model.Invoice
		for _, n := range tt.numbers {
			invoices = append(invoices, model.Invoice{InvoiceForm: model.InvoiceForm{Number: n}})
		}
		if got := repository.NextInvoiceNumber(invoices); got != tt.want {
			t.Errorf("NextInvoiceNumber(%v) = %q, want %q", tt.numbers, got, tt.want)
		}
	}
}

func TestInvoiceUpdateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	repos, store, ws := setup(t, repository.Options{Clock: clock})

	date := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.FixedZone("CET", 3600))
	inv, err := repos.Invoices.Add(ctx, model.Invoice{
		Status:      model.StatusPending,
		WorkspaceID: ws.ID,
		InvoiceForm: model.InvoiceForm{
			Number: "INV-0001",
			Date:   date,
			Items:  []model.Item{{Description: "Work", Quantity: decimal.NewFromInt(2), Rate: decimal.RequireFromString("10.50")}},
		},
		ActiveFields: []string{model.FieldGST},
	})
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Minute)
	before := store.sets
	snapshot := inv.InvoiceForm.Clone()
	snapshot.Date = date // same instant in another zone with sub-millisecond noise
	got, changed, err := repos.Invoices.Update(ctx, inv.ID, func(i *model.Invoice) { i.InvoiceForm = snapshot })
	if err != nil {
		t.Fatal(err)
	}
	if changed || store.sets != before {
		t.Fatalf("identical snapshot caused a write (changed=%v, writes=%d)", changed, store.sets-before)
	}
	if got.UpdatedAt != nil {
		t.Fatalf("updatedAt = %v, want unset", got.UpdatedAt)
	}

	snapshot.Notes = "Thanks"
	got, changed, err = repos.Invoices.Update(ctx, inv.ID, func(i *model.Invoice) { i.InvoiceForm = snapshot })
	if err != nil || !changed {
		t.Fatalf("Update() = changed %v, err %v", changed, err)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("updatedAt = %v, want %v", got.UpdatedAt, clock.Now())
	}
}

func TestInvoiceReadersSeeOnlyActiveFields(t *testing.T) {
	ctx := context.Background()
	repos, store, ws := setup(t, repository.Options{})

	// A record written by hand with a stale value outside its active set.
	raw := `[{"id":"inv-1","status":"pending","number":"INV-0001","workspaceId":"` + ws.ID +
		`","activeFields":["taxId"],"gst":"STALE","taxId":"T-1","items":[]}]`
	if err := store.Set(ctx, storage.KeyInvoices, raw); err != nil {
		t.Fatal(err)
	}
	inv, err := repos.Invoices.FindByID(ctx, "inv-1")
	if err != nil {
		t.Fatal(err)
	}
	if inv.GST != nil {
		t.Fatalf("gst = %q, want absent", *inv.GST)
	}
	if inv.TaxID == nil || *inv.TaxID != "T-1" {
		t.Fatalf("taxId = %v, want T-1", inv.TaxID)
	}
}

func TestLegacyInvoiceDerivesActiveFields(t *testing.T) {
	ctx := context.Background()
	repos, store, ws := setup(t, repository.Options{})

	raw := `[{"id":"old","status":"paid","number":"INV-0002","workspaceId":"` + ws.ID +
		`","gst":"GST-9","vatNumber":"","items":[]}]`
	store.Set(ctx, storage.KeyInvoices, raw)

	inv, err := repos.Invoices.FindByID(ctx, "old")
	if err != nil {
		t.Fatal(err)
	}
	if len(inv.ActiveFields) != 1 || inv.ActiveFields[0] != model.FieldGST {
		t.Fatalf("derived active fields = %v, want [gst]", inv.ActiveFields)
	}
}

func TestMalformedCollectionReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	repos, store, ws := setup(t, repository.Options{})
	store.Set(ctx, storage.KeyCustomers, "{not json")
	store.Set(ctx, storage.KeyDraft, "{")

	list, err := repos.Customers.ListByWorkspace(ctx, ws.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("ListByWorkspace() = %v, %v; want empty", list, err)
	}
	draft, err := repos.Drafts.Get(ctx)
	if err != nil || draft != nil {
		t.Fatalf("Drafts.Get() = %v, %v; want nil", draft, err)
	}
}

func TestInvoiceAddKeepsFreeID(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})

	first, _ := repos.Invoices.Add(ctx, model.Invoice{ID: "draft-1", WorkspaceID: ws.ID, Status: model.StatusDraft})
	if first.ID != "draft-1" {
		t.Fatalf("ID = %q, want draft-1", first.ID)
	}
	second, _ := repos.Invoices.Add(ctx, model.Invoice{ID: "draft-1", WorkspaceID: ws.ID, Status: model.StatusDraft})
	if second.ID == "draft-1" {
		t.Fatal("duplicate id was reused")
	}
}

func TestListingNeverCrossesWorkspaces(t *testing.T) {
	ctx := context.Background()
	repos, _, wsA := setup(t, repository.Options{})
	wsB, _ := repos.Workspaces.Add(ctx, model.Workspace{Name: "B"})

	repos.Invoices.Add(ctx, model.Invoice{WorkspaceID: wsA.ID, Status: model.StatusPending})
	repos.Invoices.Add(ctx, model.Invoice{WorkspaceID: wsB.ID, Status: model.StatusPending})
	repos.Businesses.Add(ctx, model.Business{WorkspaceID: wsB.ID, Name: "B biz"})

	invoices, _ := repos.Invoices.ListByWorkspace(ctx, wsA.ID)
	if len(invoices) != 1 || invoices[0].WorkspaceID != wsA.ID {
		t.Fatalf("invoices for A = %+v", invoices)
	}
	businesses, _ := repos.Businesses.ListByWorkspace(ctx, wsA.ID)
	if len(businesses) != 0 {
		t.Fatalf("businesses for A = %+v", businesses)
	}
}

func TestRunInTxIsReentrant(t *testing.T) {
	tx := repository.NewTransactionManager()
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		tx.RunInTx(ctx, func(outer context.Context) error {
			if !repository.InTx(outer, tx) {
				t.Error("outer context not marked")
			}
			return tx.RunInTx(outer, func(context.Context) error { return nil })
		})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested RunInTx deadlocked")
	}
}

func TestCurrentWorkspace(t *testing.T) {
	ctx := context.Background()
	repos, _, ws := setup(t, repository.Options{})

	if id, err := repos.Workspaces.CurrentID(ctx); err != nil || id != "" {
		t.Fatalf("CurrentID() = %q, %v; want empty", id, err)
	}
	if err := repos.Workspaces.SetCurrent(ctx, "missing"); !errors.Is(err, repository.ErrWorkspaceNotFound) {
		t.Fatalf("SetCurrent(missing) error = %v", err)
	}
	if err := repos.Workspaces.SetCurrent(ctx, ws.ID); err != nil {
		t.Fatal(err)
	}
	if id, _ := repos.Workspaces.CurrentID(ctx); id != ws.ID {
		t.Fatalf("CurrentID() = %q, want %q", id, ws.ID)
	}
}
