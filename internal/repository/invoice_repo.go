package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"invoicer/internal/model"
	"invoicer/internal/storage"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type InvoiceRepository interface {
	Add(ctx context.Context, invoice model.Invoice) (model.Invoice, error)
	// Update applies fn to a copy of the stored record. It reports false and leaves the
	// store untouched when the result equals what is already stored.
	Update(ctx context.Context, id string, apply func(*model.Invoice)) (model.Invoice, bool, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (model.Invoice, error)
	List(ctx context.Context) ([]model.Invoice, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Invoice, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

type invoiceRepository struct {
	items      collection[model.Invoice]
	tx         TransactionManager
	workspaces WorkspaceRepository
	clock      clockwork.Clock
}

func NewInvoiceRepository(store storage.Store, tx TransactionManager, workspaces WorkspaceRepository, opts Options) InvoiceRepository {
	return &invoiceRepository{
		items:      newCollection[model.Invoice](store, storage.KeyInvoices),
		tx:         tx,
		workspaces: workspaces,
		clock:      opts.clock(),
	}
}

// Add stores a new record. A caller-supplied id is kept unless it is already taken,
// which lets a draft keep its id when it is promoted.
func (r *invoiceRepository) Add(ctx context.Context, invoice model.Invoice) (model.Invoice, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := r.workspaces.Exists(ctx, invoice.WorkspaceID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWorkspaceNotFound
		}

		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		if invoice.ID == "" || r.indexOf(items, invoice.ID) >= 0 {
			invoice.ID = uuid.NewString()
		}
		invoice.CreatedAt = r.clock.Now()
		invoice.UpdatedAt = nil
		invoice.Normalize()
		return r.items.save(ctx, append(items, invoice))
	})
	if err != nil {
		return model.Invoice{}, err
	}
	return invoice, nil
}

func (r *invoiceRepository) Update(ctx context.Context, id string, apply func(*model.Invoice)) (model.Invoice, bool, error) {
	var (
		result  model.Invoice
		changed bool
	)
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		idx := r.indexOf(items, id)
		if idx < 0 {
			return ErrNotFound
		}

		stored := items[idx]
		stored.Normalize()
		next := stored.Copy()
		apply(&next)
		if next.ID != id || next.WorkspaceID != stored.WorkspaceID {
			return ErrInvalidUpdate
		}
		next.CreatedAt = stored.CreatedAt
		next.Normalize()

		if model.SameContent(stored, next) {
			result = stored
			return nil
		}

		now := model.CanonicalTime(r.clock.Now())
		next.UpdatedAt = &now
		items[idx] = next
		if err := r.items.save(ctx, items); err != nil {
			return err
		}
		result, changed = next, true
		return nil
	})
	return result, changed, err
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		idx := r.indexOf(items, id)
		if idx < 0 {
			return ErrNotFound
		}
		return r.items.save(ctx, append(items[:idx], items[idx+1:]...))
	})
}

func (r *invoiceRepository) FindByID(ctx context.Context, id string) (model.Invoice, error) {
	items, err := r.items.load(ctx)
	if err != nil {
		return model.Invoice{}, err
	}
	idx := r.indexOf(items, id)
	if idx < 0 {
		return model.Invoice{}, ErrNotFound
	}
	return items[idx].Effective(), nil
}

func (r *invoiceRepository) List(ctx context.Context) ([]model.Invoice, error) {
	items, err := r.items.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Effective()
	}
	return items, nil
}

func (r *invoiceRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]model.Invoice, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Invoice{}
	for _, inv := range items {
		if inv.WorkspaceID == workspaceID {
			out = append(out, inv)
		}
	}
	return out, nil
}

var invoiceNumberPattern = regexp.MustCompile(`INV-(\d+)`)

// NextInvoiceNumber scans every invoice for the highest INV-NNNN suffix. It is computed
// on read; there is no stored counter.
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context) (string, error) {
	items, err := r.items.load(ctx)
	if err != nil {
		return "", err
	}
	return NextInvoiceNumber(items), nil
}

// NextInvoiceNumber returns INV-<max+1> padded to four digits, or INV-0001 when no
// invoice carries a number in that pattern.
func NextInvoiceNumber(invoices []model.Invoice) string {
	highest := 0
	for _, inv := range invoices {
		m := invoiceNumberPattern.FindStringSubmatch(inv.Number)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("INV-%04d", highest+1)
}

func (r *invoiceRepository) indexOf(items []model.Invoice, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
