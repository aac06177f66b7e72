package repository

import (
	"context"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/storage"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ScopedRepository is the CRUD contract shared by workspace-scoped records that carry
// an isDefault flag. At most one record per workspace is default.
type ScopedRepository[T any] interface {
	Add(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, apply func(*T)) (T, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (T, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]T, error)
	SetDefault(ctx context.Context, id string) error
	// DeleteByWorkspace removes every record of a workspace that is itself being removed.
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error)
}

type (
	CustomerRepository    = ScopedRepository[model.Customer]
	BusinessRepository    = ScopedRepository[model.Business]
	BankAccountRepository = ScopedRepository[model.BankAccount]
	TemplateRepository    = ScopedRepository[model.Template]
)

type scopedRecord[T any] interface {
	*T
	RecordID() string
	Scope() string
	Default() bool
	SetDefault(bool)
	Stamp(id string, at time.Time)
}

// Options tune repository behaviour.
type Options struct {
	Clock clockwork.Clock
	// ProtectLastRecord refuses to delete the last Business, BankAccount or Template
	// of a workspace.
	ProtectLastRecord bool
}

func (o Options) clock() clockwork.Clock {
	if o.Clock == nil {
		return clockwork.NewRealClock()
	}
	return o.Clock
}

type scopedRepository[T any, P scopedRecord[T]] struct {
	items      collection[T]
	tx         TransactionManager
	workspaces WorkspaceRepository
	clock      clockwork.Clock
	// autoDefault makes the first record of a workspace its default.
	autoDefault bool
	protectLast bool
}

func newScopedRepository[T any, P scopedRecord[T]](store storage.Store, key string, tx TransactionManager, workspaces WorkspaceRepository, opts Options, autoDefault bool) *scopedRepository[T, P] {
	return &scopedRepository[T, P]{
		items:       newCollection[T](store, key),
		tx:          tx,
		workspaces:  workspaces,
		clock:       opts.clock(),
		autoDefault: autoDefault,
		protectLast: opts.ProtectLastRecord && autoDefault,
	}
}

// Customers are never defaulted automatically.
func NewCustomerRepository(store storage.Store, tx TransactionManager, workspaces WorkspaceRepository, opts Options) CustomerRepository {
	return newScopedRepository[model.Customer](store, storage.KeyCustomers, tx, workspaces, opts, false)
}

func NewBusinessRepository(store storage.Store, tx TransactionManager, workspaces WorkspaceRepository, opts Options) BusinessRepository {
	return newScopedRepository[model.Business](store, storage.KeyBusinesses, tx, workspaces, opts, true)
}

func NewBankAccountRepository(store storage.Store, tx TransactionManager, workspaces WorkspaceRepository, opts Options) BankAccountRepository {
	return newScopedRepository[model.BankAccount](store, storage.KeyBankAccounts, tx, workspaces, opts, true)
}

func NewTemplateRepository(store storage.Store, tx TransactionManager, workspaces WorkspaceRepository, opts Options) TemplateRepository {
	return newScopedRepository[model.Template](store, storage.KeyTemplates, tx, workspaces, opts, true)
}

func (r *scopedRepository[T, P]) Add(ctx context.Context, rec T) (T, error) {
	p := P(&rec)
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := r.workspaces.Exists(ctx, p.Scope())
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
		p.Stamp(uuid.NewString(), model.CanonicalTime(r.clock.Now()))
		if r.autoDefault && countScope[T, P](items, p.Scope()) == 0 {
			p.SetDefault(true)
		}
		if p.Default() {
			markDefault[T, P](items, p.Scope(), "")
		}
		return r.items.save(ctx, append(items, rec))
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

func (r *scopedRepository[T, P]) Update(ctx context.Context, id string, apply func(*T)) (T, error) {
	var updated T
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		idx := indexOf[T, P](items, id)
		if idx < 0 {
			return ErrNotFound
		}

		current := P(&items[idx])
		wasDefault, scope := current.Default(), current.Scope()
		next := items[idx]
		apply(&next)
		if P(&next).RecordID() != id || P(&next).Scope() != scope {
			return ErrInvalidUpdate
		}
		items[idx] = next
		if P(&next).Default() && !wasDefault {
			markDefault[T, P](items, scope, id)
		}
		updated = next
		return r.items.save(ctx, items)
	})
	return updated, err
}

func (r *scopedRepository[T, P]) Delete(ctx context.Context, id string) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		idx := indexOf[T, P](items, id)
		if idx < 0 {
			return ErrNotFound
		}

		removed := P(&items[idx])
		scope, wasDefault := removed.Scope(), removed.Default()
		if r.protectLast && countScope[T, P](items, scope) == 1 {
			return ErrLastDefaultRecord
		}
		items = append(items[:idx], items[idx+1:]...)
		if wasDefault {
			for i := range items {
				if P(&items[i]).Scope() == scope {
					P(&items[i]).SetDefault(true)
					break
				}
			}
		}
		return r.items.save(ctx, items)
	})
}

func (r *scopedRepository[T, P]) FindByID(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := r.items.load(ctx)
	if err != nil {
		return zero, err
	}
	idx := indexOf[T, P](items, id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	return items[idx], nil
}

func (r *scopedRepository[T, P]) ListByWorkspace(ctx context.Context, workspaceID string) ([]T, error) {
	items, err := r.items.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for i := range items {
		if P(&items[i]).Scope() == workspaceID {
			out = append(out, items[i])
		}
	}
	return out, nil
}

// SetDefault rewrites the whole list in one store write so readers never observe zero
// or two defaults.
func (r *scopedRepository[T, P]) SetDefault(ctx context.Context, id string) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		idx := indexOf[T, P](items, id)
		if idx < 0 {
			return ErrNotFound
		}
		markDefault[T, P](items, P(&items[idx]).Scope(), id)
		return r.items.save(ctx, items)
	})
}

func (r *scopedRepository[T, P]) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	removed := 0
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		kept := items[:0]
		for i := range items {
			if P(&items[i]).Scope() == workspaceID {
				removed++
				continue
			}
			kept = append(kept, items[i])
		}
		if removed == 0 {
			return nil
		}
		return r.items.save(ctx, kept)
	})
	return removed, err
}

func indexOf[T any, P scopedRecord[T]](items []T, id string) int {
	for i := range items {
		if P(&items[i]).RecordID() == id {
			return i
		}
	}
	return -1
}

func countScope[T any, P scopedRecord[T]](items []T, scope string) int {
	n := 0
	for i := range items {
		if P(&items[i]).Scope() == scope {
			n++
		}
	}
	return n
}

// markDefault makes id the only default of scope. An empty id clears them all.
func markDefault[T any, P scopedRecord[T]](items []T, scope, id string) {
	for i := range items {
		p := P(&items[i])
		if p.Scope() == scope {
			p.SetDefault(p.RecordID() == id && id != "")
		}
	}
}
