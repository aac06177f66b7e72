package repository

import (
	"context"
	"errors"
	"fmt"

	"invoicer/internal/model"
	"invoicer/internal/storage"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// WorkspaceRepository owns the workspace list and the current workspace pointer.
type WorkspaceRepository interface {
	List(ctx context.Context) ([]model.Workspace, error)
	FindByID(ctx context.Context, id string) (model.Workspace, error)
	Exists(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, ws model.Workspace) (model.Workspace, error)
	Update(ctx context.Context, id string, apply func(*model.Workspace)) (model.Workspace, error)
	Delete(ctx context.Context, id string) error
	// CurrentID returns "" when no workspace has been selected.
	CurrentID(ctx context.Context) (string, error)
	SetCurrent(ctx context.Context, id string) error
}

type workspaceRepository struct {
	store storage.Store
	items collection[model.Workspace]
	tx    TransactionManager
	clock clockwork.Clock
}

func NewWorkspaceRepository(store storage.Store, tx TransactionManager, opts Options) WorkspaceRepository {
	return &workspaceRepository{
		store: store,
		items: newCollection[model.Workspace](store, storage.KeyWorkspaces),
		tx:    tx,
		clock: opts.clock(),
	}
}

func (r *workspaceRepository) List(ctx context.Context) ([]model.Workspace, error) {
	return r.items.load(ctx)
}

func (r *workspaceRepository) FindByID(ctx context.Context, id string) (model.Workspace, error) {
	items, err := r.items.load(ctx)
	if err != nil {
		return model.Workspace{}, err
	}
	for _, ws := range items {
		if ws.ID == id {
			return ws, nil
		}
	}
	return model.Workspace{}, ErrWorkspaceNotFound
}

func (r *workspaceRepository) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, ErrWorkspaceNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *workspaceRepository) Add(ctx context.Context, ws model.Workspace) (model.Workspace, error) {
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		ws.ID = uuid.NewString()
		ws.CreatedAt = model.CanonicalTime(r.clock.Now())
		return r.items.save(ctx, append(items, ws))
	})
	if err != nil {
		return model.Workspace{}, err
	}
	return ws, nil
}

func (r *workspaceRepository) Update(ctx context.Context, id string, apply func(*model.Workspace)) (model.Workspace, error) {
	var updated model.Workspace
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID != id {
				continue
			}
			next := items[i]
			apply(&next)
			if next.ID != id {
				return ErrInvalidUpdate
			}
			items[i] = next
			updated = next
			return r.items.save(ctx, items)
		}
		return ErrWorkspaceNotFound
	})
	return updated, err
}

func (r *workspaceRepository) Delete(ctx context.Context, id string) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		items, err := r.items.load(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				return r.items.save(ctx, append(items[:i], items[i+1:]...))
			}
		}
		return ErrWorkspaceNotFound
	})
}

func (r *workspaceRepository) CurrentID(ctx context.Context) (string, error) {
	id, ok, err := r.store.Get(ctx, storage.KeyCurrentWorkspace)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", storage.KeyCurrentWorkspace, err)
	}
	if !ok {
		return "", nil
	}
	return id, nil
}

func (r *workspaceRepository) SetCurrent(ctx context.Context, id string) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		ok, err := r.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrWorkspaceNotFound
		}
		return r.store.Set(ctx, storage.KeyCurrentWorkspace, id)
	})
}
