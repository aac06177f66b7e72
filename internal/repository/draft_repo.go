package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicer/internal/logger"
	"invoicer/internal/model"
	"invoicer/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// DraftRepository owns the single draft slot.
type DraftRepository interface {
	// Get returns nil when there is no draft or the slot cannot be decoded.
	Get(ctx context.Context) (*model.Draft, error)
	Save(ctx context.Context, draft model.Draft) (model.Draft, error)
	// Clear removes the draft slot together with the legacy active-field key.
	Clear(ctx context.Context) error
	// LegacyActiveFields reads the global active field list written by older versions.
	LegacyActiveFields(ctx context.Context) ([]string, bool, error)
}

type draftRepository struct {
	store storage.Store
	tx    TransactionManager
	clock clockwork.Clock
	log   zerolog.Logger
}

func NewDraftRepository(store storage.Store, tx TransactionManager, opts Options) DraftRepository {
	return &draftRepository{
		store: store,
		tx:    tx,
		clock: opts.clock(),
		log:   logger.WithComponent("repository").With().Str("key", storage.KeyDraft).Logger(),
	}
}

func (r *draftRepository) Get(ctx context.Context) (*model.Draft, error) {
	raw, ok, err := r.store.Get(ctx, storage.KeyDraft)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", storage.KeyDraft, err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}
	var draft model.Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		r.log.Warn().Err(err).Msg("Malformed draft, reading as absent")
		return nil, nil
	}
	return &draft, nil
}

func (r *draftRepository) Save(ctx context.Context, draft model.Draft) (model.Draft, error) {
	draft.UpdatedAt = r.clock.Now()
	draft.Normalize()
	data, err := json.Marshal(draft)
	if err != nil {
		return model.Draft{}, fmt.Errorf("encode draft: %w", err)
	}
	err = r.tx.RunInTx(ctx, func(ctx context.Context) error {
		return r.store.Set(ctx, storage.KeyDraft, string(data))
	})
	if err != nil {
		return model.Draft{}, fmt.Errorf("write %s: %w", storage.KeyDraft, err)
	}
	return draft, nil
}

func (r *draftRepository) Clear(ctx context.Context) error {
	return r.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := r.store.Remove(ctx, storage.KeyDraft); err != nil {
			return fmt.Errorf("remove %s: %w", storage.KeyDraft, err)
		}
		if err := r.store.Remove(ctx, storage.KeyActiveCustomFields); err != nil {
			return fmt.Errorf("remove %s: %w", storage.KeyActiveCustomFields, err)
		}
		return nil
	})
}

func (r *draftRepository) LegacyActiveFields(ctx context.Context) ([]string, bool, error) {
	raw, ok, err := r.store.Get(ctx, storage.KeyActiveCustomFields)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", storage.KeyActiveCustomFields, err)
	}
	if !ok {
		return nil, false, nil
	}
	var fields []string
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		r.log.Warn().Err(err).Str("key", storage.KeyActiveCustomFields).Msg("Malformed legacy active fields, ignoring")
		return nil, false, nil
	}
	return model.CanonicalFields(fields), true, nil
}
