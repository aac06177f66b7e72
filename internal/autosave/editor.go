package autosave

import (
	"context"
	"sync"

	"invoicer/internal/logger"
	"invoicer/internal/model"

	"github.com/rs/zerolog"
)

// EditSession reconciles the edit form of an existing invoice with its record. There is
// no draft slot involved.
type EditSession struct {
	deps     Deps
	debounce *Debouncer
	log      zerolog.Logger
	id       string

	mu     sync.Mutex
	form   model.InvoiceForm
	active []string
	saved  model.Invoice
	status Status
	dirty  bool
	closed bool
}

// OpenEditor hydrates a session from the invoice record. Records without an active set
// get one derived from their values.
func OpenEditor(ctx context.Context, deps Deps, id string) (*EditSession, error) {
	deps = deps.withDefaults()
	invoice, err := deps.Invoices.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	effective := invoice.Effective()
	return &EditSession{
		deps:     deps,
		debounce: NewDebouncer(deps.Clock, deps.EditDelay),
		log:      logger.WithComponent("autosave.edit").With().Str("invoice_id", id).Logger(),
		id:       id,
		form:     conform(effective.InvoiceForm, effective.ActiveFields),
		active:   effective.ActiveFields,
		saved:    effective,
		status:   StatusIdle,
	}, nil
}

func (s *EditSession) ID() string { return s.id }

func (s *EditSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Dirty reports whether the form differs from the last persisted record.
func (s *EditSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Snapshot returns the record as it would be written now.
func (s *EditSession) Snapshot() model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateLocked()
}

// Change replaces the form. A change that makes the form differ from the stored record
// schedules a debounced update; the last snapshot in the quiet period wins.
func (s *EditSession) Change(form model.InvoiceForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.form = conform(form, s.active)
	s.dirty = !model.SameContent(s.candidateLocked(), s.saved)
	if s.dirty {
		s.debounce.Trigger(s.fire)
	} else {
		s.debounce.Stop()
	}
	return nil
}

// ToggleField switches an optional field and updates the record right away.
func (s *EditSession) ToggleField(ctx context.Context, field string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	active, err := toggle(&s.form, s.active, field, enabled)
	if err != nil {
		return err
	}
	s.active = active
	s.dirty = true
	s.debounce.Stop()
	return s.persistLocked(ctx)
}

// Flush writes a pending change now.
func (s *EditSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	return s.flushLocked(ctx)
}

// Close is navigation away from the edit view: the latest edit is written before the
// session ends.
func (s *EditSession) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	err := s.flushLocked(ctx)
	s.closed = true
	return err
}

// Cancel ends the session and drops any debounced write that has not fired yet.
func (s *EditSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.debounce.Stop() {
		s.log.Debug().Msg("Dropped pending update on cancel")
	}
	s.dirty = false
	s.closed = true
}

// Wait blocks until scheduled saves have run.
func (s *EditSession) Wait() {
	s.debounce.Wait()
}

func (s *EditSession) flushLocked(ctx context.Context) error {
	s.debounce.Stop()
	if !s.dirty {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *EditSession) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.dirty {
		return
	}
	_ = s.persistLocked(context.Background())
}

func (s *EditSession) persistLocked(ctx context.Context) error {
	s.setStatusLocked(StatusSaving, nil)
	saved, changed, err := s.deps.Invoices.UpdateInvoice(ctx, s.id, s.form, s.active)
	if err != nil {
		saveErr := &SaveError{Op: "update invoice", Err: err}
		s.log.Error().Err(err).Msg("Invoice update failed")
		s.setStatusLocked(StatusSaveFailed, saveErr)
		return saveErr
	}
	if !changed {
		s.log.Debug().Msg("Snapshot equals stored record, nothing written")
	}
	s.saved = saved.Effective()
	s.dirty = false
	s.setStatusLocked(StatusSaved, nil)
	return nil
}

func (s *EditSession) candidateLocked() model.Invoice {
	out := s.saved.Copy()
	out.InvoiceForm = s.form.Effective(s.active)
	out.ActiveFields = model.CanonicalFields(s.active)
	return out
}

func (s *EditSession) setStatusLocked(status Status, err error) {
	s.status = status
	event := StatusEvent{Kind: KindEdit, ID: s.id, Status: status, Timestamp: s.deps.Clock.Now()}
	if err != nil {
		event.Error = err.Error()
	}
	s.deps.Listener.Publish(event)
}
