package autosave

import (
	"context"
	"errors"
	"sync"

	"invoicer/internal/logger"
	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DraftSession is the create-mode form bound to the single draft slot.
type DraftSession struct {
	deps     Deps
	debounce *Debouncer
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	draft       model.Draft
	workspaceID string
	status      Status
	dirty       bool
	closed      bool
}

// OpenDraft hydrates a session from the draft slot, or starts from a blank form for
// workspaceID when the slot is empty. A slot whose draft was already committed as an
// invoice is emptied, and a draft whose workspace was deleted moves to workspaceID.
func OpenDraft(ctx context.Context, deps Deps, workspaceID string) (*DraftSession, error) {
	deps = deps.withDefaults()
	s := &DraftSession{
		deps:        deps,
		debounce:    NewDebouncer(deps.Clock, deps.DraftDelay),
		log:         logger.WithComponent("autosave.draft"),
		workspaceID: workspaceID,
		status:      StatusIdle,
	}

	stored, err := deps.Drafts.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if err := s.resetLocked(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}

	if stored.ID != "" {
		_, err := deps.Invoices.GetInvoice(ctx, stored.ID)
		switch {
		case err == nil:
			s.log.Warn().Str("draft_id", stored.ID).Msg("Draft slot still holds a committed invoice, emptying it")
			if err := deps.Drafts.Clear(ctx); err != nil {
				return nil, &SaveError{Op: "clear draft", Err: err}
			}
			if err := s.resetLocked(ctx); err != nil {
				return nil, err
			}
			return s, nil
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	var legacy []string
	hasLegacy := false
	if stored.ActiveFields == nil {
		if legacy, hasLegacy, err = deps.Drafts.LegacyActiveFields(ctx); err != nil {
			return nil, err
		}
	}
	stored.ActiveFields = draftActiveFields(*stored, legacy, hasLegacy)
	stored.InvoiceForm = conform(stored.InvoiceForm, stored.ActiveFields)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.WorkspaceID == "" {
		stored.WorkspaceID = workspaceID
	}
	gone, err := deps.workspaceGone(ctx, stored.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if gone && workspaceID != "" {
		s.log.Warn().Str("draft_id", stored.ID).Str("workspace_id", stored.WorkspaceID).
			Msg("Draft workspace no longer exists, moving the draft")
		stored.WorkspaceID = workspaceID
		s.dirty = true
	}
	s.draft = *stored
	s.workspaceID = stored.WorkspaceID
	s.state = StateDrafting
	return s, nil
}

// bind points the session at workspaceID. A session without a draft moves and starts
// over from that workspace's blank form. An open draft stays in the workspace it was
// opened in unless that workspace has been deleted.
func (s *DraftSession) bind(ctx context.Context, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if workspaceID == "" || workspaceID == s.workspaceID {
		return nil
	}
	if s.state == StateNoDraft {
		s.workspaceID = workspaceID
		return s.resetLocked(ctx)
	}
	gone, err := s.deps.workspaceGone(ctx, s.workspaceID)
	if err != nil || !gone {
		return err
	}
	s.log.Warn().Str("draft_id", s.draft.ID).Str("workspace_id", s.workspaceID).
		Msg("Draft workspace no longer exists, moving the draft")
	s.workspaceID = workspaceID
	s.draft.WorkspaceID = workspaceID
	s.dirty = true
	return s.persistLocked(ctx)
}

// State returns the current lifecycle state.
func (s *DraftSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *DraftSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *DraftSession) WorkspaceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspaceID
}

// Snapshot returns the form as readers should see it.
func (s *DraftSession) Snapshot() model.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Change replaces the form and schedules a debounced overwrite of the draft slot.
func (s *DraftSession) Change(form model.InvoiceForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enterLocked(EventFormChanged); err != nil {
		return err
	}
	s.draft.InvoiceForm = conform(form, s.draft.ActiveFields)
	s.dirty = true
	s.debounce.Trigger(s.fire)
	return nil
}

// ToggleField switches an optional field and saves the draft right away. A pending
// debounced save is cancelled first so it can never land after this one.
func (s *DraftSession) ToggleField(ctx context.Context, field string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if !model.IsOptionalField(field) {
		return ErrUnknownField
	}
	if err := s.enterLocked(EventFieldToggled); err != nil {
		return err
	}
	active, err := toggle(&s.draft.InvoiceForm, s.draft.ActiveFields, field, enabled)
	if err != nil {
		return err
	}
	s.draft.ActiveFields = active
	s.dirty = true
	s.debounce.Stop()
	return s.persistLocked(ctx)
}

// NewInvoice starts a fresh draft. An in-progress draft is committed first as a draft
// invoice so nothing typed so far is lost.
func (s *DraftSession) NewInvoice(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if _, err := Next(s.state, EventNewInvoiceRequested); err != nil {
		return err
	}
	s.debounce.Stop()

	if s.state == StateDrafting {
		committed, err := s.commitLocked(ctx, model.StatusDraft)
		if err != nil {
			return err
		}
		s.log.Info().Str("invoice_id", committed.ID).Msg("Committed in-progress draft before starting a new one")
	}

	if err := s.resetLocked(ctx); err != nil {
		return err
	}
	s.draft.ID = uuid.NewString()
	s.state = StateDrafting
	s.dirty = true
	return s.persistLocked(ctx)
}

// Submit finalizes the draft as a pending invoice.
func (s *DraftSession) Submit(ctx context.Context) (model.Invoice, error) {
	return s.finalize(ctx, EventSubmitRequested, model.StatusPending)
}

// SaveAsDraft finalizes the draft as an invoice that keeps status draft.
func (s *DraftSession) SaveAsDraft(ctx context.Context) (model.Invoice, error) {
	return s.finalize(ctx, EventSaveAsDraftRequested, model.StatusDraft)
}

// Clear discards the draft and resets the form to the workspace defaults.
func (s *DraftSession) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if _, err := Next(s.state, EventClearRequested); err != nil {
		return err
	}
	s.debounce.Stop()
	if err := s.deps.Drafts.Clear(ctx); err != nil {
		return &SaveError{Op: "clear draft", Err: err}
	}
	s.state = StateDiscarded
	return s.resetLocked(ctx)
}

// Flush writes a pending change now instead of waiting for the quiet period.
func (s *DraftSession) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	s.debounce.Stop()
	if !s.dirty || s.state != StateDrafting {
		return nil
	}
	return s.persistLocked(ctx)
}

// Close is the unmount of the create form: the pending debounced save is cancelled and
// the slot keeps what was last saved.
func (s *DraftSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.state, _ = Next(s.state, EventUnmountRequested)
	if s.debounce.Stop() {
		s.log.Debug().Str("draft_id", s.draft.ID).Msg("Dropped pending draft save on close")
	}
	s.closed = true
}

// Wait blocks until scheduled saves have run. Tests use it after advancing a fake clock.
func (s *DraftSession) Wait() {
	s.debounce.Wait()
}

func (s *DraftSession) finalize(ctx context.Context, event Event, status model.InvoiceStatus) (model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Invoice{}, ErrSessionClosed
	}
	next, err := Next(s.state, event)
	if err != nil {
		return model.Invoice{}, err
	}
	s.debounce.Stop()

	invoice, err := s.commitLocked(ctx, status)
	if err != nil {
		return invoice, err
	}
	s.state = next
	if err := s.resetLocked(ctx); err != nil {
		return invoice, err
	}
	return invoice, nil
}

// commitLocked writes the draft as an invoice and empties the slot. Once the invoice is
// written the session leaves Drafting, even when emptying the slot fails.
func (s *DraftSession) commitLocked(ctx context.Context, status model.InvoiceStatus) (model.Invoice, error) {
	d := s.snapshotLocked()
	invoice, err := s.deps.Invoices.AddInvoice(ctx, model.Invoice{
		ID:           d.ID,
		Status:       status,
		InvoiceForm:  d.InvoiceForm,
		ActiveFields: d.ActiveFields,
		WorkspaceID:  d.WorkspaceID,
	})
	if err != nil {
		return model.Invoice{}, &SaveError{Op: "commit draft", Err: err}
	}
	if err := s.deps.Drafts.Clear(ctx); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("Invoice committed but draft slot not cleared")
		if resetErr := s.resetLocked(ctx); resetErr != nil {
			s.log.Error().Err(resetErr).Msg("Failed to reset draft session")
			s.state, s.dirty = StateNoDraft, false
		}
		return invoice, &SaveError{Op: "clear draft", Err: err}
	}
	s.dirty = false
	return invoice, nil
}

// resetLocked returns the session to NoDraft with a blank form and no active fields.
func (s *DraftSession) resetLocked(ctx context.Context) error {
	form, err := s.deps.Forms.BlankForm(ctx, s.workspaceID)
	if err != nil {
		return err
	}
	s.draft = model.Draft{
		WorkspaceID:  s.workspaceID,
		InvoiceForm:  form,
		ActiveFields: []string{},
	}
	s.state = StateNoDraft
	s.dirty = false
	return nil
}

// enterLocked applies a form mutation event, opening a draft on the first one.
func (s *DraftSession) enterLocked(event Event) error {
	if s.closed {
		return ErrSessionClosed
	}
	next, err := Next(s.state, event)
	if err != nil {
		return err
	}
	if s.state == StateNoDraft {
		s.draft.ID = uuid.NewString()
	}
	s.state = next
	return nil
}

func (s *DraftSession) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.dirty || s.state != StateDrafting {
		return
	}
	_ = s.persistLocked(context.Background())
}

func (s *DraftSession) persistLocked(ctx context.Context) error {
	s.setStatusLocked(StatusSaving, nil)
	saved, err := s.deps.Drafts.Save(ctx, s.snapshotLocked())
	if err != nil {
		saveErr := &SaveError{Op: "save draft", Err: err}
		s.log.Error().Err(err).Str("draft_id", s.draft.ID).Msg("Draft save failed")
		s.setStatusLocked(StatusSaveFailed, saveErr)
		return saveErr
	}
	s.draft.UpdatedAt = saved.UpdatedAt
	s.dirty = false
	s.setStatusLocked(StatusSaved, nil)
	return nil
}

func (s *DraftSession) snapshotLocked() model.Draft {
	d := s.draft
	d.InvoiceForm = s.draft.InvoiceForm.Effective(s.draft.ActiveFields)
	d.ActiveFields = model.CanonicalFields(s.draft.ActiveFields)
	return d
}

func (s *DraftSession) setStatusLocked(status Status, err error) {
	s.status = status
	event := StatusEvent{Kind: KindDraft, ID: s.draft.ID, Status: status, Timestamp: s.deps.Clock.Now()}
	if err != nil {
		event.Error = err.Error()
	}
	s.deps.Listener.Publish(event)
}

func (s *DraftSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
