package autosave

import (
	"context"
	"errors"
	"sync"

	"invoicer/internal/logger"

	"github.com/rs/zerolog"
)

// Manager holds the one create-mode draft session and the open edit sessions.
type Manager struct {
	deps Deps
	log  zerolog.Logger

	mu      sync.Mutex
	draft   *DraftSession
	editors map[string]*EditSession
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:    deps.withDefaults(),
		log:     logger.WithComponent("autosave"),
		editors: make(map[string]*EditSession),
	}
}

// Draft returns the open draft session, opening one for workspaceID if needed. A session
// holding no draft is moved to workspaceID first.
func (m *Manager) Draft(ctx context.Context, workspaceID string) (*DraftSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft != nil && !m.draft.isClosed() {
		if err := m.draft.bind(ctx, workspaceID); err != nil {
			return nil, err
		}
		return m.draft, nil
	}
	s, err := OpenDraft(ctx, m.deps, workspaceID)
	if err != nil {
		return nil, err
	}
	m.draft = s
	return s, nil
}

// CloseDraft unmounts the draft session if one is open.
func (m *Manager) CloseDraft() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft != nil {
		m.draft.Close()
		m.draft = nil
	}
}

// Editor returns the edit session of an invoice, opening it if needed.
func (m *Manager) Editor(ctx context.Context, id string) (*EditSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.editors[id]; ok {
		return s, nil
	}
	s, err := OpenEditor(ctx, m.deps, id)
	if err != nil {
		return nil, err
	}
	m.editors[id] = s
	return s, nil
}

// LookupEditor reports the edit session of id if one is open.
func (m *Manager) LookupEditor(id string) (*EditSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.editors[id]
	return s, ok
}

// CloseEditor flushes and ends the edit session of id.
func (m *Manager) CloseEditor(ctx context.Context, id string) error {
	s := m.detach(id)
	if s == nil {
		return nil
	}
	return s.Close(ctx)
}

// CancelEditor ends the edit session of id, dropping unsaved edits.
func (m *Manager) CancelEditor(id string) {
	if s := m.detach(id); s != nil {
		s.Cancel()
	}
}

// Shutdown flushes every session. Unlike CloseDraft, the draft's pending change is
// written before the process exits.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	draft := m.draft
	editors := m.editors
	m.draft = nil
	m.editors = make(map[string]*EditSession)
	m.mu.Unlock()

	var errs []error
	for id, s := range editors {
		if err := s.Close(ctx); err != nil {
			m.log.Error().Err(err).Str("invoice_id", id).Msg("Failed to flush edit session")
			errs = append(errs, err)
		}
	}
	if draft != nil {
		if err := draft.Flush(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
			m.log.Error().Err(err).Msg("Failed to flush draft session")
			errs = append(errs, err)
		}
		draft.Close()
	}
	return errors.Join(errs...)
}

func (m *Manager) detach(id string) *EditSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.editors[id]
	if !ok {
		return nil
	}
	delete(m.editors, id)
	return s
}
