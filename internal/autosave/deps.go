package autosave

import (
	"context"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/jonboulle/clockwork"
)

// InvoiceStore is the invoice side of the service layer the sessions commit through.
type InvoiceStore interface {
	AddInvoice(ctx context.Context, invoice model.Invoice) (model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (model.Invoice, error)
	UpdateInvoice(ctx context.Context, id string, form model.InvoiceForm, active []string) (model.Invoice, bool, error)
}

// FormDefaults builds the form a fresh or cleared draft starts from.
type FormDefaults interface {
	BlankForm(ctx context.Context, workspaceID string) (model.InvoiceForm, error)
}

// WorkspaceLookup reports whether a workspace still exists.
type WorkspaceLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Deps wires sessions to persistence.
type Deps struct {
	Drafts   repository.DraftRepository
	Invoices InvoiceStore
	Forms    FormDefaults
	// Workspaces is optional; without it every workspace a draft names is assumed to exist.
	Workspaces WorkspaceLookup
	Listener   Listener
	Clock      clockwork.Clock

	// DraftDelay and EditDelay are the quiet periods of the two autosave loops.
	DraftDelay time.Duration
	EditDelay  time.Duration
}

const (
	DefaultDraftDelay = time.Second
	DefaultEditDelay  = 500 * time.Millisecond
)

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Listener == nil {
		d.Listener = nopListener{}
	}
	if d.DraftDelay <= 0 {
		d.DraftDelay = DefaultDraftDelay
	}
	if d.EditDelay <= 0 {
		d.EditDelay = DefaultEditDelay
	}
	return d
}

// workspaceGone reports whether id names a workspace that has been deleted.
func (d Deps) workspaceGone(ctx context.Context, id string) (bool, error) {
	if d.Workspaces == nil || id == "" {
		return false, nil
	}
	ok, err := d.Workspaces.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	return !ok, nil
}
