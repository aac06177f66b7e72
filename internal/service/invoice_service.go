package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"invoicer/internal/logger"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/pkg/pagination"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type InvoiceFilter struct {
	Status string // draft, pending, paid, overdue or empty for all
	Search string // partial match on number, customer or sender name
	Page   int
	Limit  int
}

// InvoiceResponse is an invoice as readers see it, with computed amounts.
type InvoiceResponse struct {
	model.Invoice
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balanceDue"`
}

func ToInvoiceResponse(inv model.Invoice) InvoiceResponse {
	inv = inv.Effective()
	return InvoiceResponse{
		Invoice:    inv,
		Subtotal:   inv.Subtotal(),
		TaxAmount:  inv.TaxAmount(),
		Total:      inv.Total(),
		BalanceDue: inv.BalanceDue(),
	}
}

// --- Interface ---

type InvoiceService interface {
	// AddInvoice finalizes a new invoice. The number is always reassigned to the next
	// free INV-NNNN and the status defaults to pending.
	AddInvoice(ctx context.Context, invoice model.Invoice) (model.Invoice, error)
	GetInvoice(ctx context.Context, id string) (model.Invoice, error)
	// FindInWorkspace is GetInvoice for callers bound to a workspace; invoices of other
	// workspaces are reported as not found.
	FindInWorkspace(ctx context.Context, workspaceID, id string) (model.Invoice, error)
	// UpdateInvoice replaces the form and active set of an invoice. It reports false when
	// the snapshot equals the stored record, in which case nothing is written.
	UpdateInvoice(ctx context.Context, id string, form model.InvoiceForm, active []string) (model.Invoice, bool, error)
	SetStatus(ctx context.Context, id string, status model.InvoiceStatus) (model.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	// QuickDelete is the board's delete control; it only removes draft invoices.
	QuickDelete(ctx context.Context, id string) error
	ListInvoices(ctx context.Context, workspaceID string, filter InvoiceFilter) ([]model.Invoice, int64, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
	BlankForm(ctx context.Context, workspaceID string) (model.InvoiceForm, error)
}

// --- Implementation ---

type invoiceService struct {
	invoiceRepo   repository.InvoiceRepository
	workspaceRepo repository.WorkspaceRepository
	businessRepo  repository.BusinessRepository
	txManager     repository.TransactionManager
	clock         clockwork.Clock
	log           zerolog.Logger
}

func NewInvoiceService(repos *repository.Repositories, clock clockwork.Clock) InvoiceService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &invoiceService{
		invoiceRepo:   repos.Invoices,
		workspaceRepo: repos.Workspaces,
		businessRepo:  repos.Businesses,
		txManager:     repos.Tx,
		clock:         clock,
		log:           logger.WithComponent("invoice_service"),
	}
}

func validateForm(form model.InvoiceForm) error {
	for i, item := range form.Items {
		if item.Quantity.IsNegative() {
			return fmt.Errorf("%w: items[%d]: quantity must not be negative", ErrValidation, i)
		}
		if item.Rate.IsNegative() {
			return fmt.Errorf("%w: items[%d]: rate must not be negative", ErrValidation, i)
		}
	}
	return nil
}

func (s *invoiceService) AddInvoice(ctx context.Context, invoice model.Invoice) (model.Invoice, error) {
	if invoice.Status == "" {
		invoice.Status = model.StatusPending
	}
	if !invoice.Status.Valid() {
		return model.Invoice{}, fmt.Errorf("%w: unknown status %q", ErrValidation, invoice.Status)
	}
	if err := validateForm(invoice.InvoiceForm); err != nil {
		return model.Invoice{}, err
	}

	var created model.Invoice
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.invoiceRepo.NextInvoiceNumber(txCtx)
		if err != nil {
			return err
		}
		invoice.Number = number
		created, err = s.invoiceRepo.Add(txCtx, invoice)
		return err
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to add invoice: %w", err)
	}

	s.log.Info().Str("invoice_id", created.ID).Str("number", created.Number).Str("status", string(created.Status)).Msg("Invoice added")
	return created, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("invoice %s: %w", id, err)
	}
	return invoice, nil
}

func (s *invoiceService) FindInWorkspace(ctx context.Context, workspaceID, id string) (model.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return model.Invoice{}, err
	}
	if invoice.WorkspaceID != workspaceID {
		return model.Invoice{}, fmt.Errorf("invoice %s: %w", id, repository.ErrNotFound)
	}
	return invoice, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, form model.InvoiceForm, active []string) (model.Invoice, bool, error) {
	if err := validateForm(form); err != nil {
		return model.Invoice{}, false, err
	}
	if active == nil {
		active = []string{}
	}
	updated, changed, err := s.invoiceRepo.Update(ctx, id, func(inv *model.Invoice) {
		inv.InvoiceForm = form.Clone()
		inv.ActiveFields = model.CanonicalFields(active)
	})
	if err != nil {
		return model.Invoice{}, false, fmt.Errorf("failed to update invoice %s: %w", id, err)
	}
	return updated, changed, nil
}

func (s *invoiceService) SetStatus(ctx context.Context, id string, status model.InvoiceStatus) (model.Invoice, error) {
	if !status.Valid() {
		return model.Invoice{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	updated, _, err := s.invoiceRepo.Update(ctx, id, func(inv *model.Invoice) {
		inv.Status = status
	})
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to set status of invoice %s: %w", id, err)
	}
	return updated, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice %s: %w", id, err)
	}
	return nil
}

func (s *invoiceService) QuickDelete(ctx context.Context, id string) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("invoice %s: %w", id, err)
		}
		if invoice.Status != model.StatusDraft {
			return repository.ErrNotDeletable
		}
		return s.DeleteInvoice(txCtx, id)
	})
}

func (s *invoiceService) ListInvoices(ctx context.Context, workspaceID string, filter InvoiceFilter) ([]model.Invoice, int64, error) {
	if filter.Status != "" && !model.InvoiceStatus(filter.Status).Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	invoices, err := s.invoiceRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if filter.Status != "" && string(inv.Status) != filter.Status {
			continue
		}
		if search != "" && !matchesSearch(inv, search) {
			continue
		}
		matched = append(matched, inv)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if filter.Limit <= 0 {
		return matched, total, nil
	}
	start, end := pagination.New(filter.Page, filter.Limit).Bounds(len(matched))
	return matched[start:end], total, nil
}

func matchesSearch(inv model.Invoice, search string) bool {
	for _, field := range []string{inv.Number, inv.To.BusinessName, inv.From.Name} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (s *invoiceService) NextInvoiceNumber(ctx context.Context) (string, error) {
	return s.invoiceRepo.NextInvoiceNumber(ctx)
}

// BlankForm takes the sender from the workspace's default business, falling back to the
// workspace business details.
func (s *invoiceService) BlankForm(ctx context.Context, workspaceID string) (model.InvoiceForm, error) {
	number, err := s.invoiceRepo.NextInvoiceNumber(ctx)
	if err != nil {
		return model.InvoiceForm{}, err
	}
	now := model.CanonicalTime(s.clock.Now())
	form := model.InvoiceForm{
		Number:     number,
		Date:       now,
		DueDate:    now.Add(30 * 24 * time.Hour),
		Currency:   "EUR",
		Items:      []model.Item{{}},
		ItemLabels: model.DefaultItemLabels(),
	}
	if workspaceID == "" {
		return form, nil
	}

	businesses, err := s.businessRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return model.InvoiceForm{}, err
	}
	for _, b := range businesses {
		if b.IsDefault {
			form.From = b.Sender()
			form.Logo = b.Logo
			return form, nil
		}
	}

	ws, err := s.workspaceRepo.FindByID(ctx, workspaceID)
	if err != nil {
		return model.InvoiceForm{}, fmt.Errorf("workspace %s: %w", workspaceID, err)
	}
	form.From = ws.BusinessDetails.Sender()
	form.Logo = ws.BusinessDetails.Logo
	return form, nil
}
