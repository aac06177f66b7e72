// Package storage is the flat key-value blob store every repository persists into.
//
// Keys are independent: there is no transactional grouping between them, and a value is
// always replaced as a whole.
package storage

import (
	"context"
	"errors"
)

// Keys of the persisted state layout.
const (
	KeyWorkspaces         = "workspaces"
	KeyCurrentWorkspace   = "currentWorkspace"
	KeyInvoices           = "invoices"
	KeyDraft              = "invoice_draft"
	KeyActiveCustomFields = "active_custom_fields"
	KeyCustomers          = "customers"
	KeyBusinesses         = "businesses"
	KeyBankAccounts       = "bank_accounts"
	KeyTemplates          = "invoice-templates"
)

var (
	// ErrQuotaExceeded is returned when a write would grow the store beyond its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store is a synchronous get/set/remove interface over named string keys.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes key; removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
