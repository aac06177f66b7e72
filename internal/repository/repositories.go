package repository

import "invoicer/internal/storage"

// Repositories bundles every repository over one store and one transaction manager.
type Repositories struct {
	Tx           TransactionManager
	Workspaces   WorkspaceRepository
	Invoices     InvoiceRepository
	Drafts       DraftRepository
	Customers    CustomerRepository
	Businesses   BusinessRepository
	BankAccounts BankAccountRepository
	Templates    TemplateRepository
}

func New(store storage.Store, opts Options) *Repositories {
	tx := NewTransactionManager()
	workspaces := NewWorkspaceRepository(store, tx, opts)
	return &Repositories{
		Tx:           tx,
		Workspaces:   workspaces,
		Invoices:     NewInvoiceRepository(store, tx, workspaces, opts),
		Drafts:       NewDraftRepository(store, tx, opts),
		Customers:    NewCustomerRepository(store, tx, workspaces, opts),
		Businesses:   NewBusinessRepository(store, tx, workspaces, opts),
		BankAccounts: NewBankAccountRepository(store, tx, workspaces, opts),
		Templates:    NewTemplateRepository(store, tx, workspaces, opts),
	}
}
