package service

import (
	"invoicer/internal/repository"

	"github.com/jonboulle/clockwork"
)

// Services bundles every service built over one set of repositories.
type Services struct {
	Workspaces   WorkspaceService
	Invoices     InvoiceService
	Statistics   StatisticsService
	Revenue      RevenueService
	Customers    CustomerService
	Businesses   BusinessService
	BankAccounts BankAccountService
	Templates    TemplateService
}

func New(repos *repository.Repositories, clock clockwork.Clock) *Services {
	return &Services{
		Workspaces:   NewWorkspaceService(repos),
		Invoices:     NewInvoiceService(repos, clock),
		Statistics:   NewStatisticsService(repos.Invoices),
		Revenue:      NewRevenueService(repos.Invoices),
		Customers:    NewCustomerService(repos.Customers, repos.Tx),
		Businesses:   NewBusinessService(repos.Businesses, repos.Tx),
		BankAccounts: NewBankAccountService(repos.BankAccounts, repos.Tx),
		Templates:    NewTemplateService(repos.Templates, repos.Tx),
	}
}
