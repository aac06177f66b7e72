package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatisticsResponse aggregates invoice totals of a workspace within a date range
type StatisticsResponse struct {
	WorkspaceID        string            `json:"workspace_id"`
	TotalInvoices      int               `json:"total_invoices"`
	TotalInvoiced      decimal.Decimal   `json:"total_invoiced"`
	TotalPaid          decimal.Decimal   `json:"total_paid"`
	Outstanding        decimal.Decimal   `json:"outstanding"`
	ByStatus           []StatusSummary   `json:"by_status"`
	TopCustomers       []CustomerRanking `json:"top_customers"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}

// StatusSummary is the count and summed total of one invoice status
type StatusSummary struct {
	Status InvoiceStatus   `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// CustomerRanking represents a billed party ranked by invoiced value
type CustomerRanking struct {
	BusinessName string          `json:"business_name"`
	InvoiceCount int             `json:"invoice_count"`
	TotalValue   decimal.Decimal `json:"total_value"`
}
