package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RevenueDataPoint struct {
	Period            string          `json:"period"` // first day of the period, YYYY-MM-DD
	InvoiceCount      int             `json:"invoice_count"`
	TotalInvoiced     decimal.Decimal `json:"total_invoiced"`
	TotalTaxCollected decimal.Decimal `json:"total_tax_collected"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
}

type RevenueFilter struct {
	GroupBy   string    // week, month, quarter, year
	StartDate time.Time // zero is open
	EndDate   time.Time // zero is open
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, workspaceID string, filter RevenueFilter) ([]RevenueDataPoint, error)
}

type revenueService struct {
	invoiceRepo repository.InvoiceRepository
}

func NewRevenueService(invoiceRepo repository.InvoiceRepository) RevenueService {
	return &revenueService{invoiceRepo: invoiceRepo}
}

// --- Implementation ---

// GetRevenueStatistics buckets the non-draft invoices of a workspace by invoice date.
func (s *revenueService) GetRevenueStatistics(ctx context.Context, workspaceID string, filter RevenueFilter) ([]RevenueDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
		// valid
	case "":
		groupBy = "month" // default
	default:
		return nil, fmt.Errorf("%w: group_by must be week, month, quarter or year", ErrValidation)
	}

	invoices, err := s.invoiceRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	buckets := make(map[string]*RevenueDataPoint)
	for _, inv := range invoices {
		if inv.Status == model.StatusDraft {
			continue
		}
		if !filter.StartDate.IsZero() && inv.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && inv.Date.After(filter.EndDate) {
			continue
		}

		period := truncate(inv.Date, groupBy).Format("2006-01-02")
		point, ok := buckets[period]
		if !ok {
			point = &RevenueDataPoint{
				Period:            period,
				TotalInvoiced:     decimal.Zero,
				TotalTaxCollected: decimal.Zero,
				TotalPaid:         decimal.Zero,
			}
			buckets[period] = point
		}
		total := inv.Total()
		point.InvoiceCount++
		point.TotalInvoiced = point.TotalInvoiced.Add(total)
		point.TotalTaxCollected = point.TotalTaxCollected.Add(inv.TaxAmount())
		if inv.Status == model.StatusPaid {
			point.TotalPaid = point.TotalPaid.Add(total)
		} else {
			point.TotalPaid = point.TotalPaid.Add(inv.AmountPaid)
		}
	}

	result := make([]RevenueDataPoint, 0, len(buckets))
	for _, point := range buckets {
		result = append(result, *point)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period < result[j].Period })
	return result, nil
}

// truncate returns the start of the period containing t. Weeks start on Monday.
func truncate(t time.Time, groupBy string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch groupBy {
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "quarter":
		month := time.Month((int(t.Month())-1)/3*3 + 1)
		return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
	case "year":
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
