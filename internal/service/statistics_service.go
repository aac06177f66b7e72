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

type StatisticsService interface {
	GetStatistics(ctx context.Context, workspaceID string, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	invoiceRepo repository.InvoiceRepository
}

func NewStatisticsService(invoiceRepo repository.InvoiceRepository) StatisticsService {
	return &statisticsService{invoiceRepo: invoiceRepo}
}

var statusOrder = []model.InvoiceStatus{model.StatusDraft, model.StatusPending, model.StatusPaid, model.StatusOverdue}

// GetStatistics aggregates the invoices of a workspace whose invoice date falls in
// [startDate, endDate]. A zero bound is open.
func (s *statisticsService) GetStatistics(ctx context.Context, workspaceID string, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	response := model.StatisticsResponse{
		WorkspaceID:        workspaceID,
		TotalInvoiced:      decimal.Zero,
		TotalPaid:          decimal.Zero,
		Outstanding:        decimal.Zero,
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}

	invoices, err := s.invoiceRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return response, fmt.Errorf("failed to load invoices: %w", err)
	}

	byStatus := make(map[model.InvoiceStatus]*model.StatusSummary, len(statusOrder))
	for _, st := range statusOrder {
		byStatus[st] = &model.StatusSummary{Status: st, Total: decimal.Zero}
	}
	customers := make(map[string]*model.CustomerRanking)

	for _, inv := range invoices {
		if !startDate.IsZero() && inv.Date.Before(startDate) {
			continue
		}
		if !endDate.IsZero() && inv.Date.After(endDate) {
			continue
		}
		total := inv.Total()

		if summary, ok := byStatus[inv.Status]; ok {
			summary.Count++
			summary.Total = summary.Total.Add(total)
		}
		response.TotalInvoices++

		// Drafts are not invoiced yet
		if inv.Status == model.StatusDraft {
			continue
		}
		response.TotalInvoiced = response.TotalInvoiced.Add(total)
		if inv.Status == model.StatusPaid {
			response.TotalPaid = response.TotalPaid.Add(total)
		} else {
			response.TotalPaid = response.TotalPaid.Add(inv.AmountPaid)
		}

		name := inv.To.BusinessName
		if name == "" {
			continue
		}
		ranking, ok := customers[name]
		if !ok {
			ranking = &model.CustomerRanking{BusinessName: name, TotalValue: decimal.Zero}
			customers[name] = ranking
		}
		ranking.InvoiceCount++
		ranking.TotalValue = ranking.TotalValue.Add(total)
	}

	// Outstanding = invoiced - paid
	response.Outstanding = response.TotalInvoiced.Sub(response.TotalPaid)

	for _, st := range statusOrder {
		response.ByStatus = append(response.ByStatus, *byStatus[st])
	}

	// Top 5 customers by invoiced value
	response.TopCustomers = make([]model.CustomerRanking, 0, len(customers))
	for _, r := range customers {
		response.TopCustomers = append(response.TopCustomers, *r)
	}
	sort.Slice(response.TopCustomers, func(i, j int) bool {
		a, b := response.TopCustomers[i], response.TopCustomers[j]
		if !a.TotalValue.Equal(b.TotalValue) {
			return a.TotalValue.GreaterThan(b.TotalValue)
		}
		return a.BusinessName < b.BusinessName
	})
	if len(response.TopCustomers) > 5 {
		response.TopCustomers = response.TopCustomers[:5]
	}

	return response, nil
}
