package handler

import (
	"errors"
	"fmt"
	"net/http"

	"invoicer/internal/export"
	"invoicer/internal/middleware"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/pkg/pagination"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

type SetStatusRequest struct {
	Status model.InvoiceStatus `json:"status" binding:"required"`
}

type InvoiceHandler struct {
	invoiceService     service.InvoiceService
	bankAccountService service.BankAccountService
	exporter           export.Exporter
}

func NewInvoiceHandler(invoiceService service.InvoiceService, bankAccountService service.BankAccountService, exporter export.Exporter) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:     invoiceService,
		bankAccountService: bankAccountService,
		exporter:           exporter,
	}
}

// scoped loads the invoice named in the path if it belongs to the request's workspace.
func (h *InvoiceHandler) scoped(c *gin.Context) (model.Invoice, bool) {
	invoice, err := h.invoiceService.FindInWorkspace(c.Request.Context(), middleware.GetWorkspaceID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return model.Invoice{}, false
	}
	return invoice, true
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", h.CreateInvoice)
		invoices.GET("/next-number", h.NextInvoiceNumber)
		invoices.GET("/:id", h.GetInvoice)
		invoices.DELETE("/:id", h.DeleteInvoice)
		invoices.DELETE("/:id/quick", h.QuickDeleteInvoice)
		invoices.PUT("/:id/status", h.SetStatus)
		invoices.GET("/:id/pdf", h.ExportPDF)
	}
}

// ListInvoices returns a paginated list of the workspace's invoices, newest first
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        X-Workspace-ID  header    string  false  "Workspace ID (defaults to the current workspace)"
// @Param        status          query     string  false  "Filter by status (draft, pending, paid, overdue)"
// @Param        search          query     string  false  "Partial match on number, customer or sender"
// @Param        page            query     int     false  "Page number (default 1)"
// @Param        limit           query     int     false  "Number of items per page (default 20)"
// @Success      200             {object}  response.Response{data=[]service.InvoiceResponse,meta=pagination.Meta}
// @Failure      400             {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.InvoiceFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), middleware.GetWorkspaceID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]service.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, service.ToInvoiceResponse(inv))
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, out, params.MetaFor(total)))
}

// CreateInvoice stores a new invoice in the workspace
// @Summary      Create invoice
// @Description  The invoice number is assigned by the server; status defaults to pending
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-Workspace-ID  header    string         false  "Workspace ID"
// @Param        payload         body      model.Invoice  true   "Invoice"
// @Success      201             {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400             {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req model.Invoice
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	req.WorkspaceID = middleware.GetWorkspaceID(c)

	invoice, err := h.invoiceService.AddInvoice(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, service.ToInvoiceResponse(invoice)))
}

// NextInvoiceNumber previews the number the next invoice will get
// @Summary      Next invoice number
// @Tags         invoices
// @Produce      json
// @Success      200  {object}  response.Response{data=map[string]string}
// @Router       /api/invoices/next-number [get]
func (h *InvoiceHandler) NextInvoiceNumber(c *gin.Context) {
	number, err := h.invoiceService.NextInvoiceNumber(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"number": number}))
}

// GetInvoice returns one invoice with inactive optional fields removed
// @Summary      Get invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, ok := h.scoped(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ToInvoiceResponse(invoice)))
}

// DeleteInvoice removes an invoice
// @Summary      Delete invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if _, ok := h.scoped(c); !ok {
		return
	}
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// QuickDeleteInvoice removes an invoice that is still a draft
// @Summary      Quick-delete draft invoice
// @Tags         invoices
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response  "Invoice is not a draft"
// @Router       /api/invoices/{id}/quick [delete]
func (h *InvoiceHandler) QuickDeleteInvoice(c *gin.Context) {
	if _, ok := h.scoped(c); !ok {
		return
	}
	if err := h.invoiceService.QuickDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// SetStatus moves an invoice to another status
// @Summary      Set invoice status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id       path      string            true  "Invoice ID"
// @Param        payload  body      SetStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if _, ok := h.scoped(c); !ok {
		return
	}

	invoice, err := h.invoiceService.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.ToInvoiceResponse(invoice)))
}

// ExportPDF renders the invoice as a PDF attachment
// @Summary      Export invoice
// @Tags         invoices
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) ExportPDF(c *gin.Context) {
	ctx := c.Request.Context()
	invoice, ok := h.scoped(c)
	if !ok {
		return
	}

	var bank *model.BankAccount
	if id := invoice.SelectedBankAccountID; id != "" {
		account, err := h.bankAccountService.Get(ctx, invoice.WorkspaceID, id)
		switch {
		case err == nil:
			bank = &account
		case !errors.Is(err, repository.ErrNotFound):
			respondError(c, err)
			return
		}
	}

	data, err := h.exporter.Export(invoice, bank)
	if err != nil {
		respondError(c, fmt.Errorf("failed to render invoice %s: %w", invoice.Number, err))
		return
	}
	filename := fmt.Sprintf("%s.%s", invoice.Number, h.exporter.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, h.exporter.ContentType(), data)
}
