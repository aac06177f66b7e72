package handler

import (
	"fmt"
	"net/http"

	"invoicer/internal/autosave"
	"invoicer/internal/middleware"
	"invoicer/internal/model"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

// EditResponse is the edit form of a committed invoice.
type EditResponse struct {
	Status  autosave.Status         `json:"status"`
	Dirty   bool                    `json:"dirty"`
	Invoice service.InvoiceResponse `json:"invoice"`
}

type EditHandler struct {
	sessions       *autosave.Manager
	invoiceService service.InvoiceService
}

func NewEditHandler(sessions *autosave.Manager, invoiceService service.InvoiceService) *EditHandler {
	return &EditHandler{sessions: sessions, invoiceService: invoiceService}
}

func (h *EditHandler) RegisterRoutes(router *gin.RouterGroup) {
	edit := router.Group("/api/invoices/:id/edit")
	{
		edit.POST("", h.OpenEditor)
		edit.PUT("", h.ChangeInvoice)
		edit.POST("/toggle", h.ToggleField)
		edit.POST("/close", h.CloseEditor)
		edit.POST("/cancel", h.CancelEditor)
	}
}

func (h *EditHandler) respond(c *gin.Context, s *autosave.EditSession) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, EditResponse{
		Status:  s.Status(),
		Dirty:   s.Dirty(),
		Invoice: service.ToInvoiceResponse(s.Snapshot()),
	}))
}

// session opens or returns the edit session, refusing invoices of other workspaces.
func (h *EditHandler) session(c *gin.Context) (*autosave.EditSession, bool) {
	if !h.inScope(c) {
		return nil, false
	}
	s, err := h.sessions.Editor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *EditHandler) inScope(c *gin.Context) bool {
	id, workspaceID := c.Param("id"), middleware.GetWorkspaceID(c)
	if s, ok := h.sessions.LookupEditor(id); ok {
		if s.Snapshot().WorkspaceID == workspaceID {
			return true
		}
		respondError(c, fmt.Errorf("invoice %s: %w", id, repository.ErrNotFound))
		return false
	}
	if _, err := h.invoiceService.FindInWorkspace(c.Request.Context(), workspaceID, id); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// OpenEditor starts editing an invoice
// @Summary      Open invoice editor
// @Tags         edit
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=EditResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/edit [post]
func (h *EditHandler) OpenEditor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s)
}

// ChangeInvoice replaces the edited form; the record is updated after the quiet period
// @Summary      Change invoice
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Invoice ID"
// @Param        payload  body      model.InvoiceForm  true  "Form"
// @Success      200      {object}  response.Response{data=EditResponse}
// @Router       /api/invoices/{id}/edit [put]
func (h *EditHandler) ChangeInvoice(c *gin.Context) {
	var form model.InvoiceForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Change(form); err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, s)
}

// ToggleField switches an optional field and updates the invoice immediately
// @Summary      Toggle optional field
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Invoice ID"
// @Param        payload  body      ToggleFieldRequest  true  "Field"
// @Success      200      {object}  response.Response{data=EditResponse}
// @Failure      400      {object}  response.Response  "Unknown field"
// @Router       /api/invoices/{id}/edit/toggle [post]
func (h *EditHandler) ToggleField(c *gin.Context) {
	var req ToggleFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ToggleField(c.Request.Context(), req.Field, req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, s)
}

// CloseEditor writes the latest edit and ends the session
// @Summary      Close invoice editor
// @Tags         edit
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/invoices/{id}/edit/close [post]
func (h *EditHandler) CloseEditor(c *gin.Context) {
	if _, open := h.sessions.LookupEditor(c.Param("id")); open && !h.inScope(c) {
		return
	}
	if err := h.sessions.CloseEditor(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// CancelEditor ends the session without writing pending edits
// @Summary      Cancel invoice editor
// @Tags         edit
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Router       /api/invoices/{id}/edit/cancel [post]
func (h *EditHandler) CancelEditor(c *gin.Context) {
	if _, open := h.sessions.LookupEditor(c.Param("id")); open && !h.inScope(c) {
		return
	}
	h.sessions.CancelEditor(c.Param("id"))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}
