package handler

import (
	"context"
	"net/http"

	"invoicer/internal/autosave"
	"invoicer/internal/middleware"
	"invoicer/internal/model"
	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

// ToggleFieldRequest switches one optional field on or off.
type ToggleFieldRequest struct {
	Field   string `json:"field" binding:"required"`
	Enabled bool   `json:"enabled"`
}

// DraftResponse is the create form as the client renders it.
type DraftResponse struct {
	State  string          `json:"state"`
	Status autosave.Status `json:"status"`
	Draft  model.Draft     `json:"draft"`
}

type DraftHandler struct {
	sessions *autosave.Manager
}

func NewDraftHandler(sessions *autosave.Manager) *DraftHandler {
	return &DraftHandler{sessions: sessions}
}

func (h *DraftHandler) RegisterRoutes(router *gin.RouterGroup) {
	draft := router.Group("/api/draft")
	{
		draft.GET("", h.GetDraft)
		draft.PUT("", h.ChangeDraft)
		draft.POST("/toggle", h.ToggleField)
		draft.POST("/new", h.NewInvoice)
		draft.POST("/submit", h.Submit)
		draft.POST("/save-as-draft", h.SaveAsDraft)
		draft.POST("/clear", h.Clear)
		draft.POST("/close", h.Close)
	}
}

func (h *DraftHandler) session(c *gin.Context) (*autosave.DraftSession, bool) {
	s, err := h.sessions.Draft(c.Request.Context(), middleware.GetWorkspaceID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return s, true
}

func (h *DraftHandler) respond(c *gin.Context, s *autosave.DraftSession) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, DraftResponse{
		State:  s.State().String(),
		Status: s.Status(),
		Draft:  s.Snapshot(),
	}))
}

// GetDraft opens the create form, restoring the saved draft when there is one
// @Summary      Get draft
// @Tags         draft
// @Produce      json
// @Param        X-Workspace-ID  header    string  false  "Workspace ID used when no draft is saved"
// @Success      200             {object}  response.Response{data=DraftResponse}
// @Router       /api/draft [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s)
}

// ChangeDraft replaces the form; the draft is saved after the quiet period
// @Summary      Change draft
// @Tags         draft
// @Accept       json
// @Produce      json
// @Param        payload  body      model.InvoiceForm  true  "Form"
// @Success      200      {object}  response.Response{data=DraftResponse}
// @Failure      409      {object}  response.Response  "No draft in progress"
// @Router       /api/draft [put]
func (h *DraftHandler) ChangeDraft(c *gin.Context) {
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

// ToggleField switches an optional field and saves the draft immediately
// @Summary      Toggle optional field
// @Tags         draft
// @Accept       json
// @Produce      json
// @Param        payload  body      ToggleFieldRequest  true  "Field"
// @Success      200      {object}  response.Response{data=DraftResponse}
// @Failure      400      {object}  response.Response  "Unknown field"
// @Router       /api/draft/toggle [post]
func (h *DraftHandler) ToggleField(c *gin.Context) {
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

// NewInvoice starts a fresh draft, committing the current one as a draft invoice
// @Summary      New draft
// @Tags         draft
// @Produce      json
// @Success      200  {object}  response.Response{data=DraftResponse}
// @Router       /api/draft/new [post]
func (h *DraftHandler) NewInvoice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.NewInvoice(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, s)
}

// Submit turns the draft into a pending invoice
// @Summary      Submit draft
// @Tags         draft
// @Produce      json
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409  {object}  response.Response  "No draft in progress"
// @Router       /api/draft/submit [post]
func (h *DraftHandler) Submit(c *gin.Context) {
	h.finalize(c, (*autosave.DraftSession).Submit)
}

// SaveAsDraft turns the draft into an invoice that keeps status draft
// @Summary      Save as draft invoice
// @Tags         draft
// @Produce      json
// @Success      201  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409  {object}  response.Response  "No draft in progress"
// @Router       /api/draft/save-as-draft [post]
func (h *DraftHandler) SaveAsDraft(c *gin.Context) {
	h.finalize(c, (*autosave.DraftSession).SaveAsDraft)
}

func (h *DraftHandler) finalize(c *gin.Context, commit func(*autosave.DraftSession, context.Context) (model.Invoice, error)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	invoice, err := commit(s, c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, service.ToInvoiceResponse(invoice)))
}

// Clear discards the draft and resets the form to the workspace defaults
// @Summary      Clear draft
// @Tags         draft
// @Produce      json
// @Success      200  {object}  response.Response{data=DraftResponse}
// @Router       /api/draft/clear [post]
func (h *DraftHandler) Clear(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, s)
}

// Close leaves the create form; a change still waiting for its quiet period is dropped
// @Summary      Close draft form
// @Tags         draft
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/draft/close [post]
func (h *DraftHandler) Close(c *gin.Context) {
	h.sessions.CloseDraft()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}
