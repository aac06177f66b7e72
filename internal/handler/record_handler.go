package handler

import (
	"io"
	"net/http"

	"invoicer/internal/middleware"
	"invoicer/internal/model"
	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

// RecordHandler serves the workspace-scoped saved records (customers, businesses, bank
// accounts, templates) under one base path:
//
//	GET    {base}              list
//	POST   {base}              create
//	GET    {base}/:id          get
//	PATCH  {base}/:id          merge the JSON body into the record
//	DELETE {base}/:id          delete
//	PUT    {base}/:id/default  make the record the workspace default
type RecordHandler[T any] struct {
	base    string
	service service.RecordService[T]
}

func NewRecordHandler[T any](base string, svc service.RecordService[T]) *RecordHandler[T] {
	return &RecordHandler[T]{base: base, service: svc}
}

func NewCustomerHandler(svc service.CustomerService) *RecordHandler[model.Customer] {
	return NewRecordHandler("/api/customers", svc)
}

func NewBusinessHandler(svc service.BusinessService) *RecordHandler[model.Business] {
	return NewRecordHandler("/api/businesses", svc)
}

func NewBankAccountHandler(svc service.BankAccountService) *RecordHandler[model.BankAccount] {
	return NewRecordHandler("/api/bank-accounts", svc)
}

func (h *RecordHandler[T]) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group(h.base)
	{
		records.GET("", h.List)
		records.POST("", h.Create)
		records.GET("/:id", h.Get)
		records.PATCH("/:id", h.Update)
		records.DELETE("/:id", h.Delete)
		records.PUT("/:id/default", h.SetDefault)
	}
}

func (h *RecordHandler[T]) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), middleware.GetWorkspaceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

func (h *RecordHandler[T]) Create(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), middleware.GetWorkspaceID(c), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

func (h *RecordHandler[T]) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), middleware.GetWorkspaceID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

func (h *RecordHandler[T]) Update(c *gin.Context) {
	patch, err := io.ReadAll(c.Request.Body)
	if err != nil || len(patch) == 0 {
		badRequest(c, "Invalid request payload: empty body")
		return
	}

	rec, err := h.service.Update(c.Request.Context(), middleware.GetWorkspaceID(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

func (h *RecordHandler[T]) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.GetWorkspaceID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

func (h *RecordHandler[T]) SetDefault(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID := middleware.GetWorkspaceID(c)
	id := c.Param("id")
	if err := h.service.SetDefault(ctx, workspaceID, id); err != nil {
		respondError(c, err)
		return
	}
	rec, err := h.service.Get(ctx, workspaceID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rec))
}

// TemplateHandler adds duplication to the template records.
type TemplateHandler struct {
	*RecordHandler[model.Template]
	templates service.TemplateService
}

func NewTemplateHandler(svc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		RecordHandler: NewRecordHandler[model.Template]("/api/templates", svc),
		templates:     svc,
	}
}

func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	h.RecordHandler.RegisterRoutes(router)
	router.POST("/api/templates/:id/duplicate", h.Duplicate)
}

// Duplicate copies a template as a non-default "<name> (Copy)"
// @Summary      Duplicate template
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template ID"
// @Success      201  {object}  response.Response{data=model.Template}
// @Failure      404  {object}  response.Response
// @Router       /api/templates/{id}/duplicate [post]
func (h *TemplateHandler) Duplicate(c *gin.Context) {
	tpl, err := h.templates.Duplicate(c.Request.Context(), middleware.GetWorkspaceID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tpl))
}
