package handler

import (
	"net/http"

	"invoicer/internal/model"
	"invoicer/internal/service"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

type WorkspaceHandler struct {
	workspaceService service.WorkspaceService
}

func NewWorkspaceHandler(workspaceService service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

func (h *WorkspaceHandler) RegisterRoutes(router *gin.RouterGroup) {
	workspaces := router.Group("/api/workspaces")
	{
		workspaces.GET("", h.ListWorkspaces)
		workspaces.POST("", h.CreateWorkspace)
		workspaces.GET("/current", h.GetCurrentWorkspace)
		workspaces.GET("/:id", h.GetWorkspace)
		workspaces.PUT("/:id", h.UpdateWorkspace)
		workspaces.PUT("/:id/business-details", h.UpdateBusinessDetails)
		workspaces.POST("/:id/use", h.UseWorkspace)
		workspaces.DELETE("/:id", h.DeleteWorkspace)
	}
}

// ListWorkspaces returns every workspace
// @Summary      List workspaces
// @Tags         workspaces
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Workspace}
// @Failure      500  {object}  response.Response
// @Router       /api/workspaces [get]
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	workspaces, err := h.workspaceService.ListWorkspaces(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, workspaces))
}

// CreateWorkspace creates a workspace and makes it current
// @Summary      Create workspace
// @Description  Creates a workspace seeded with the standard template and switches to it
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateWorkspaceRequest  true  "Create Workspace Payload"
// @Success      201      {object}  response.Response{data=model.Workspace}
// @Failure      400      {object}  response.Response
// @Router       /api/workspaces [post]
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	var req service.CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ws, err := h.workspaceService.CreateWorkspace(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ws))
}

// GetCurrentWorkspace returns the workspace used when a request names none
// @Summary      Current workspace
// @Tags         workspaces
// @Produce      json
// @Success      200  {object}  response.Response{data=model.Workspace}
// @Router       /api/workspaces/current [get]
func (h *WorkspaceHandler) GetCurrentWorkspace(c *gin.Context) {
	ws, err := h.workspaceService.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ws))
}

// GetWorkspace returns one workspace
// @Summary      Get workspace
// @Tags         workspaces
// @Produce      json
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  response.Response{data=model.Workspace}
// @Failure      404  {object}  response.Response
// @Router       /api/workspaces/{id} [get]
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	ws, err := h.workspaceService.GetWorkspace(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ws))
}

// UpdateWorkspace renames a workspace or changes its logo
// @Summary      Update workspace
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Workspace ID"
// @Param        payload  body      service.UpdateWorkspaceRequest  true  "Update Workspace Payload"
// @Success      200      {object}  response.Response{data=model.Workspace}
// @Failure      404      {object}  response.Response
// @Router       /api/workspaces/{id} [put]
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	var req service.UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ws, err := h.workspaceService.UpdateWorkspace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ws))
}

// UpdateBusinessDetails replaces the fallback sender details
// @Summary      Update business details
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Workspace ID"
// @Param        payload  body      model.BusinessDetails  true  "Business Details"
// @Success      200      {object}  response.Response{data=model.Workspace}
// @Router       /api/workspaces/{id}/business-details [put]
func (h *WorkspaceHandler) UpdateBusinessDetails(c *gin.Context) {
	var details model.BusinessDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	ws, err := h.workspaceService.UpdateBusinessDetails(c.Request.Context(), c.Param("id"), details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ws))
}

// UseWorkspace switches the current workspace
// @Summary      Switch workspace
// @Tags         workspaces
// @Produce      json
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/workspaces/{id}/use [post]
func (h *WorkspaceHandler) UseWorkspace(c *gin.Context) {
	id := c.Param("id")
	if err := h.workspaceService.SetCurrent(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"currentWorkspaceId": id}))
}

// DeleteWorkspace removes an empty workspace
// @Summary      Delete workspace
// @Description  Refuses the last workspace and workspaces that still hold invoices or records
// @Tags         workspaces
// @Produce      json
// @Param        id   path      string  true  "Workspace ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/workspaces/{id} [delete]
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	if err := h.workspaceService.DeleteWorkspace(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}
