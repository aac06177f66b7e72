package middleware

import (
	"context"
	"errors"
	"net/http"

	"invoicer/internal/repository"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	WorkspaceHeader = "X-Workspace-ID"
	workspaceKey    = "workspaceID"
)

// WorkspaceResolver maps a requested workspace id (possibly empty) to an existing one.
type WorkspaceResolver interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// WorkspaceScope puts the request's workspace in the context. The X-Workspace-ID header
// wins; without it the current workspace is used.
func WorkspaceScope(resolver WorkspaceResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request.Context(), c.GetHeader(WorkspaceHeader))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, repository.ErrWorkspaceNotFound) || errors.Is(err, repository.ErrNotFound) {
				status = http.StatusNotFound
			}
			c.AbortWithStatusJSON(status, response.Error(status, err.Error()))
			return
		}
		c.Set(workspaceKey, id)
		c.Next()
	}
}

// GetWorkspaceID returns the workspace WorkspaceScope resolved.
func GetWorkspaceID(c *gin.Context) string {
	return c.GetString(workspaceKey)
}
