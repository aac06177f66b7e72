package handler

import (
	"errors"
	"net/http"

	"invoicer/internal/autosave"
	"invoicer/internal/repository"
	"invoicer/internal/service"
	"invoicer/internal/storage"
	"invoicer/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrWorkspaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, repository.ErrInvalidUpdate),
		errors.Is(err, autosave.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, autosave.ErrInvalidTransition),
		errors.Is(err, autosave.ErrSessionClosed),
		errors.Is(err, repository.ErrLastDefaultRecord),
		errors.Is(err, repository.ErrNotDeletable),
		errors.Is(err, service.ErrLastWorkspace),
		errors.Is(err, service.ErrWorkspaceNotEmpty):
		return http.StatusConflict
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}
