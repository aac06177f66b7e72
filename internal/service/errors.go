package service

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrLastWorkspace     = errors.New("cannot delete the only workspace")
	ErrWorkspaceNotEmpty = errors.New("workspace still has records")
)
