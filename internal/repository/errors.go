package repository

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrLastDefaultRecord = errors.New("cannot delete the last record of its kind in a workspace")
	ErrNotDeletable      = errors.New("only draft invoices can be quick-deleted")
	ErrInvalidUpdate     = errors.New("id and workspace of a record cannot change")
)
