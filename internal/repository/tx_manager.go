package repository

import (
	"context"
	"sync"
)

type contextKey string

const txKey contextKey = "store_tx"

// TransactionManager serializes read-modify-write cycles against the key-value store.
// A context returned to fn is recognised on nested calls, so repositories can compose
// their own RunInTx calls inside a service-level one.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	mu sync.Mutex
}

func NewTransactionManager() TransactionManager {
	return &transactionManager{}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if InTx(ctx, t) {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(context.WithValue(ctx, txKey, t))
}

// InTx reports whether ctx was produced by tm's RunInTx.
func InTx(ctx context.Context, tm TransactionManager) bool {
	held, ok := ctx.Value(txKey).(*transactionManager)
	return ok && held == tm
}
