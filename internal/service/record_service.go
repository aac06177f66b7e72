package service

import (
	"context"
	"encoding/json"
	"fmt"

	"invoicer/internal/logger"
	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/rs/zerolog"
)

// RecordService exposes a workspace-scoped repository to the handlers. Every call names
// the workspace; records of other workspaces are reported as not found.
type RecordService[T any] interface {
	Create(ctx context.Context, workspaceID string, rec T) (T, error)
	// Update merges a partial JSON document onto the stored record.
	Update(ctx context.Context, workspaceID, id string, patch []byte) (T, error)
	Delete(ctx context.Context, workspaceID, id string) error
	Get(ctx context.Context, workspaceID, id string) (T, error)
	List(ctx context.Context, workspaceID string) ([]T, error)
	SetDefault(ctx context.Context, workspaceID, id string) error
}

type (
	CustomerService    = RecordService[model.Customer]
	BusinessService    = RecordService[model.Business]
	BankAccountService = RecordService[model.BankAccount]
)

type scopedModel[T any] interface {
	*T
	Scope() string
	SetWorkspace(id string)
}

type recordService[T any, P scopedModel[T]] struct {
	repo      repository.ScopedRepository[T]
	txManager repository.TransactionManager
	kind      string
	log       zerolog.Logger
}

func newRecordService[T any, P scopedModel[T]](repo repository.ScopedRepository[T], txManager repository.TransactionManager, kind string) *recordService[T, P] {
	return &recordService[T, P]{repo: repo, txManager: txManager, kind: kind, log: logger.WithComponent(kind + "_service")}
}

func NewCustomerService(repo repository.CustomerRepository, txManager repository.TransactionManager) CustomerService {
	return newRecordService[model.Customer](repo, txManager, "customer")
}

func NewBusinessService(repo repository.BusinessRepository, txManager repository.TransactionManager) BusinessService {
	return newRecordService[model.Business](repo, txManager, "business")
}

func NewBankAccountService(repo repository.BankAccountRepository, txManager repository.TransactionManager) BankAccountService {
	return newRecordService[model.BankAccount](repo, txManager, "bank_account")
}

func (s *recordService[T, P]) Create(ctx context.Context, workspaceID string, rec T) (T, error) {
	P(&rec).SetWorkspace(workspaceID)
	created, err := s.repo.Add(ctx, rec)
	if err != nil {
		return created, fmt.Errorf("failed to create %s: %w", s.kind, err)
	}
	return created, nil
}

// The read, the merge and the write run in one transaction, so the merged record is the
// one that gets stored.
func (s *recordService[T, P]) Update(ctx context.Context, workspaceID, id string, patch []byte) (T, error) {
	var updated T
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.Get(txCtx, workspaceID, id)
		if err != nil {
			return err
		}
		// A patch that does not decode must not reach the store half-applied.
		if err := json.Unmarshal(patch, &current); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		updated, err = s.repo.Update(txCtx, id, func(rec *T) {
			*rec = current
		})
		if err != nil {
			return fmt.Errorf("failed to update %s %s: %w", s.kind, id, err)
		}
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

func (s *recordService[T, P]) Delete(ctx context.Context, workspaceID, id string) error {
	if _, err := s.Get(ctx, workspaceID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", s.kind, id, err)
	}
	s.log.Info().Str("id", id).Str("workspace_id", workspaceID).Msg("Record deleted")
	return nil
}

func (s *recordService[T, P]) Get(ctx context.Context, workspaceID, id string) (T, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return rec, fmt.Errorf("%s %s: %w", s.kind, id, err)
	}
	if P(&rec).Scope() != workspaceID {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", s.kind, id, repository.ErrNotFound)
	}
	return rec, nil
}

func (s *recordService[T, P]) List(ctx context.Context, workspaceID string) ([]T, error) {
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

func (s *recordService[T, P]) SetDefault(ctx context.Context, workspaceID, id string) error {
	if _, err := s.Get(ctx, workspaceID, id); err != nil {
		return err
	}
	return s.repo.SetDefault(ctx, id)
}
