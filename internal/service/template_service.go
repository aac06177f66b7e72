package service

import (
	"context"
	"fmt"

	"invoicer/internal/model"
	"invoicer/internal/repository"
)

// TemplateService adds seeding and duplication to the scoped record operations.
type TemplateService interface {
	RecordService[model.Template]
	// EnsureStandard seeds the standard template into a workspace that has none.
	EnsureStandard(ctx context.Context, workspaceID string) (bool, error)
	Duplicate(ctx context.Context, workspaceID, id string) (model.Template, error)
}

type templateService struct {
	*recordService[model.Template, *model.Template]
	repo      repository.TemplateRepository
	txManager repository.TransactionManager
}

func NewTemplateService(repo repository.TemplateRepository, txManager repository.TransactionManager) TemplateService {
	return &templateService{
		recordService: newRecordService[model.Template](repo, txManager, "template"),
		repo:          repo,
		txManager:     txManager,
	}
}

// List seeds the standard template on first read of a workspace.
func (s *templateService) List(ctx context.Context, workspaceID string) ([]model.Template, error) {
	if _, err := s.EnsureStandard(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.repo.ListByWorkspace(ctx, workspaceID)
}

func (s *templateService) EnsureStandard(ctx context.Context, workspaceID string) (bool, error) {
	var seeded bool
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		seeded, err = ensureStandardTemplate(txCtx, s.repo, workspaceID)
		return err
	})
	return seeded, err
}

func (s *templateService) Duplicate(ctx context.Context, workspaceID, id string) (model.Template, error) {
	src, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return model.Template{}, err
	}
	dup := src
	dup.Name = src.Name + " (Copy)"
	dup.IsDefault = false
	dup.CustomFields = append([]model.CustomField(nil), src.CustomFields...)
	dup.ItemColumns = append([]model.ItemColumn(nil), src.ItemColumns...)
	dup.Sections = append([]model.Section(nil), src.Sections...)
	created, err := s.repo.Add(ctx, dup)
	if err != nil {
		return model.Template{}, fmt.Errorf("failed to duplicate template %s: %w", id, err)
	}
	return created, nil
}

func ensureStandardTemplate(ctx context.Context, repo repository.TemplateRepository, workspaceID string) (bool, error) {
	existing, err := repo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	standard := model.StandardTemplate()
	standard.WorkspaceID = workspaceID
	if _, err := repo.Add(ctx, standard); err != nil {
		return false, fmt.Errorf("failed to seed standard template: %w", err)
	}
	return true, nil
}
