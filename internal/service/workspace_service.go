package service

import (
	"context"
	"fmt"

	"invoicer/internal/logger"
	"invoicer/internal/model"
	"invoicer/internal/repository"

	"github.com/rs/zerolog"
)

// --- DTOs ---

type CreateWorkspaceRequest struct {
	Name            string                `json:"name" binding:"required"`
	BusinessDetails model.BusinessDetails `json:"businessDetails"`
	Logo            string                `json:"logo"`
}

type UpdateWorkspaceRequest struct {
	Name *string `json:"name"`
	Logo *string `json:"logo"`
}

// --- Interface ---

type WorkspaceService interface {
	// EnsureDefault creates the personal workspace when none exist and makes sure the
	// current pointer names an existing workspace.
	EnsureDefault(ctx context.Context) (model.Workspace, error)
	ListWorkspaces(ctx context.Context) ([]model.Workspace, error)
	GetWorkspace(ctx context.Context, id string) (model.Workspace, error)
	Current(ctx context.Context) (model.Workspace, error)
	// Resolve returns id when it names a workspace, or the current workspace when id is empty.
	Resolve(ctx context.Context, id string) (string, error)
	CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (model.Workspace, error)
	UpdateWorkspace(ctx context.Context, id string, req UpdateWorkspaceRequest) (model.Workspace, error)
	UpdateBusinessDetails(ctx context.Context, id string, details model.BusinessDetails) (model.Workspace, error)
	SetCurrent(ctx context.Context, id string) error
	DeleteWorkspace(ctx context.Context, id string) error
}

// --- Implementation ---

type workspaceService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func NewWorkspaceService(repos *repository.Repositories) WorkspaceService {
	return &workspaceService{repos: repos, log: logger.WithComponent("workspace_service")}
}

func (s *workspaceService) EnsureDefault(ctx context.Context) (model.Workspace, error) {
	var current model.Workspace
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		workspaces, err := s.repos.Workspaces.List(txCtx)
		if err != nil {
			return err
		}
		if len(workspaces) == 0 {
			ws, err := s.create(txCtx, model.Workspace{Name: model.DefaultWorkspaceName, IsPersonal: true})
			if err != nil {
				return err
			}
			s.log.Info().Str("workspace_id", ws.ID).Msg("Created personal workspace")
			current = ws
			return nil
		}

		id, err := s.repos.Workspaces.CurrentID(txCtx)
		if err != nil {
			return err
		}
		for _, ws := range workspaces {
			if ws.ID == id {
				current = ws
				return nil
			}
		}
		current = workspaces[0]
		return s.repos.Workspaces.SetCurrent(txCtx, current.ID)
	})
	if err != nil {
		return model.Workspace{}, fmt.Errorf("failed to ensure default workspace: %w", err)
	}
	return current, nil
}

func (s *workspaceService) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	return s.repos.Workspaces.List(ctx)
}

func (s *workspaceService) GetWorkspace(ctx context.Context, id string) (model.Workspace, error) {
	return s.repos.Workspaces.FindByID(ctx, id)
}

func (s *workspaceService) Current(ctx context.Context) (model.Workspace, error) {
	return s.EnsureDefault(ctx)
}

func (s *workspaceService) Resolve(ctx context.Context, id string) (string, error) {
	if id == "" {
		ws, err := s.Current(ctx)
		if err != nil {
			return "", err
		}
		return ws.ID, nil
	}
	ok, err := s.repos.Workspaces.Exists(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", repository.ErrWorkspaceNotFound
	}
	return id, nil
}

func (s *workspaceService) CreateWorkspace(ctx context.Context, req CreateWorkspaceRequest) (model.Workspace, error) {
	if req.Name == "" {
		return model.Workspace{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	var created model.Workspace
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		ws, err := s.create(txCtx, model.Workspace{
			Name:            req.Name,
			BusinessDetails: req.BusinessDetails,
			Logo:            req.Logo,
		})
		created = ws
		return err
	})
	if err != nil {
		return model.Workspace{}, fmt.Errorf("failed to create workspace: %w", err)
	}
	return created, nil
}

// create adds a workspace, makes it current and seeds its standard template.
func (s *workspaceService) create(ctx context.Context, ws model.Workspace) (model.Workspace, error) {
	created, err := s.repos.Workspaces.Add(ctx, ws)
	if err != nil {
		return model.Workspace{}, err
	}
	if err := s.repos.Workspaces.SetCurrent(ctx, created.ID); err != nil {
		return model.Workspace{}, err
	}
	if _, err := ensureStandardTemplate(ctx, s.repos.Templates, created.ID); err != nil {
		return model.Workspace{}, err
	}
	return created, nil
}

func (s *workspaceService) UpdateWorkspace(ctx context.Context, id string, req UpdateWorkspaceRequest) (model.Workspace, error) {
	if req.Name != nil && *req.Name == "" {
		return model.Workspace{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	return s.repos.Workspaces.Update(ctx, id, func(ws *model.Workspace) {
		if req.Name != nil {
			ws.Name = *req.Name
		}
		if req.Logo != nil {
			ws.Logo = *req.Logo
		}
	})
}

func (s *workspaceService) UpdateBusinessDetails(ctx context.Context, id string, details model.BusinessDetails) (model.Workspace, error) {
	return s.repos.Workspaces.Update(ctx, id, func(ws *model.Workspace) {
		ws.BusinessDetails = details
	})
}

func (s *workspaceService) SetCurrent(ctx context.Context, id string) error {
	return s.repos.Workspaces.SetCurrent(ctx, id)
}

// DeleteWorkspace refuses to remove the last workspace or one that still owns invoices,
// customers, businesses, bank accounts or the saved draft. Its templates go with it.
func (s *workspaceService) DeleteWorkspace(ctx context.Context, id string) error {
	return s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		workspaces, err := s.repos.Workspaces.List(txCtx)
		if err != nil {
			return err
		}
		if _, err := s.repos.Workspaces.FindByID(txCtx, id); err != nil {
			return err
		}
		if len(workspaces) <= 1 {
			return ErrLastWorkspace
		}
		if err := s.ensureEmpty(txCtx, id); err != nil {
			return err
		}

		if _, err := s.repos.Templates.DeleteByWorkspace(txCtx, id); err != nil {
			return err
		}
		if err := s.repos.Workspaces.Delete(txCtx, id); err != nil {
			return err
		}

		current, err := s.repos.Workspaces.CurrentID(txCtx)
		if err != nil {
			return err
		}
		if current == id {
			for _, ws := range workspaces {
				if ws.ID != id {
					return s.repos.Workspaces.SetCurrent(txCtx, ws.ID)
				}
			}
		}
		s.log.Info().Str("workspace_id", id).Msg("Workspace deleted")
		return nil
	})
}

func (s *workspaceService) ensureEmpty(ctx context.Context, id string) error {
	invoices, err := s.repos.Invoices.ListByWorkspace(ctx, id)
	if err != nil {
		return err
	}
	customers, err := s.repos.Customers.ListByWorkspace(ctx, id)
	if err != nil {
		return err
	}
	businesses, err := s.repos.Businesses.ListByWorkspace(ctx, id)
	if err != nil {
		return err
	}
	accounts, err := s.repos.BankAccounts.ListByWorkspace(ctx, id)
	if err != nil {
		return err
	}
	if len(invoices)+len(customers)+len(businesses)+len(accounts) > 0 {
		return ErrWorkspaceNotEmpty
	}
	draft, err := s.repos.Drafts.Get(ctx)
	if err != nil {
		return err
	}
	if draft != nil && draft.WorkspaceID == id {
		return fmt.Errorf("%w: the saved draft belongs to it", ErrWorkspaceNotEmpty)
	}
	return nil
}
