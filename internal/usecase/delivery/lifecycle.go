package delivery

import (
	"context"

	domain "github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

// ======================================================
// DELETE (lixeira)
// ======================================================

type DeleteService struct {
	repo storage.Adapter
}

func NewDeleteService(repo storage.Adapter) *DeleteService {
	return &DeleteService{repo: repo}
}

func (uc *DeleteService) Execute(ctx context.Context, ownerID, id string) error {
	if _, err := loadOwned(ctx, uc.repo, ownerID, id); err != nil {
		return err
	}
	return uc.repo.DeleteService(ctx, id)
}

// ======================================================
// RESTORE
// ======================================================

type RestoreService struct {
	repo storage.Adapter
}

func NewRestoreService(repo storage.Adapter) *RestoreService {
	return &RestoreService{repo: repo}
}

func (uc *RestoreService) Execute(ctx context.Context, ownerID, id string) (*models.ServiceRecord, error) {
	s, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CanRestore(s); err != nil {
		return nil, err
	}
	if err := uc.repo.RestoreService(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.GetService(ctx, id)
}

// ======================================================
// HISTORY
// ======================================================

type ServiceHistory struct {
	repo storage.Adapter
}

func NewServiceHistory(repo storage.Adapter) *ServiceHistory {
	return &ServiceHistory{repo: repo}
}

func (uc *ServiceHistory) Execute(ctx context.Context, ownerID, id string) ([]models.ServiceLog, error) {
	if _, err := loadOwned(ctx, uc.repo, ownerID, id); err != nil {
		return nil, err
	}
	return uc.repo.GetServiceLogs(ctx, id)
}
