package delivery

import (
	"context"

	domain "github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type UpdateService struct {
	repo storage.Adapter
}

func NewUpdateService(repo storage.Adapter) *UpdateService {
	return &UpdateService{repo: repo}
}

func (uc *UpdateService) Execute(
	ctx context.Context,
	ownerID string,
	id string,
	in ServiceInput,
) (*models.ServiceRecord, error) {

	current, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CanEdit(current); err != nil {
		return nil, err
	}

	next := current.Clone()
	in.applyTo(&next)

	if err := uc.repo.UpdateService(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}
