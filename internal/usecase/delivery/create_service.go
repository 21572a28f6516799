package delivery

import (
	"context"

	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type CreateService struct {
	repo storage.Adapter
}

func NewCreateService(repo storage.Adapter) *CreateService {
	return &CreateService{repo: repo}
}

func (uc *CreateService) Execute(
	ctx context.Context,
	ownerID string,
	in ServiceInput,
) (*models.ServiceRecord, error) {

	s := &models.ServiceRecord{OwnerID: ownerID}
	in.applyTo(s)

	if err := uc.repo.SaveService(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
