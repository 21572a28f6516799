package delivery

import (
	"context"

	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type GetService struct {
	repo storage.Adapter
}

func NewGetService(repo storage.Adapter) *GetService {
	return &GetService{repo: repo}
}

func (uc *GetService) Execute(ctx context.Context, ownerID, id string) (*dto.ServiceListDTO, error) {
	s, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}

	names := map[string]string{}
	if s.ClientID != "" {
		if client, err := uc.repo.GetClient(ctx, s.ClientID); err == nil && client.OwnerID == ownerID {
			names[client.ID] = client.Name
		}
	}
	item := newListItem(*s, names)
	return &item, nil
}
