package delivery

import (
	"context"

	"github.com/rs/zerolog/log"

	domain "github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/query"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type ListFilter struct {
	From     string
	To       string
	ClientID string
	// Trash lists only deleted services instead of only live ones.
	Trash bool
}

type ListServices struct {
	repo storage.Adapter
}

func NewListServices(repo storage.Adapter) *ListServices {
	return &ListServices{repo: repo}
}

// Execute returns the owner's services, newest first, with client names.
func (uc *ListServices) Execute(
	ctx context.Context,
	ownerID string,
	f ListFilter,
) ([]dto.ServiceListDTO, error) {

	services, err := uc.repo.GetServices(ctx, storage.ServiceFilter{
		OwnerID:   ownerID,
		StartDate: f.From,
		EndDate:   f.To,
		ClientID:  f.ClientID,
	})
	if err != nil {
		return nil, err
	}

	if f.Trash {
		services = query.OnlyDeleted(services)
	} else {
		services = query.ExcludeDeleted(services)
	}
	query.SortByDateDesc(services)

	names := map[string]string{}
	clients, err := uc.repo.GetClients(ctx, ownerID)
	if err != nil {
		// names are optional in the listing
		log.Warn().Err(err).Str("owner_id", ownerID).Msg("failed to load client names")
	}
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	out := make([]dto.ServiceListDTO, 0, len(services))
	for _, s := range services {
		out = append(out, newListItem(s, names))
	}
	return out, nil
}

func newListItem(s models.ServiceRecord, names map[string]string) dto.ServiceListDTO {
	return dto.ServiceListDTO{
		ServiceRecord: s,
		ClientName:    names[s.ClientID],
		Charge:        domain.Charge(s),
	}
}
