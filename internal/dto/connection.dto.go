package dto

import "github.com/BruksfildServices01/courier-manager/internal/models"

// ConnectionDTO masks the stored credential.
type ConnectionDTO struct {
	models.DatabaseConnection
	HasAPIKey bool `json:"hasApiKey"`
}

func NewConnectionDTO(c models.DatabaseConnection) ConnectionDTO {
	out := ConnectionDTO{DatabaseConnection: c, HasAPIKey: c.APIKey != ""}
	out.APIKey = ""
	return out
}
