package dto

import "github.com/BruksfildServices01/courier-manager/internal/models"

// ClientListDTO adds the number of active services of the client.
type ClientListDTO struct {
	models.Client
	ServiceCount int `json:"serviceCount"`
}
