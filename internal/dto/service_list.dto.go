package dto

import "github.com/BruksfildServices01/courier-manager/internal/models"

// ServiceListDTO is a service row enriched with what list screens show.
type ServiceListDTO struct {
	models.ServiceRecord
	ClientName string  `json:"clientName"`
	Charge     float64 `json:"charge"`
}
