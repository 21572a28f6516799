package delivery

import (
	"context"

	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

// ServiceInput is the writable part of a service record.
type ServiceInput struct {
	ClientID          string               `json:"clientId"`
	PickupAddresses   []string             `json:"pickupAddresses"`
	DeliveryAddresses []string             `json:"deliveryAddresses"`
	Cost              float64              `json:"cost"`
	DriverFee         float64              `json:"driverFee"`
	RequesterName     string               `json:"requesterName"`
	Date              string               `json:"date"`
	Paid              bool                 `json:"paid"`
	PaymentMethod     models.PaymentMethod `json:"paymentMethod"`
	Status            models.ServiceStatus `json:"status"`
	WaitingTime       *float64             `json:"waitingTime"`
	ExtraFee          *float64             `json:"extraFee"`
	ManualOrderID     string               `json:"manualOrderId"`
}

func (in ServiceInput) applyTo(s *models.ServiceRecord) {
	s.ClientID = in.ClientID
	s.PickupAddresses = in.PickupAddresses
	s.DeliveryAddresses = in.DeliveryAddresses
	s.Cost = in.Cost
	s.DriverFee = in.DriverFee
	s.RequesterName = in.RequesterName
	s.Date = in.Date
	s.Paid = in.Paid
	s.PaymentMethod = in.PaymentMethod
	s.Status = in.Status
	s.WaitingTime = in.WaitingTime
	s.ExtraFee = in.ExtraFee
	s.ManualOrderID = in.ManualOrderID
}

// loadOwned hides records of other owners behind ErrNotFound.
func loadOwned(
	ctx context.Context,
	repo storage.Adapter,
	ownerID string,
	id string,
) (*models.ServiceRecord, error) {

	s, err := repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	return s, nil
}
