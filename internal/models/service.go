package models

import "time"

type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "PIX"
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
)

type ServiceStatus string

const (
	StatusPending    ServiceStatus = "PENDING"
	StatusInProgress ServiceStatus = "IN_PROGRESS"
	StatusDone       ServiceStatus = "DONE"
	StatusCancelled  ServiceStatus = "CANCELLED"
)

// ServiceRecord é a corrida: coleta(s), entrega(s) e os valores cobrados.
type ServiceRecord struct {
	ID                string        `json:"id"`
	OwnerID           string        `json:"ownerId"`
	ClientID          string        `json:"clientId"`
	PickupAddresses   []string      `json:"pickupAddresses"`
	DeliveryAddresses []string      `json:"deliveryAddresses"`
	Cost              float64       `json:"cost"`
	DriverFee         float64       `json:"driverFee"`
	RequesterName     string        `json:"requesterName"`
	Date              string        `json:"date"`
	Paid              bool          `json:"paid"`
	PaymentMethod     PaymentMethod `json:"paymentMethod,omitempty"`
	Status            ServiceStatus `json:"status,omitempty"`
	WaitingTime       *float64      `json:"waitingTime,omitempty"`
	ExtraFee          *float64      `json:"extraFee,omitempty"`
	ManualOrderID     string        `json:"manualOrderId,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
	DeletedAt         *time.Time    `json:"deletedAt,omitempty"`
}

func (s ServiceRecord) IsDeleted() bool {
	return s.DeletedAt != nil
}

func (s ServiceRecord) RecordDate() string {
	return s.Date
}

// EffectivePaymentMethod applies the PIX default used by aggregations.
func (s ServiceRecord) EffectivePaymentMethod() PaymentMethod {
	if s.PaymentMethod == "" {
		return PaymentPix
	}
	return s.PaymentMethod
}

// EffectiveStatus applies the DONE default used by aggregations.
func (s ServiceRecord) EffectiveStatus() ServiceStatus {
	if s.Status == "" {
		return StatusDone
	}
	return s.Status
}

// Clone returns a deep copy so stored and caller-owned records never share slices.
func (s ServiceRecord) Clone() ServiceRecord {
	out := s
	out.PickupAddresses = append([]string(nil), s.PickupAddresses...)
	out.DeliveryAddresses = append([]string(nil), s.DeliveryAddresses...)
	if s.WaitingTime != nil {
		v := *s.WaitingTime
		out.WaitingTime = &v
	}
	if s.ExtraFee != nil {
		v := *s.ExtraFee
		out.ExtraFee = &v
	}
	if s.DeletedAt != nil {
		v := *s.DeletedAt
		out.DeletedAt = &v
	}
	return out
}
