package delivery

import (
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// ===============================
// Status / Payment
// ===============================

func ValidStatus(s models.ServiceStatus) bool {
	switch s {
	case "", models.StatusPending, models.StatusInProgress, models.StatusDone, models.StatusCancelled:
		return true
	}
	return false
}

func ValidPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case "", models.PaymentPix, models.PaymentCash, models.PaymentCard:
		return true
	}
	return false
}

// CanRestore define se uma corrida excluída pode ser restaurada
func CanRestore(s *models.ServiceRecord) error {
	if s.DeletedAt == nil {
		return httperr.ErrBusiness("not_deleted")
	}
	return nil
}

// CanEdit impede editar uma corrida que está na lixeira
func CanEdit(s *models.ServiceRecord) error {
	if s.DeletedAt != nil {
		return httperr.ErrBusinessMsg("service_deleted", "Restaure a corrida antes de editar.")
	}
	return nil
}

// CanEditClient impede editar um cliente que está na lixeira
func CanEditClient(c *models.Client) error {
	if c.DeletedAt != nil {
		return httperr.ErrBusinessMsg("client_deleted", "Restaure o cliente antes de editar.")
	}
	return nil
}
