package delivery

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// ValidateService checks a record before any persistence attempt.
func ValidateService(s *models.ServiceRecord) error {
	if !hasNonBlank(s.PickupAddresses) {
		return httperr.ErrBusinessMsg("missing_pickup_address", "Informe ao menos um endereço de coleta.")
	}
	if !hasNonBlank(s.DeliveryAddresses) {
		return httperr.ErrBusinessMsg("missing_delivery_address", "Informe ao menos um endereço de entrega.")
	}
	if strings.TrimSpace(s.OwnerID) == "" {
		return httperr.ErrBusiness("missing_owner")
	}
	if s.Cost < 0 {
		return httperr.ErrBusinessMsg("negative_cost", "O valor não pode ser negativo.")
	}
	if s.DriverFee < 0 {
		return httperr.ErrBusinessMsg("negative_driver_fee", "O valor do motoboy não pode ser negativo.")
	}
	if s.WaitingTime != nil && *s.WaitingTime < 0 {
		return httperr.ErrBusiness("negative_waiting_time")
	}
	if s.ExtraFee != nil && *s.ExtraFee < 0 {
		return httperr.ErrBusiness("negative_extra_fee")
	}
	if !ValidDate(s.Date) {
		return httperr.ErrBusinessMsg("invalid_date", "Data inválida.")
	}
	if !ValidPaymentMethod(s.PaymentMethod) {
		return httperr.ErrBusiness("invalid_payment_method")
	}
	if !ValidStatus(s.Status) {
		return httperr.ErrBusiness("invalid_status")
	}
	return nil
}

// CleanAddresses trims every address and drops blank entries, keeping order.
func CleanAddresses(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func ValidateClient(c *models.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return httperr.ErrBusinessMsg("missing_name", "Informe o nome do cliente.")
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return httperr.ErrBusiness("missing_owner")
	}
	return nil
}

func ValidateExpense(e *models.ExpenseRecord) error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return httperr.ErrBusiness("missing_owner")
	}
	if !e.Category.Valid() {
		return httperr.ErrBusiness("invalid_category")
	}
	if e.Amount < 0 {
		return httperr.ErrBusinessMsg("negative_amount", "O valor não pode ser negativo.")
	}
	if !ValidDate(e.Date) {
		return httperr.ErrBusinessMsg("invalid_date", "Data inválida.")
	}
	return nil
}

func ValidateUser(u *models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return httperr.ErrBusinessMsg("missing_name", "Informe o nome.")
	}
	if !strings.Contains(u.Email, "@") {
		return httperr.ErrBusinessMsg("invalid_email", "E-mail inválido.")
	}
	switch u.Role {
	case models.RoleAdmin, models.RoleUser:
	default:
		return httperr.ErrBusiness("invalid_role")
	}
	switch u.Status {
	case models.UserActive, models.UserBlocked:
	default:
		return httperr.ErrBusiness("invalid_status")
	}
	return nil
}

// ValidDate accepts YYYY-MM-DD or an ISO datetime starting with it.
func ValidDate(d string) bool {
	if len(d) < 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", d[:10])
	return err == nil
}

func hasNonBlank(list []string) bool {
	for _, a := range list {
		if strings.TrimSpace(a) != "" {
			return true
		}
	}
	return false
}
