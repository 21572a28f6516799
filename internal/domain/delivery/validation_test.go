package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
)

func validService() *models.ServiceRecord {
	return &models.ServiceRecord{
		OwnerID:           "u1",
		ClientID:          "c1",
		PickupAddresses:   []string{"Rua A"},
		DeliveryAddresses: []string{"Rua B"},
		Cost:              50,
		Date:              "2024-01-05",
	}
}

func TestValidateService(t *testing.T) {
	assert.NoError(t, ValidateService(validService()))

	s := validService()
	s.PickupAddresses = []string{}
	assert.True(t, httperr.IsBusiness(ValidateService(s), "missing_pickup_address"))

	s = validService()
	s.DeliveryAddresses = []string{"  ", ""}
	assert.True(t, httperr.IsBusiness(ValidateService(s), "missing_delivery_address"))

	s = validService()
	s.Cost = -1
	assert.True(t, httperr.IsBusiness(ValidateService(s), "negative_cost"))

	s = validService()
	s.Date = "2024-01-05T13:45:00.000Z"
	assert.NoError(t, ValidateService(s))

	s = validService()
	s.Date = "05/01/2024"
	assert.True(t, httperr.IsBusiness(ValidateService(s), "invalid_date"))

	s = validService()
	s.PaymentMethod = "BOLETO"
	assert.True(t, httperr.IsBusiness(ValidateService(s), "invalid_payment_method"))
}

func TestCleanAddresses(t *testing.T) {
	assert.Equal(t, []string{"Rua A", "Rua C"}, CleanAddresses([]string{" Rua A ", "", "  ", "Rua C"}))
}

func TestSoftDeleteAndRestore(t *testing.T) {
	s := validService()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, Restore(s))
	assert.True(t, SoftDelete(s, now))
	assert.False(t, SoftDelete(s, now.Add(time.Hour)))
	assert.Equal(t, now, *s.DeletedAt)
	assert.NoError(t, CanRestore(s))
	assert.True(t, Restore(s))
	assert.Nil(t, s.DeletedAt)
	assert.True(t, httperr.IsBusiness(CanRestore(s), "not_deleted"))
}

func TestCharge(t *testing.T) {
	wait, extra := 10.0, 5.5
	s := validService()
	s.WaitingTime = &wait
	s.ExtraFee = &extra
	assert.InDelta(t, 65.5, Charge(*s), 0.0001)
}
