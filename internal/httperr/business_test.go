package httperr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBusinessUnwraps(t *testing.T) {
	err := fmt.Errorf("save service: %w", ErrBusiness("missing_pickup_address"))

	assert.True(t, IsBusiness(err, "missing_pickup_address"))
	assert.False(t, IsBusiness(err, "other"))

	be, ok := AsBusiness(err)
	assert.True(t, ok)
	assert.Equal(t, "missing_pickup_address", be.Code)
}

func TestBusinessErrorMessage(t *testing.T) {
	err := ErrBusinessMsg("email_already_registered", "E-mail já cadastrado.")
	assert.Equal(t, "email_already_registered: E-mail já cadastrado.", err.Error())
	assert.Equal(t, "invalid_state", ErrBusiness("invalid_state").Error())
}
