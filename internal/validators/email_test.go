package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailFormatValid(t *testing.T) {
	valid := []string{"ana@example.com", "joao.silva+rotas@entregas.com.br"}
	invalid := []string{"", "ana", "ana@", "ana@localhost", "Ana <ana@example.com>", "ana @example.com"}

	for _, e := range valid {
		assert.True(t, IsEmailFormatValid(e), e)
	}
	for _, e := range invalid {
		assert.False(t, IsEmailFormatValid(e), e)
	}
}

func TestIsEmailDomainValidRejectsMissingDomain(t *testing.T) {
	assert.False(t, IsEmailDomainValid("ana@"))
	assert.False(t, IsEmailDomainValid("ana"))
}
