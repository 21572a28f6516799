package delivery

import (
	"time"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// ===============================
// Domain Actions
// ===============================

// SoftDelete marks the record deleted. It returns false when it already was,
// keeping the original deletion time.
func SoftDelete(s *models.ServiceRecord, now time.Time) bool {
	if s.DeletedAt != nil {
		return false
	}
	s.DeletedAt = &now
	return true
}

// Restore clears the deletion mark. It returns false when there was none.
func Restore(s *models.ServiceRecord) bool {
	if s.DeletedAt == nil {
		return false
	}
	s.DeletedAt = nil
	return true
}

func SoftDeleteClient(c *models.Client, now time.Time) bool {
	if c.DeletedAt != nil {
		return false
	}
	c.DeletedAt = &now
	return true
}

func RestoreClient(c *models.Client) bool {
	if c.DeletedAt == nil {
		return false
	}
	c.DeletedAt = nil
	return true
}

// Charge is what the client pays for the service, surcharges included.
func Charge(s models.ServiceRecord) float64 {
	total := s.Cost
	if s.WaitingTime != nil {
		total += *s.WaitingTime
	}
	if s.ExtraFee != nil {
		total += *s.ExtraFee
	}
	return total
}
