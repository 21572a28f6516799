package dto

import (
	"time"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// UserDTO is the public view of a user; the password hash never leaves the
// server.
type UserDTO struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	Phone           string            `json:"phone"`
	Role            models.Role       `json:"role"`
	Status          models.UserStatus `json:"status"`
	CompanyName     string            `json:"companyName,omitempty"`
	CompanyDocument string            `json:"companyDocument,omitempty"`
	CompanyAddress  string            `json:"companyAddress,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		Status:          u.Status,
		CompanyName:     u.CompanyName,
		CompanyDocument: u.CompanyDocument,
		CompanyAddress:  u.CompanyAddress,
		CreatedAt:       u.CreatedAt,
	}
}
