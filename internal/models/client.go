package models

import "time"

// Cliente da transportadora, vinculado a um único dono (ownerId)
type Client struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"ownerId"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Category      string     `json:"category"`
	Address       string     `json:"address"`
	ContactPerson string     `json:"contactPerson"`
	CNPJ          string     `json:"cnpj"`
	CreatedAt     time.Time  `json:"createdAt"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
}

// SuggestedClientCategories is offered to the UI; Category itself is free-form.
var SuggestedClientCategories = []string{
	"Farmácia",
	"Restaurante",
	"Escritório",
	"Laboratório",
	"Comércio",
	"Pessoa Física",
	"Outros",
}

func (c Client) IsDeleted() bool {
	return c.DeletedAt != nil
}

func (c Client) RecordDate() string {
	return c.CreatedAt.Format("2006-01-02")
}
