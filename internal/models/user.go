package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type UserStatus string

const (
	UserActive  UserStatus = "ACTIVE"
	UserBlocked UserStatus = "BLOCKED"
)

// User é a conta dona de clientes, corridas e despesas.
// Password guarda o hash bcrypt, nunca o texto puro.
type User struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phone    string     `json:"phone"`
	Role     Role       `json:"role"`
	Status   UserStatus `json:"status"`

	CompanyName     string `json:"companyName,omitempty"`
	CompanyDocument string `json:"companyDocument,omitempty"`
	CompanyAddress  string `json:"companyAddress,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsBlocked() bool {
	return u.Status == UserBlocked
}
