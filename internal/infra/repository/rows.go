package repository

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// Row types keep GORM tags out of the domain models. Column names are
// explicit so the schema does not depend on the naming strategy.

type userRow struct {
	ID              string    `gorm:"column:id;primaryKey;size:64"`
	Name            string    `gorm:"column:name;not null"`
	Email           string    `gorm:"column:email;not null;uniqueIndex"`
	Password        string    `gorm:"column:password;not null"`
	Phone           string    `gorm:"column:phone"`
	Role            string    `gorm:"column:role;size:16;not null"`
	Status          string    `gorm:"column:status;size:16;not null"`
	CompanyName     string    `gorm:"column:company_name"`
	CompanyDocument string    `gorm:"column:company_document"`
	CompanyAddress  string    `gorm:"column:company_address"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

func newUserRow(u *models.User) userRow {
	return userRow{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Password:        u.Password,
		Phone:           u.Phone,
		Role:            string(u.Role),
		Status:          string(u.Status),
		CompanyName:     u.CompanyName,
		CompanyDocument: u.CompanyDocument,
		CompanyAddress:  u.CompanyAddress,
		CreatedAt:       u.CreatedAt,
	}
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Password:        r.Password,
		Phone:           r.Phone,
		Role:            models.Role(r.Role),
		Status:          models.UserStatus(r.Status),
		CompanyName:     r.CompanyName,
		CompanyDocument: r.CompanyDocument,
		CompanyAddress:  r.CompanyAddress,
		CreatedAt:       r.CreatedAt,
	}
}

type clientRow struct {
	ID            string     `gorm:"column:id;primaryKey;size:64"`
	OwnerID       string     `gorm:"column:owner_id;size:64;not null;index"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email"`
	Phone         string     `gorm:"column:phone"`
	Category      string     `gorm:"column:category"`
	Address       string     `gorm:"column:address"`
	ContactPerson string     `gorm:"column:contact_person"`
	CNPJ          string     `gorm:"column:cnpj"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	DeletedAt     *time.Time `gorm:"column:deleted_at"`
}

func (clientRow) TableName() string { return "clients" }

func newClientRow(c *models.Client) clientRow {
	return clientRow{
		ID:            c.ID,
		OwnerID:       c.OwnerID,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Category:      c.Category,
		Address:       c.Address,
		ContactPerson: c.ContactPerson,
		CNPJ:          c.CNPJ,
		CreatedAt:     c.CreatedAt,
		DeletedAt:     c.DeletedAt,
	}
}

func (r clientRow) toModel() models.Client {
	return models.Client{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		Name:          r.Name,
		Email:         r.Email,
		Phone:         r.Phone,
		Category:      r.Category,
		Address:       r.Address,
		ContactPerson: r.ContactPerson,
		CNPJ:          r.CNPJ,
		CreatedAt:     r.CreatedAt,
		DeletedAt:     r.DeletedAt,
	}
}

type serviceRow struct {
	ID                string         `gorm:"column:id;primaryKey;size:64"`
	OwnerID           string         `gorm:"column:owner_id;size:64;not null;index"`
	ClientID          string         `gorm:"column:client_id;size:64;index"`
	PickupAddresses   datatypes.JSON `gorm:"column:pickup_addresses"`
	DeliveryAddresses datatypes.JSON `gorm:"column:delivery_addresses"`
	Cost              float64        `gorm:"column:cost;not null"`
	DriverFee         float64        `gorm:"column:driver_fee;not null"`
	RequesterName     string         `gorm:"column:requester_name"`
	Date              string         `gorm:"column:date;size:40;not null;index"`
	Paid              bool           `gorm:"column:paid;not null"`
	PaymentMethod     string         `gorm:"column:payment_method;size:16"`
	Status            string         `gorm:"column:status;size:16"`
	WaitingTime       *float64       `gorm:"column:waiting_time"`
	ExtraFee          *float64       `gorm:"column:extra_fee"`
	ManualOrderID     string         `gorm:"column:manual_order_id"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
	DeletedAt         *time.Time     `gorm:"column:deleted_at"`
}

func (serviceRow) TableName() string { return "services" }

func newServiceRow(s *models.ServiceRecord) (serviceRow, error) {
	pickup, err := json.Marshal(nonNil(s.PickupAddresses))
	if err != nil {
		return serviceRow{}, err
	}
	dropoff, err := json.Marshal(nonNil(s.DeliveryAddresses))
	if err != nil {
		return serviceRow{}, err
	}
	return serviceRow{
		ID:                s.ID,
		OwnerID:           s.OwnerID,
		ClientID:          s.ClientID,
		PickupAddresses:   datatypes.JSON(pickup),
		DeliveryAddresses: datatypes.JSON(dropoff),
		Cost:              s.Cost,
		DriverFee:         s.DriverFee,
		RequesterName:     s.RequesterName,
		Date:              s.Date,
		Paid:              s.Paid,
		PaymentMethod:     string(s.PaymentMethod),
		Status:            string(s.Status),
		WaitingTime:       s.WaitingTime,
		ExtraFee:          s.ExtraFee,
		ManualOrderID:     s.ManualOrderID,
		CreatedAt:         s.CreatedAt,
		DeletedAt:         s.DeletedAt,
	}, nil
}

func (r serviceRow) toModel() (models.ServiceRecord, error) {
	s := models.ServiceRecord{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		ClientID:      r.ClientID,
		Cost:          r.Cost,
		DriverFee:     r.DriverFee,
		RequesterName: r.RequesterName,
		Date:          r.Date,
		Paid:          r.Paid,
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		Status:        models.ServiceStatus(r.Status),
		WaitingTime:   r.WaitingTime,
		ExtraFee:      r.ExtraFee,
		ManualOrderID: r.ManualOrderID,
		CreatedAt:     r.CreatedAt,
		DeletedAt:     r.DeletedAt,
	}
	if err := decodeList(r.PickupAddresses, &s.PickupAddresses); err != nil {
		return s, err
	}
	if err := decodeList(r.DeliveryAddresses, &s.DeliveryAddresses); err != nil {
		return s, err
	}
	return s, nil
}

type expenseRow struct {
	ID          string    `gorm:"column:id;primaryKey;size:64"`
	OwnerID     string    `gorm:"column:owner_id;size:64;not null;index"`
	Category    string    `gorm:"column:category;size:16;not null"`
	Amount      float64   `gorm:"column:amount;not null"`
	Date        string    `gorm:"column:date;size:40;not null;index"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (expenseRow) TableName() string { return "expenses" }

func newExpenseRow(e *models.ExpenseRecord) expenseRow {
	return expenseRow{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Category:    string(e.Category),
		Amount:      e.Amount,
		Date:        e.Date,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func (r expenseRow) toModel() models.ExpenseRecord {
	return models.ExpenseRecord{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Category:    models.ExpenseCategory(r.Category),
		Amount:      r.Amount,
		Date:        r.Date,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

type serviceLogRow struct {
	ID        string         `gorm:"column:id;primaryKey;size:64"`
	ServiceID string         `gorm:"column:service_id;size:64;not null;index"`
	UserName  string         `gorm:"column:user_name;not null"`
	Action    string         `gorm:"column:action;size:16;not null"`
	Changes   datatypes.JSON `gorm:"column:changes"`
	CreatedAt time.Time      `gorm:"column:created_at;index"`
}

func (serviceLogRow) TableName() string { return "service_logs" }

func newServiceLogRow(l *models.ServiceLog) (serviceLogRow, error) {
	row := serviceLogRow{
		ID:        l.ID,
		ServiceID: l.ServiceID,
		UserName:  l.UserName,
		Action:    string(l.Action),
		CreatedAt: l.CreatedAt,
	}
	if len(l.Changes) > 0 {
		raw, err := json.Marshal(l.Changes)
		if err != nil {
			return row, err
		}
		row.Changes = datatypes.JSON(raw)
	}
	return row, nil
}

func (r serviceLogRow) toModel() (models.ServiceLog, error) {
	l := models.ServiceLog{
		ID:        r.ID,
		ServiceID: r.ServiceID,
		UserName:  r.UserName,
		Action:    models.LogAction(r.Action),
		CreatedAt: r.CreatedAt,
	}
	if len(r.Changes) > 0 && string(r.Changes) != "null" {
		if err := json.Unmarshal(r.Changes, &l.Changes); err != nil {
			return l, err
		}
	}
	return l, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func decodeList(raw datatypes.JSON, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
