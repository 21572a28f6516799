package models

import "time"

type ExpenseCategory string

const (
	ExpenseGas   ExpenseCategory = "GAS"
	ExpenseLunch ExpenseCategory = "LUNCH"
	ExpenseOther ExpenseCategory = "OTHER"
)

type ExpenseRecord struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"ownerId"`
	Category    ExpenseCategory `json:"category"`
	Amount      float64         `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (e ExpenseRecord) RecordDate() string {
	return e.Date
}

func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseGas, ExpenseLunch, ExpenseOther:
		return true
	}
	return false
}
