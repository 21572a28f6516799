package models

import "time"

type LogAction string

const (
	ActionCreated  LogAction = "CRIACAO"
	ActionEdited   LogAction = "EDICAO"
	ActionDeleted  LogAction = "EXCLUSAO"
	ActionRestored LogAction = "RESTAURACAO"
)

// FieldChange guarda o valor anterior e o novo de um campo rastreado.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes é indexado pelo rótulo legível do campo (ex.: "Valor").
type Changes map[string]FieldChange

// ServiceLog is append-only.
type ServiceLog struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"serviceId"`
	UserName  string    `json:"userName"`
	Action    LogAction `json:"action"`
	Changes   Changes   `json:"changes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
