package audit

import (
	"slices"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// Labels used as keys of ServiceLog.Changes.
const (
	LabelCost              = "Valor"
	LabelDriverFee         = "Valor Motoboy"
	LabelWaitingTime       = "Tempo de Espera"
	LabelExtraFee          = "Taxa Extra"
	LabelPaid              = "Status Pagamento"
	LabelPickupAddresses   = "Endereços de Coleta"
	LabelDeliveryAddresses = "Endereços de Entrega"

	PaidLabel    = "Pago"
	PendingLabel = "Pendente"
)

type trackedField struct {
	label string
	diff  func(old, new *models.ServiceRecord) (models.FieldChange, bool)
}

// trackedFields is the closed set of fields that produce EDICAO entries.
var trackedFields = []trackedField{
	money(LabelCost, func(s *models.ServiceRecord) float64 { return s.Cost }),
	money(LabelDriverFee, func(s *models.ServiceRecord) float64 { return s.DriverFee }),
	optionalMoney(LabelWaitingTime, func(s *models.ServiceRecord) *float64 { return s.WaitingTime }),
	optionalMoney(LabelExtraFee, func(s *models.ServiceRecord) *float64 { return s.ExtraFee }),
	paidFlag(LabelPaid),
	addresses(LabelPickupAddresses, func(s *models.ServiceRecord) []string { return s.PickupAddresses }),
	addresses(LabelDeliveryAddresses, func(s *models.ServiceRecord) []string { return s.DeliveryAddresses }),
}

func money(label string, get func(*models.ServiceRecord) float64) trackedField {
	return trackedField{label: label, diff: func(old, new *models.ServiceRecord) (models.FieldChange, bool) {
		o, n := get(old), get(new)
		return models.FieldChange{Old: o, New: n}, o != n
	}}
}

// optionalMoney treats an absent surcharge and a zero one as equal. An absent
// side is recorded as nil.
func optionalMoney(label string, get func(*models.ServiceRecord) *float64) trackedField {
	return trackedField{label: label, diff: func(old, new *models.ServiceRecord) (models.FieldChange, bool) {
		o, n := get(old), get(new)
		return models.FieldChange{Old: optional(o), New: optional(n)}, deref(o) != deref(n)
	}}
}

func paidFlag(label string) trackedField {
	return trackedField{label: label, diff: func(old, new *models.ServiceRecord) (models.FieldChange, bool) {
		return models.FieldChange{Old: paidText(old.Paid), New: paidText(new.Paid)}, old.Paid != new.Paid
	}}
}

func addresses(label string, get func(*models.ServiceRecord) []string) trackedField {
	return trackedField{label: label, diff: func(old, new *models.ServiceRecord) (models.FieldChange, bool) {
		o, n := get(old), get(new)
		return models.FieldChange{Old: slices.Clone(o), New: slices.Clone(n)}, !slices.Equal(o, n)
	}}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func paidText(paid bool) string {
	if paid {
		return PaidLabel
	}
	return PendingLabel
}

// Diff decides which log entry, if any, documents the transition from old to
// new. A nil old means the record is being created. The returned bool is false
// when nothing tracked changed and no entry must be written.
func Diff(old, new *models.ServiceRecord) (models.LogAction, models.Changes, bool) {
	if new == nil {
		return "", nil, false
	}
	if old == nil {
		return models.ActionCreated, nil, true
	}

	switch {
	case old.DeletedAt == nil && new.DeletedAt != nil:
		return models.ActionDeleted, nil, true
	case old.DeletedAt != nil && new.DeletedAt == nil:
		return models.ActionRestored, nil, true
	}

	changes := models.Changes{}
	for _, f := range trackedFields {
		if change, changed := f.diff(old, new); changed {
			changes[f.label] = change
		}
	}
	if len(changes) == 0 {
		return "", nil, false
	}
	return models.ActionEdited, changes, true
}
