// Package query holds pure helpers over already-loaded collections: date
// filtering, soft-delete views and grouped counts/sums for reports.
package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/models"
)

type Dated interface {
	RecordDate() string
}

type Deletable interface {
	IsDeleted() bool
}

// NormalizeDate returns the YYYY-MM-DD portion of a date or ISO datetime.
func NormalizeDate(d string) string {
	if len(d) > 10 {
		return d[:10]
	}
	return d
}

// InDateRange compares the zero-padded date portion lexically; empty bounds
// are open.
func InDateRange(date, start, end string) bool {
	d := NormalizeDate(date)
	if start != "" && d < NormalizeDate(start) {
		return false
	}
	if end != "" && d > NormalizeDate(end) {
		return false
	}
	return true
}

func FilterByDate[T Dated](items []T, start, end string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if InDateRange(it.RecordDate(), start, end) {
			out = append(out, it)
		}
	}
	return out
}

// ExcludeDeleted is the default view of every end-user listing.
func ExcludeDeleted[T Deletable](items []T) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !it.IsDeleted() {
			out = append(out, it)
		}
	}
	return out
}

// OnlyDeleted is the trash view.
func OnlyDeleted[T Deletable](items []T) []T {
	out := make([]T, 0)
	for _, it := range items {
		if it.IsDeleted() {
			out = append(out, it)
		}
	}
	return out
}

// SortByDateDesc sorts in place, newest first, keeping the load order of ties.
func SortByDateDesc[T Dated](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return NormalizeDate(items[i].RecordDate()) > NormalizeDate(items[j].RecordDate())
	})
}

// CountByClient does not look at deletedAt; exclude deleted records upstream
// when needed.
func CountByClient(services []models.ServiceRecord, clientID string) int {
	n := 0
	for _, s := range services {
		if s.ClientID == clientID {
			n++
		}
	}
	return n
}

func CountByStatus(services []models.ServiceRecord) map[models.ServiceStatus]int {
	out := make(map[models.ServiceStatus]int)
	for _, s := range services {
		out[s.EffectiveStatus()]++
	}
	return out
}

type Bucket struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (b Bucket) add(v float64) Bucket {
	return Bucket{Count: b.Count + 1, Total: b.Total.Add(decimal.NewFromFloat(v))}
}

// TotalsByPaymentMethod groups the charged amount; absent method counts as PIX.
func TotalsByPaymentMethod(services []models.ServiceRecord) map[models.PaymentMethod]Bucket {
	out := make(map[models.PaymentMethod]Bucket)
	for _, s := range services {
		m := s.EffectivePaymentMethod()
		out[m] = out[m].add(delivery.Charge(s))
	}
	return out
}

func PaidVsPending(services []models.ServiceRecord) (paid, pending Bucket) {
	for _, s := range services {
		if s.Paid {
			paid = paid.add(delivery.Charge(s))
		} else {
			pending = pending.add(delivery.Charge(s))
		}
	}
	return paid, pending
}

func SumExpensesByCategory(expenses []models.ExpenseRecord) map[models.ExpenseCategory]Bucket {
	out := make(map[models.ExpenseCategory]Bucket)
	for _, e := range expenses {
		out[e.Category] = out[e.Category].add(e.Amount)
	}
	return out
}
