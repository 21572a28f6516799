// Package report derives the financial summary of a period and renders it as
// JSON, PDF or CSV.
package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/query"
)

// Period bounds are inclusive YYYY-MM-DD dates; empty means open.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ClientTotal struct {
	ClientID string          `json:"clientId"`
	Name     string          `json:"name"`
	Count    int             `json:"count"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ServiceLine is one row of the detailed listing.
type ServiceLine struct {
	ID            string               `json:"id"`
	Date          string               `json:"date"`
	ClientName    string               `json:"clientName"`
	RequesterName string               `json:"requesterName"`
	ManualOrderID string               `json:"manualOrderId,omitempty"`
	Pickup        string               `json:"pickup"`
	Delivery      string               `json:"delivery"`
	Charge        decimal.Decimal      `json:"charge"`
	DriverFee     decimal.Decimal      `json:"driverFee"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Status        models.ServiceStatus `json:"status"`
	Paid          bool                 `json:"paid"`
}

type Summary struct {
	Period       Period `json:"period"`
	ServiceCount int    `json:"serviceCount"`

	Revenue       decimal.Decimal `json:"revenue"`
	DriverPayouts decimal.Decimal `json:"driverPayouts"`
	ExpensesTotal decimal.Decimal `json:"expensesTotal"`
	NetProfit     decimal.Decimal `json:"netProfit"`

	Paid    query.Bucket `json:"paid"`
	Pending query.Bucket `json:"pending"`

	ByPaymentMethod    map[models.PaymentMethod]query.Bucket   `json:"byPaymentMethod"`
	ByStatus           map[models.ServiceStatus]int            `json:"byStatus"`
	ExpensesByCategory map[models.ExpenseCategory]query.Bucket `json:"expensesByCategory"`
	ByClient           []ClientTotal                           `json:"byClient"`

	Services []ServiceLine `json:"services"`
}

// Build computes the summary of one owner's records. Deleted services are
// ignored; inputs outside the period are filtered here too, so callers may
// pass unfiltered collections.
func Build(
	services []models.ServiceRecord,
	expenses []models.ExpenseRecord,
	clients []models.Client,
	period Period,
) Summary {
	services = query.FilterByDate(query.ExcludeDeleted(services), period.Start, period.End)
	expenses = query.FilterByDate(expenses, period.Start, period.End)
	query.SortByDateDesc(services)

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	sum := Summary{
		Period:             period,
		ServiceCount:       len(services),
		ByPaymentMethod:    query.TotalsByPaymentMethod(services),
		ByStatus:           query.CountByStatus(services),
		ExpensesByCategory: query.SumExpensesByCategory(expenses),
		Services:           make([]ServiceLine, 0, len(services)),
	}
	sum.Paid, sum.Pending = query.PaidVsPending(services)

	perClient := map[string]*ClientTotal{}
	for _, s := range services {
		charge := decimal.NewFromFloat(delivery.Charge(s))
		driverFee := decimal.NewFromFloat(s.DriverFee)

		sum.Revenue = sum.Revenue.Add(charge)
		sum.DriverPayouts = sum.DriverPayouts.Add(driverFee)

		ct, ok := perClient[s.ClientID]
		if !ok {
			ct = &ClientTotal{ClientID: s.ClientID, Name: clientName(names, s.ClientID)}
			perClient[s.ClientID] = ct
		}
		ct.Count++
		ct.Revenue = ct.Revenue.Add(charge)

		sum.Services = append(sum.Services, ServiceLine{
			ID:            s.ID,
			Date:          query.NormalizeDate(s.Date),
			ClientName:    ct.Name,
			RequesterName: s.RequesterName,
			ManualOrderID: s.ManualOrderID,
			Pickup:        strings.Join(s.PickupAddresses, " | "),
			Delivery:      strings.Join(s.DeliveryAddresses, " | "),
			Charge:        charge,
			DriverFee:     driverFee,
			PaymentMethod: s.EffectivePaymentMethod(),
			Status:        s.EffectiveStatus(),
			Paid:          s.Paid,
		})
	}

	for _, b := range sum.ExpensesByCategory {
		sum.ExpensesTotal = sum.ExpensesTotal.Add(b.Total)
	}
	sum.NetProfit = sum.Revenue.Sub(sum.DriverPayouts).Sub(sum.ExpensesTotal)

	sum.ByClient = make([]ClientTotal, 0, len(perClient))
	for _, ct := range perClient {
		sum.ByClient = append(sum.ByClient, *ct)
	}
	sort.Slice(sum.ByClient, func(i, j int) bool {
		a, b := sum.ByClient[i], sum.ByClient[j]
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.Name < b.Name
	})

	return sum
}

// UnknownClient names services whose clientId matches no known client.
const UnknownClient = "Cliente removido"

func clientName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return UnknownClient
}
