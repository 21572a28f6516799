package report

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Issuer identifies the company printed on the report header.
type Issuer struct {
	Name     string
	Document string
	Address  string
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 8}
	cellText   = props.Text{Size: 8}
	moneyText  = props.Text{Size: 8, Align: align.Right}
	boldMoney  = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

// WritePDF renders the summary followed by the service listing.
func WritePDF(w io.Writer, issuer Issuer, sum Summary) error {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	// --------------------------------------------------
	// Header
	// --------------------------------------------------

	m.AddRow(12,
		text.NewCol(12, "Relatório Financeiro", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(16,
		col.New(8).Add(
			text.New(issuer.Name, props.Text{Style: fontstyle.Bold}),
			text.New(issuer.Document, props.Text{Top: 5, Size: 9}),
			text.New(issuer.Address, props.Text{Top: 9, Size: 9}),
		),
		text.NewCol(4, "Período: "+periodLabel(sum.Period), props.Text{Size: 9, Align: align.Right}),
	)

	// --------------------------------------------------
	// Totals
	// --------------------------------------------------

	totals := []struct {
		label string
		value string
	}{
		{"Corridas", fmt.Sprintf("%d", sum.ServiceCount)},
		{"Faturamento", FormatBRL(sum.Revenue)},
		{"Repasse motoboys", FormatBRL(sum.DriverPayouts)},
		{"Despesas", FormatBRL(sum.ExpensesTotal)},
		{"Lucro líquido", FormatBRL(sum.NetProfit)},
		{"Recebido", FormatBRL(sum.Paid.Total)},
		{"A receber", FormatBRL(sum.Pending.Total)},
	}
	for _, t := range totals {
		m.AddRow(6,
			text.NewCol(8, t.label, props.Text{Size: 9}),
			text.NewCol(4, t.value, boldMoney),
		)
	}

	m.AddRow(8, col.New(12))
	m.AddRow(7, text.NewCol(12, "Por forma de pagamento", props.Text{Style: fontstyle.Bold, Size: 10}))
	for _, k := range slices.Sorted(maps.Keys(sum.ByPaymentMethod)) {
		b := sum.ByPaymentMethod[k]
		m.AddRow(5,
			text.NewCol(6, label(paymentLabels, string(k)), cellText),
			text.NewCol(2, fmt.Sprintf("%d", b.Count), moneyText),
			text.NewCol(4, FormatBRL(b.Total), moneyText),
		)
	}

	if len(sum.ExpensesByCategory) > 0 {
		m.AddRow(7, text.NewCol(12, "Despesas por categoria", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		for _, k := range slices.Sorted(maps.Keys(sum.ExpensesByCategory)) {
			b := sum.ExpensesByCategory[k]
			m.AddRow(5,
				text.NewCol(6, label(expenseLabels, string(k)), cellText),
				text.NewCol(2, fmt.Sprintf("%d", b.Count), moneyText),
				text.NewCol(4, FormatBRL(b.Total), moneyText),
			)
		}
	}

	if len(sum.ByClient) > 0 {
		m.AddRow(7, text.NewCol(12, "Por cliente", props.Text{Style: fontstyle.Bold, Size: 10, Top: 2}))
		for _, ct := range sum.ByClient {
			m.AddRow(5,
				text.NewCol(6, ct.Name, cellText),
				text.NewCol(2, fmt.Sprintf("%d", ct.Count), moneyText),
				text.NewCol(4, FormatBRL(ct.Revenue), moneyText),
			)
		}
	}

	// --------------------------------------------------
	// Services
	// --------------------------------------------------

	m.AddRow(10, text.NewCol(12, "Corridas", props.Text{Style: fontstyle.Bold, Size: 10, Top: 4}))
	m.AddRow(6,
		text.NewCol(2, "Data", headerText),
		text.NewCol(3, "Cliente", headerText),
		text.NewCol(3, "Solicitante", headerText),
		text.NewCol(2, "Pagamento", headerText),
		text.NewCol(2, "Valor", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right}),
	)
	for _, s := range sum.Services {
		m.AddRow(5,
			text.NewCol(2, formatDate(s.Date), cellText),
			text.NewCol(3, s.ClientName, cellText),
			text.NewCol(3, s.RequesterName, cellText),
			text.NewCol(2, label(paymentLabels, string(s.PaymentMethod))+" / "+paidLabel(s.Paid), cellText),
			text.NewCol(2, FormatBRL(s.Charge), moneyText),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return fmt.Errorf("generate pdf: %w", err)
	}
	_, err = w.Write(doc.GetBytes())
	return err
}
