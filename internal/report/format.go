package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount as "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return "R$ " + sign + b.String() + "," + frac
}

// formatDate turns YYYY-MM-DD into DD/MM/YYYY; other input is returned as is.
func formatDate(d string) string {
	if len(d) < 10 || d[4] != '-' || d[7] != '-' {
		return d
	}
	return d[8:10] + "/" + d[5:7] + "/" + d[0:4]
}

func periodLabel(p Period) string {
	switch {
	case p.Start == "" && p.End == "":
		return "Todo o período"
	case p.Start == "":
		return "Até " + formatDate(p.End)
	case p.End == "":
		return "A partir de " + formatDate(p.Start)
	}
	return formatDate(p.Start) + " a " + formatDate(p.End)
}

var paymentLabels = map[string]string{
	"PIX":  "Pix",
	"CASH": "Dinheiro",
	"CARD": "Cartão",
}

var statusLabels = map[string]string{
	"PENDING":     "Pendente",
	"IN_PROGRESS": "Em andamento",
	"DONE":        "Concluído",
	"CANCELLED":   "Cancelado",
}

var expenseLabels = map[string]string{
	"GAS":   "Combustível",
	"LUNCH": "Alimentação",
	"OTHER": "Outros",
}

func label(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

func paidLabel(paid bool) string {
	if paid {
		return "Pago"
	}
	return "Pendente"
}
