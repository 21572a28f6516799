package report

import (
	"encoding/csv"
	"io"
	"strings"
)

var csvHeader = []string{
	"Data",
	"Cliente",
	"Solicitante",
	"OS",
	"Coleta",
	"Entrega",
	"Valor",
	"Valor Motoboy",
	"Forma de Pagamento",
	"Status Pagamento",
	"Status",
}

// WriteCSV writes one row per service using ";" as separator and a decimal
// comma, the layout spreadsheet tools expect under a pt-BR locale.
func WriteCSV(w io.Writer, sum Summary) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sum.Services {
		if err := cw.Write([]string{
			formatDate(s.Date),
			s.ClientName,
			s.RequesterName,
			s.ManualOrderID,
			s.Pickup,
			s.Delivery,
			decimalComma(s.Charge.StringFixed(2)),
			decimalComma(s.DriverFee.StringFixed(2)),
			label(paymentLabels, string(s.PaymentMethod)),
			paidLabel(s.Paid),
			label(statusLabels, string(s.Status)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func decimalComma(v string) string {
	return strings.Replace(v, ".", ",", 1)
}
