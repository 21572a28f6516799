package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/courier-manager/internal/httpresp"
	"github.com/BruksfildServices01/courier-manager/internal/report"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type ReportHandler struct {
	store storage.Adapter
}

func NewReportHandler(store storage.Adapter) *ReportHandler {
	return &ReportHandler{store: store}
}

// period reads ?from= and ?to=; with neither present it defaults to the
// current month.
func period(c *gin.Context) report.Period {
	from, to := c.Query("from"), c.Query("to")
	if from == "" && to == "" {
		from, to = timezone.MonthRange(timezone.Now())
	}
	return report.Period{Start: from, End: to}
}

func (h *ReportHandler) build(ctx context.Context, ownerID string, p report.Period) (report.Summary, error) {
	services, err := h.store.GetServices(ctx, storage.ServiceFilter{
		OwnerID:   ownerID,
		StartDate: p.Start,
		EndDate:   p.End,
	})
	if err != nil {
		return report.Summary{}, err
	}

	expenses, err := h.store.GetExpenses(ctx, storage.ExpenseFilter{
		OwnerID:   ownerID,
		StartDate: p.Start,
		EndDate:   p.End,
	})
	if err != nil {
		return report.Summary{}, err
	}

	clients, err := h.store.GetClients(ctx, ownerID)
	if err != nil {
		return report.Summary{}, err
	}

	return report.Build(services, expenses, clients, p), nil
}

func (h *ReportHandler) Summary(c *gin.Context) {
	sum, err := h.build(c.Request.Context(), currentUserID(c), period(c))
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, sum)
}

func (h *ReportHandler) PDF(c *gin.Context) {
	ctx := c.Request.Context()
	p := period(c)

	sum, err := h.build(ctx, currentUserID(c), p)
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.store.GetUser(ctx, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	issuer := report.Issuer{
		Name:     user.CompanyName,
		Document: user.CompanyDocument,
		Address:  user.CompanyAddress,
	}
	if issuer.Name == "" {
		issuer.Name = user.Name
	}

	var buf bytes.Buffer
	if err := report.WritePDF(&buf, issuer, sum); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, fileName(p, "pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// CSV is prefixed with a BOM so spreadsheet tools detect UTF-8.
func (h *ReportHandler) CSV(c *gin.Context) {
	p := period(c)

	sum, err := h.build(c.Request.Context(), currentUserID(c), p)
	if err != nil {
		writeError(c, err)
		return
	}

	buf := bytes.NewBuffer(append([]byte(nil), utf8BOM...))
	if err := report.WriteCSV(buf, sum); err != nil {
		writeError(c, err)
		return
	}
	attachment(c, fileName(p, "csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
}

func fileName(p report.Period, ext string) string {
	start, end := p.Start, p.End
	if start == "" {
		start = "inicio"
	}
	if end == "" {
		end = "hoje"
	}
	return fmt.Sprintf("relatorio_%s_%s.%s", start, end, ext)
}
