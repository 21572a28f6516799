package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/courier-manager/internal/httpresp"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/query"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type ExpenseHandler struct {
	store storage.Adapter
}

func NewExpenseHandler(store storage.Adapter) *ExpenseHandler {
	return &ExpenseHandler{store: store}
}

type ExpenseRequest struct {
	Category    models.ExpenseCategory `json:"category"`
	Amount      float64                `json:"amount"`
	Date        string                 `json:"date"`
	Description string                 `json:"description"`
}

func (r ExpenseRequest) applyTo(e *models.ExpenseRecord) {
	e.Category = models.ExpenseCategory(strings.ToUpper(string(r.Category)))
	e.Amount = r.Amount
	e.Date = r.Date
	e.Description = strings.TrimSpace(r.Description)
}

// List accepts ?from= and ?to= (YYYY-MM-DD, inclusive).
func (h *ExpenseHandler) List(c *gin.Context) {
	expenses, err := h.store.GetExpenses(c.Request.Context(), storage.ExpenseFilter{
		OwnerID:   currentUserID(c),
		StartDate: c.Query("from"),
		EndDate:   c.Query("to"),
	})
	if err != nil {
		logListFailure(c, err)
		httpresp.List(c, []models.ExpenseRecord{})
		return
	}
	if expenses == nil {
		expenses = []models.ExpenseRecord{}
	}
	query.SortByDateDesc(expenses)
	httpresp.List(c, expenses)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	e := &models.ExpenseRecord{OwnerID: currentUserID(c)}
	req.applyTo(e)
	if err := h.store.SaveExpense(c.Request.Context(), e); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	var req ExpenseRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := h.owned(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	req.applyTo(e)
	if err := h.store.SaveExpense(c.Request.Context(), e); err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, e)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	e, err := h.owned(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.DeleteExpense(ctx, e.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// The adapter has no single-expense read; ownership is resolved through
// the owner's list.
func (h *ExpenseHandler) owned(ctx context.Context, ownerID, id string) (*models.ExpenseRecord, error) {
	expenses, err := h.store.GetExpenses(ctx, storage.ExpenseFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		if expenses[i].ID == id {
			return &expenses[i], nil
		}
	}
	return nil, storage.ErrNotFound
}
