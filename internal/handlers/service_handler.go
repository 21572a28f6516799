package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/httpresp"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	ucDelivery "github.com/BruksfildServices01/courier-manager/internal/usecase/delivery"
)

type ServiceHandler struct {
	list    *ucDelivery.ListServices
	get     *ucDelivery.GetService
	create  *ucDelivery.CreateService
	update  *ucDelivery.UpdateService
	remove  *ucDelivery.DeleteService
	restore *ucDelivery.RestoreService
	history *ucDelivery.ServiceHistory
}

func NewServiceHandler(
	list *ucDelivery.ListServices,
	get *ucDelivery.GetService,
	create *ucDelivery.CreateService,
	update *ucDelivery.UpdateService,
	remove *ucDelivery.DeleteService,
	restore *ucDelivery.RestoreService,
	history *ucDelivery.ServiceHistory,
) *ServiceHandler {
	return &ServiceHandler{
		list:    list,
		get:     get,
		create:  create,
		update:  update,
		remove:  remove,
		restore: restore,
		history: history,
	}
}

// ======================================================
// LIST (?from=YYYY-MM-DD&to=YYYY-MM-DD&client_id=)
// ======================================================

func (h *ServiceHandler) List(c *gin.Context) {
	h.listWith(c, false)
}

func (h *ServiceHandler) Trash(c *gin.Context) {
	h.listWith(c, true)
}

func (h *ServiceHandler) listWith(c *gin.Context, trash bool) {
	items, err := h.list.Execute(c.Request.Context(), currentUserID(c), ucDelivery.ListFilter{
		From:     c.Query("from"),
		To:       c.Query("to"),
		ClientID: c.Query("client_id"),
		Trash:    trash,
	})
	if err != nil {
		logListFailure(c, err)
		httpresp.List(c, []dto.ServiceListDTO{})
		return
	}
	httpresp.List(c, items)
}

// ======================================================
// CRUD
// ======================================================

func (h *ServiceHandler) Get(c *gin.Context) {
	item, err := h.get.Execute(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, item)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req ucDelivery.ServiceInput
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.create.Execute(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	var req ucDelivery.ServiceInput
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.update.Execute(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, s)
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	if err := h.remove.Execute(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ServiceHandler) Restore(c *gin.Context) {
	s, err := h.restore.Execute(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, s)
}

// Logs returns the audit trail of one service, newest first.
func (h *ServiceHandler) Logs(c *gin.Context) {
	logs, err := h.history.Execute(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if logs == nil {
		logs = []models.ServiceLog{}
	}
	httpresp.List(c, logs)
}
