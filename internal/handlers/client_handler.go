package handlers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/courier-manager/internal/domain/delivery"
	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/httpresp"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/query"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type ClientHandler struct {
	store storage.Adapter
}

func NewClientHandler(store storage.Adapter) *ClientHandler {
	return &ClientHandler{store: store}
}

type ClientRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Category      string `json:"category"`
	Address       string `json:"address"`
	ContactPerson string `json:"contactPerson"`
	CNPJ          string `json:"cnpj"`
}

func (r ClientRequest) applyTo(c *models.Client) {
	c.Name = strings.TrimSpace(r.Name)
	c.Email = strings.TrimSpace(r.Email)
	c.Phone = r.Phone
	c.Category = r.Category
	c.Address = r.Address
	c.ContactPerson = r.ContactPerson
	c.CNPJ = r.CNPJ
}

// ======================================================
// LIST / TRASH
// ======================================================

// List accepts ?query= matching name, phone or e-mail.
func (h *ClientHandler) List(c *gin.Context) {
	h.list(c, h.store.GetClients)
}

func (h *ClientHandler) Trash(c *gin.Context) {
	h.list(c, h.store.GetDeletedClients)
}

func (h *ClientHandler) list(
	c *gin.Context,
	load func(ctx context.Context, ownerID string) ([]models.Client, error),
) {
	ctx := c.Request.Context()
	ownerID := currentUserID(c)

	clients, err := load(ctx, ownerID)
	if err != nil {
		logListFailure(c, err)
		httpresp.List(c, []dto.ClientListDTO{})
		return
	}

	if term := strings.ToLower(strings.TrimSpace(c.Query("query"))); term != "" {
		clients = filterClients(clients, term)
	}
	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].Name) < strings.ToLower(clients[j].Name)
	})

	// counts are optional in the listing
	services, err := h.store.GetServices(ctx, storage.ServiceFilter{OwnerID: ownerID})
	if err != nil {
		logListFailure(c, err)
	}
	services = query.ExcludeDeleted(services)

	out := make([]dto.ClientListDTO, 0, len(clients))
	for _, cl := range clients {
		out = append(out, dto.ClientListDTO{
			Client:       cl,
			ServiceCount: query.CountByClient(services, cl.ID),
		})
	}
	httpresp.List(c, out)
}

func filterClients(clients []models.Client, term string) []models.Client {
	out := make([]models.Client, 0, len(clients))
	for _, cl := range clients {
		if strings.Contains(strings.ToLower(cl.Name), term) ||
			strings.Contains(cl.Phone, term) ||
			strings.Contains(strings.ToLower(cl.Email), term) {
			out = append(out, cl)
		}
	}
	return out
}

func (h *ClientHandler) Categories(c *gin.Context) {
	httpresp.List(c, models.SuggestedClientCategories)
}

// ======================================================
// CRUD
// ======================================================

func (h *ClientHandler) Create(c *gin.Context) {
	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client := models.Client{OwnerID: currentUserID(c)}
	req.applyTo(&client)

	if err := h.store.SaveClient(c.Request.Context(), &client); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.owned(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, client)
}

func (h *ClientHandler) Update(c *gin.Context) {
	var req ClientRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	client, err := h.owned(ctx, currentUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := domain.CanEditClient(client); err != nil {
		writeError(c, err)
		return
	}
	req.applyTo(client)

	if err := h.store.SaveClient(ctx, client); err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, client)
}

func (h *ClientHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.owned(ctx, currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.DeleteClient(ctx, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ClientHandler) Restore(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.owned(ctx, currentUserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	if err := h.store.RestoreClient(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	client, err := h.store.GetClient(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, client)
}

func (h *ClientHandler) owned(ctx context.Context, ownerID, id string) (*models.Client, error) {
	client, err := h.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if client.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	return client, nil
}
