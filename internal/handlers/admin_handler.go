package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/courier-manager/internal/backup"
	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/httpresp"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type AdminHandler struct {
	store       storage.Adapter
	connections *backup.Store
	runner      *backup.Runner
}

func NewAdminHandler(
	store storage.Adapter,
	connections *backup.Store,
	runner *backup.Runner,
) *AdminHandler {
	return &AdminHandler{
		store:       store,
		connections: connections,
		runner:      runner,
	}
}

// ======================================================
// USERS
// ======================================================

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.store.GetUsers(c.Request.Context())
	if err != nil {
		logListFailure(c, err)
		httpresp.List(c, []dto.UserDTO{})
		return
	}

	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserDTO(&users[i]))
	}
	httpresp.List(c, out)
}

type SetRoleRequest struct {
	Role models.Role `json:"role"`
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	var req SetRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role := models.Role(strings.ToUpper(string(req.Role)))
	if role != models.RoleAdmin && role != models.RoleUser {
		httperr.BadRequest(c, "invalid_role", "Perfil inválido.")
		return
	}
	if c.Param("id") == currentUserID(c) {
		httperr.BadRequest(c, "cannot_change_own_role", "Não é possível alterar o próprio perfil.")
		return
	}

	h.updateUser(c, func(u *models.User) { u.Role = role })
}

type SetStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

func (h *AdminHandler) SetStatus(c *gin.Context) {
	var req SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	status := models.UserStatus(strings.ToUpper(string(req.Status)))
	if status != models.UserActive && status != models.UserBlocked {
		httperr.BadRequest(c, "invalid_status", "Status inválido.")
		return
	}
	if c.Param("id") == currentUserID(c) {
		httperr.BadRequest(c, "cannot_change_own_status", "Não é possível alterar o próprio status.")
		return
	}

	h.updateUser(c, func(u *models.User) { u.Status = status })
}

func (h *AdminHandler) updateUser(c *gin.Context, apply func(*models.User)) {
	ctx := c.Request.Context()

	user, err := h.store.GetUser(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	apply(user)
	if err := h.store.UpdateUser(ctx, user); err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, dto.NewUserDTO(user))
}

// ======================================================
// BACKUP CONNECTIONS
// ======================================================

type ConnectionRequest struct {
	Provider    models.ConnectionProvider `json:"provider"`
	Name        string                    `json:"name"`
	IsActive    bool                      `json:"isActive"`
	EndpointURL string                    `json:"endpointUrl"`
	APIKey      string                    `json:"apiKey"`
}

func (r ConnectionRequest) applyTo(conn *models.DatabaseConnection) {
	conn.Provider = models.ConnectionProvider(strings.ToUpper(string(r.Provider)))
	conn.Name = strings.TrimSpace(r.Name)
	conn.IsActive = r.IsActive
	conn.EndpointURL = strings.TrimSpace(r.EndpointURL)
	conn.APIKey = r.APIKey
}

func (h *AdminHandler) ListConnections(c *gin.Context) {
	conns, err := h.connections.List(c.Request.Context())
	if err != nil {
		logListFailure(c, err)
		httpresp.List(c, []dto.ConnectionDTO{})
		return
	}

	out := make([]dto.ConnectionDTO, 0, len(conns))
	for _, conn := range conns {
		out = append(out, dto.NewConnectionDTO(conn))
	}
	httpresp.List(c, out)
}

func (h *AdminHandler) CreateConnection(c *gin.Context) {
	var req ConnectionRequest
	if !bindJSON(c, &req) {
		return
	}

	var conn models.DatabaseConnection
	req.applyTo(&conn)
	if err := h.connections.Save(c.Request.Context(), &conn); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewConnectionDTO(conn))
}

// UpdateConnection keeps the stored API key when the request leaves it blank.
func (h *AdminHandler) UpdateConnection(c *gin.Context) {
	var req ConnectionRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	conn, err := h.connections.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	req.applyTo(conn)
	if err := h.connections.Save(ctx, conn); err != nil {
		writeError(c, err)
		return
	}
	httpresp.OK(c, dto.NewConnectionDTO(*conn))
}

func (h *AdminHandler) DeleteConnection(c *gin.Context) {
	if err := h.connections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunBackups queues one connection (?id=) or every active one.
func (h *AdminHandler) RunBackups(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		if err := h.runner.Dispatch(ctx, id); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"queued": 1})
		return
	}

	queued, err := h.runner.DispatchActive(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": queued})
}
