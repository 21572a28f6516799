package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

type MeHandler struct {
	store storage.Adapter
}

func NewMeHandler(store storage.Adapter) *MeHandler {
	return &MeHandler{store: store}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserDTO(user))
}

// UpdateMeRequest only touches the fields that are present.
type UpdateMeRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Password        *string `json:"password"`
	CompanyName     *string `json:"companyName"`
	CompanyDocument *string `json:"companyDocument"`
	CompanyAddress  *string `json:"companyAddress"`
}

func (h *MeHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.CompanyName != nil {
		user.CompanyName = *req.CompanyName
	}
	if req.CompanyDocument != nil {
		user.CompanyDocument = *req.CompanyDocument
	}
	if req.CompanyAddress != nil {
		user.CompanyAddress = *req.CompanyAddress
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			httperr.BadRequest(c, "password_too_short", "A senha deve ter ao menos 6 caracteres.")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			httperr.Internal(c, "failed_to_hash_password", err.Error())
			return
		}
		user.Password = string(hashed)
	}

	if err := h.store.UpdateUser(ctx, user); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserDTO(user))
}
