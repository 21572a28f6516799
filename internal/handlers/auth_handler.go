package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/courier-manager/internal/config"
	"github.com/BruksfildServices01/courier-manager/internal/dto"
	"github.com/BruksfildServices01/courier-manager/internal/httperr"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
	"github.com/BruksfildServices01/courier-manager/internal/timezone"
	"github.com/BruksfildServices01/courier-manager/internal/validators"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	store  storage.Adapter
	config *config.Config
	now    func() time.Time
}

func NewAuthHandler(store storage.Adapter, cfg *config.Config) *AuthHandler {
	return &AuthHandler{store: store, config: cfg, now: timezone.Now}
}

// --------- Requests ---------

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`

	CompanyName     string `json:"companyName"`
	CompanyDocument string `json:"companyDocument"`
	CompanyAddress  string `json:"companyAddress"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User  dto.UserDTO `json:"user"`
	Token string      `json:"token"`
}

// --------- Handlers ---------

// Register creates an account. The first account of an empty installation
// becomes ADMIN.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	email := models.NormalizeEmail(req.Email)
	if !validators.IsEmailFormatValid(email) {
		httperr.BadRequest(c, "invalid_email", "E-mail inválido.")
		return
	}
	if h.config.CheckEmailDomain && !validators.IsEmailDomainValid(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	ctx := c.Request.Context()

	users, err := h.store.GetUsers(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	role := models.RoleUser
	if len(users) == 0 {
		role = models.RoleAdmin
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", err.Error())
		return
	}

	user := models.User{
		Name:            req.Name,
		Email:           email,
		Password:        string(hashed),
		Phone:           req.Phone,
		Role:            role,
		Status:          models.UserActive,
		CompanyName:     req.CompanyName,
		CompanyDocument: req.CompanyDocument,
		CompanyAddress:  req.CompanyAddress,
	}
	if err := h.store.SaveUser(ctx, &user); err != nil {
		writeError(c, err)
		return
	}

	token, err := h.generateToken(&user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", err.Error())
		return
	}

	c.JSON(http.StatusCreated, authResponse{User: dto.NewUserDTO(&user), Token: token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		writeError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}
	if user.IsBlocked() {
		httperr.Forbidden(c, "user_blocked", "Usuário bloqueado. Procure o administrador.")
		return
	}

	token, err := h.generateToken(user)
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", err.Error())
		return
	}

	c.JSON(http.StatusOK, authResponse{User: dto.NewUserDTO(user), Token: token})
}

// --------- JWT ---------

func (h *AuthHandler) generateToken(user *models.User) (string, error) {
	now := h.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"role": string(user.Role),
		"exp":  now.Add(tokenTTL).Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.config.JWTSecret))
}
