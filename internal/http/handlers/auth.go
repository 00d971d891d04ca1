package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/domain/user"
	"github.com/geocoder89/photohub/internal/repo/postgres"
	"github.com/geocoder89/photohub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID string, isAdmin bool) (string, error)
}

type AuthHandler struct {
	users         UserStore
	jwt           TokenIssuer
	log           *slog.Logger
	checkPassword func(hash, plain string) error
}

func NewAuthHandler(users UserStore, jwt TokenIssuer, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{users: users, jwt: jwt, log: log, checkPassword: security.CheckPassword}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		IsAdmin:      false,
		CreatedAt:    time.Now().UTC(),
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	err = h.users.Create(cctx, u)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "register_failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.respondToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if !errors.Is(err, postgres.ErrUserNotFound) {
			h.log.ErrorContext(ctx.Request.Context(), "login_lookup_failed", "err", err)
		}
		// unknown emails pay the same bcrypt cost as wrong passwords
		_ = h.checkPassword(security.DummyHash(), req.Password)
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = h.checkPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	h.respondToken(ctx, http.StatusOK, foundUser)
}

func (h *AuthHandler) respondToken(ctx *gin.Context, status int, u user.User) {
	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.IsAdmin)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(status, TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	})
}
