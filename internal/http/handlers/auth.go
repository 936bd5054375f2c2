package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sweetshop/api/internal/auth"
	"github.com/sweetshop/api/internal/config"
	"github.com/sweetshop/api/internal/domain/user"
)

type Identity interface {
	Register(ctx context.Context, username, email, password string) (user.User, error)
	Authenticate(ctx context.Context, username, password string) (user.User, error)
}

type AuthHandler struct {
	identity Identity
	jwt      *auth.Manager
}

func NewAuthHandler(identity Identity, jwtManager *auth.Manager) *AuthHandler {
	return &AuthHandler{
		identity: identity,
		jwt:      jwtManager,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	ExpiresIn int64     `json:"expiresIn"` // seconds
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.identity.Register(cctx, req.Username, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			RespondConflict(ctx, "username_taken", "Username is already in use.")
		case errors.Is(err, user.ErrDuplicateEmail):
			RespondConflict(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.identity.Authenticate(cctx, req.Username, req.Password)

	if err != nil {
		// same code for unknown username and wrong password
		RespondUnAuthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
		return
	}

	h.respondWithToken(ctx, http.StatusOK, u)
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, u user.User) {
	token, err := h.jwt.GenerateAccessToken(u.Username, u.Email, u.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(status, authResponse{
		Token:     token,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresIn: int64(h.jwt.AccessTTL().Seconds()),
	})
}
