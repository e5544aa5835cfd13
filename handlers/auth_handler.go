package handlers

import (
	"log/slog"
	"net/http"

	"petitionhub-backend/identity"
	"petitionhub-backend/middleware"
	"petitionhub-backend/models"
	"petitionhub-backend/service"
	"petitionhub-backend/validation"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles sign-up, sign-in and profile requests
type AuthHandler struct {
	authService *service.AuthService
	log         *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type authResponse struct {
	User    *models.User      `json:"user"`
	Session *identity.Session `json:"session"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input validation.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), service.SignUpRequest{Input: input})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, http.StatusCreated, authResponse{User: result.User, Session: result.Session})
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var input validation.SignInInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), service.SignInRequest{Input: input})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, http.StatusOK, authResponse{User: result.User, Session: result.Session})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.CurrentUser(c.Request.Context(), service.CurrentUserRequest{
		UserID: middleware.UserID(c),
		Email:  middleware.Email(c),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, http.StatusOK, user)
}
