package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"petitionhub-backend/identity"
	"petitionhub-backend/logger"
	"petitionhub-backend/repository"
	"petitionhub-backend/service"
	"petitionhub-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps service, repository and identity errors onto the
// error envelope. Anything unrecognised is logged and reported as a 500.
func respondServiceError(c *gin.Context, log *slog.Logger, err error) {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_FAILED",
				"message": "Please correct the highlighted fields",
				"fields":  fieldErrs,
			},
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, repository.ErrAlreadySigned):
		respondError(c, http.StatusConflict, "ALREADY_SIGNED", "This email has already signed the petition")
	case errors.Is(err, service.ErrPetitionEnded):
		respondError(c, http.StatusConflict, "PETITION_ENDED", "This petition is no longer accepting signatures")
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", "Only the petition creator can do this")
	case errors.Is(err, identity.ErrEmailTaken), errors.Is(err, repository.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists")
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	default:
		log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			logger.Err(err),
		)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// parseID reads a UUID path parameter, writing a 400 when it is malformed
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
