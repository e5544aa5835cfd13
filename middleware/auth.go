// Package middleware holds the gin middleware shared by all routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"petitionhub-backend/identity"
	"petitionhub-backend/logger"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
)

// Auth requires a valid Bearer token and stores the caller's UID and email
func Auth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortUnauthorized(c, "missing authorization token")
			return
		}

		id, err := provider.Verify(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuth(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if id, err := provider.Verify(c.Request.Context(), token); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}

// ProfileSyncer makes sure a stored profile exists for an authenticated caller
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, uid, email string) error
}

// SyncProfile runs after Auth. Externally verified accounts (Firebase) have
// no profile row until one is created here, and petitions reference it.
func SyncProfile(syncer ProfileSyncer, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			c.Next()
			return
		}
		if err := syncer.SyncProfile(c.Request.Context(), uid, Email(c)); err != nil {
			log.ErrorContext(c.Request.Context(), "failed to sync user profile",
				slog.String("user_id", uid),
				logger.Err(err),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "failed to load user profile",
				},
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's UID, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserID))
}

// Email returns the authenticated caller's email, if the token carried one
func Email(c *gin.Context) string {
	return c.GetString(CtxEmail)
}

func setIdentity(c *gin.Context, id *identity.Identity) {
	c.Set(CtxUserID, id.UID)
	if id.Email != "" {
		c.Set(CtxEmail, id.Email)
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
