package handlers

import (
	"net/http"

	"petitionhub-backend/locale"

	"github.com/gin-gonic/gin"
)

// ListCategories handles GET /api/categories
func ListCategories(c *gin.Context) {
	lang := requestLanguage(c)
	respondOK(c, http.StatusOK, gin.H{
		"lang":       lang.String(),
		"categories": locale.Categories(lang),
	})
}
