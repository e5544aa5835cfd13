package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"petitionhub-backend/analytics"
	"petitionhub-backend/middleware"
	"petitionhub-backend/service"
	"petitionhub-backend/validation"

	"github.com/gin-gonic/gin"
)

// PetitionHandler handles HTTP requests for petitions and signatures
type PetitionHandler struct {
	petitionService *service.PetitionService
	log             *slog.Logger
}

// NewPetitionHandler creates a new petition handler
func NewPetitionHandler(petitionService *service.PetitionService, log *slog.Logger) *PetitionHandler {
	return &PetitionHandler{
		petitionService: petitionService,
		log:             log,
	}
}

// CreatePetition handles POST /api/petitions
func (h *PetitionHandler) CreatePetition(c *gin.Context) {
	var input validation.PetitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.petitionService.CreatePetition(c.Request.Context(), service.CreatePetitionRequest{
		CreatorID: middleware.UserID(c),
		Input:     input,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	views := newViewBuilder(c, result.Petition.CreatedAt, h.log)
	respondOK(c, http.StatusCreated, views.petition(result.Petition))
}

// GetPetition handles GET /api/petitions/:id
func (h *PetitionHandler) GetPetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.petitionService.GetPetition(c.Request.Context(), service.GetPetitionRequest{
		ID:       id,
		ViewerID: middleware.UserID(c),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	views := newViewBuilder(c, result.Now, h.log)
	respondOK(c, http.StatusOK, gin.H{
		"petition":    views.petition(result.Petition),
		"attachments": result.Attachments,
	})
}

// ListPetitions handles GET /api/petitions
func (h *PetitionHandler) ListPetitions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	result, err := h.petitionService.ListPetitions(c.Request.Context(), service.ListPetitionsRequest{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	views := newViewBuilder(c, result.Now, h.log)
	respondOK(c, http.StatusOK, views.petitions(result.Petitions))
}

// SignPetition handles POST /api/petitions/:id/signatures
func (h *PetitionHandler) SignPetition(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input validation.SignatureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.petitionService.SignPetition(c.Request.Context(), service.SignPetitionRequest{
		PetitionID: id,
		Input:      input,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	views := newViewBuilder(c, result.Now, h.log)
	respondOK(c, http.StatusCreated, gin.H{
		"signature": result.Signature,
		"petition":  views.petition(result.Petition),
	})
}

// DashboardSummary is the aggregate part of the dashboard response
type DashboardSummary struct {
	TotalSignatures    int64         `json:"total_signatures"`
	TotalPetitionCount int           `json:"total_petition_count"`
	ActiveCount        int           `json:"active_count"`
	EndedCount         int           `json:"ended_count"`
	MostPopular        *PetitionView `json:"most_popular"`
}

// Dashboard handles GET /api/dashboard
func (h *PetitionHandler) Dashboard(c *gin.Context) {
	result, err := h.petitionService.Dashboard(c.Request.Context(), service.DashboardRequest{
		CreatorID: middleware.UserID(c),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	views := newViewBuilder(c, result.Now, h.log)
	respondOK(c, http.StatusOK, gin.H{
		"summary": DashboardSummary{
			TotalSignatures:    result.Summary.TotalSignatures,
			TotalPetitionCount: result.Summary.TotalPetitionCount,
			ActiveCount:        len(result.Summary.Active),
			EndedCount:         len(result.Summary.Ended),
			MostPopular:        views.petition(result.Summary.MostPopular),
		},
		"active": views.petitions(result.Summary.Active),
		"ended":  views.petitions(result.Summary.Ended),
		"daily":  dailySeries(result.Daily),
	})
}

func dailySeries(daily []analytics.DailyCount) []analytics.DailyCount {
	if daily == nil {
		return []analytics.DailyCount{}
	}
	return daily
}
