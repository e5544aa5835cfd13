package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"petitionhub-backend/middleware"
	"petitionhub-backend/service"

	"github.com/gin-gonic/gin"
)

// FileHandler handles HTTP requests for petition attachments
type FileHandler struct {
	petitionService *service.PetitionService
	maxFileSize     int64
	log             *slog.Logger
}

// NewFileHandler creates a new file handler. maxUploadMB caps the size of a
// single attachment.
func NewFileHandler(petitionService *service.PetitionService, maxUploadMB int64, log *slog.Logger) *FileHandler {
	return &FileHandler{
		petitionService: petitionService,
		maxFileSize:     maxUploadMB * 1024 * 1024,
		log:             log,
	}
}

// UploadAttachment handles POST /api/petitions/:id/attachments
func (h *FileHandler) UploadAttachment(c *gin.Context) {
	petitionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+1024*1024)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
				fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
			return
		}
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	result, err := h.petitionService.UploadAttachment(c.Request.Context(), service.UploadAttachmentRequest{
		PetitionID: petitionID,
		UserID:     middleware.UserID(c),
		Filename:   fileHeader.Filename,
		Size:       fileHeader.Size,
		Data:       file,
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	respondOK(c, http.StatusCreated, result.Attachment)
}

// GetFile handles GET /api/files/:id
func (h *FileHandler) GetFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.petitionService.DownloadAttachment(c.Request.Context(), service.DownloadAttachmentRequest{
		ID:       id,
		ViewerID: middleware.UserID(c),
	})
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	defer result.Body.Close()

	file := result.Attachment
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.DataFromReader(http.StatusOK, file.Size, file.MimeType, result.Body, nil)
}
