package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/internal/service"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
	"github.com/techmatch/techmatch-api/pkg/response"
)

// VerificationHandler exposes the verification workflow: self-service
// submission and status on one side, the admin review queue on the other.
type VerificationHandler struct {
	service *service.VerificationService
}

// NewVerificationHandler creates a new handler.
func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: svc}
}

// Submit godoc
// @Summary Submit verification request
// @Description Multipart submission of identity details plus documents
// @Tags Verification
// @Accept multipart/form-data
// @Produce json
// @Param display_name formData string true "Full name or company name"
// @Param skills formData []string false "Technician skills"
// @Param documents formData file true "Supporting documents"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /verification [post]
func (h *VerificationHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}

	req := dto.SubmitVerificationRequest{
		DisplayName: c.PostForm("display_name"),
		Skills:      form.Value["skills"],
	}

	uploads, err := readUploads(form.File["documents"], form.Value["document_types"])
	if err != nil {
		response.Error(c, err)
		return
	}

	request, err := h.service.Submit(c.Request.Context(), claims.UserID, req, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Status godoc
// @Summary Own verification status
// @Description Latest request plus whether it blocks resubmission
// @Tags Verification
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /verification/status [get]
func (h *VerificationHandler) Status(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	view, err := h.service.StatusFor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Queue godoc
// @Summary Verification review queue
// @Description Requests in a status, oldest first (admin)
// @Tags Verification
// @Produce json
// @Param status query string false "Status filter, defaults to PENDING"
// @Success 200 {object} response.Envelope
// @Router /admin/verification [get]
func (h *VerificationHandler) Queue(c *gin.Context) {
	status := models.VerificationStatus(c.DefaultQuery("status", string(models.VerificationStatusPending)))

	entries, err := h.service.Queue(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}

	count, err := h.service.CountByStatus(c.Request.Context(), models.VerificationStatusPending)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, map[string]interface{}{"pending_count": count})
}

// Detail godoc
// @Summary Verification request detail
// @Description Request with its flags and documents (admin)
// @Tags Verification
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/verification/{id} [get]
func (h *VerificationHandler) Detail(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve verification request
// @Tags Verification
// @Produce json
// @Param id path string true "Request ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/verification/{id}/approve [post]
func (h *VerificationHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Approve(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reject godoc
// @Summary Reject verification request
// @Description Rejection with mandatory reason; opens a cooldown window
// @Tags Verification
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ReviewVerificationRequest true "Decision payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/verification/{id}/reject [post]
func (h *VerificationHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ReviewVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	if err := h.service.Reject(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// readUploads buffers every multipart file so the whole batch can be
// validated before anything is written.
func readUploads(files []*multipart.FileHeader, types []string) ([]dto.DocumentUpload, error) {
	uploads := make([]dto.DocumentUpload, 0, len(files))
	for i, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
		}
		content, err := io.ReadAll(file)
		file.Close() //nolint:errcheck
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload")
		}

		docType := ""
		if i < len(types) {
			docType = types[i]
		}
		uploads = append(uploads, dto.DocumentUpload{
			Filename:     header.Filename,
			SizeBytes:    header.Size,
			DocumentType: docType,
			Content:      content,
		})
	}
	return uploads, nil
}
