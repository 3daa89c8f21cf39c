package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/service"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
	"github.com/techmatch/techmatch-api/pkg/response"
)

// SkillHandler exposes per-skill credential submission, autocomplete, and
// the admin review queue.
type SkillHandler struct {
	service *service.SkillService
}

// NewSkillHandler creates a new handler.
func NewSkillHandler(svc *service.SkillService) *SkillHandler {
	return &SkillHandler{service: svc}
}

// Submit godoc
// @Summary Submit skill for review
// @Description Multipart submission of a canonical skill plus certificates
// @Tags Skills
// @Accept multipart/form-data
// @Produce json
// @Param skill_name formData string true "Canonical skill name"
// @Param description formData string false "Free-text description"
// @Param documents formData file true "Certificate documents"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /skills [post]
func (h *SkillHandler) Submit(c *gin.Context) {
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

	req := dto.SubmitSkillRequest{
		SkillName:   c.PostForm("skill_name"),
		Description: c.PostForm("description"),
	}

	uploads, err := readUploads(form.File["documents"], form.Value["document_types"])
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.service.Submit(c.Request.Context(), claims.UserID, req, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Mine godoc
// @Summary List own skill items
// @Tags Skills
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /skills [get]
func (h *SkillHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Suggest godoc
// @Summary Suggest canonical skills
// @Description Rank the canonical vocabulary against the query
// @Tags Skills
// @Produce json
// @Param q query string false "Query string"
// @Success 200 {object} response.Envelope
// @Router /skills/suggest [get]
func (h *SkillHandler) Suggest(c *gin.Context) {
	suggestions := h.service.Suggest(c.Query("q"))
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// Queue godoc
// @Summary Pending skill review queue
// @Tags Skills
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/skills [get]
func (h *SkillHandler) Queue(c *gin.Context) {
	entries, err := h.service.Queue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Detail godoc
// @Summary Skill item detail
// @Tags Skills
// @Produce json
// @Param id path string true "Skill item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/skills/{id} [get]
func (h *SkillHandler) Detail(c *gin.Context) {
	detail, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve skill item
// @Tags Skills
// @Produce json
// @Param id path string true "Skill item ID"
// @Success 204 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/skills/{id}/approve [post]
func (h *SkillHandler) Approve(c *gin.Context) {
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
// @Summary Reject skill item
// @Tags Skills
// @Accept json
// @Produce json
// @Param id path string true "Skill item ID"
// @Param payload body dto.ReviewSkillRequest false "Decision payload"
// @Success 204 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /admin/skills/{id}/reject [post]
func (h *SkillHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	// An empty body is fine; the reason defaults server-side.
	var req dto.ReviewSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = dto.ReviewSkillRequest{}
	}

	if err := h.service.Reject(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
