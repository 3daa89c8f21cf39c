package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techmatch/techmatch-api/internal/service"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
	"github.com/techmatch/techmatch-api/pkg/response"
)

// DocumentHandler serves uploaded document metadata and content.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// Mine godoc
// @Summary List own documents
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	docs, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Download godoc
// @Summary Download a document
// @Description Admins and the uploader only
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Document ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	doc, file, err := h.service.Open(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	c.DataFromReader(http.StatusOK, doc.SizeBytes, "application/octet-stream", file, nil)
}
