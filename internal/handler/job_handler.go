package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/internal/service"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
	"github.com/techmatch/techmatch-api/pkg/response"
)

// JobHandler exposes the job board: posting and managing jobs for
// businesses, browsing and applying for technicians.
type JobHandler struct {
	service *service.JobService
}

// NewJobHandler creates a new handler.
func NewJobHandler(svc *service.JobService) *JobHandler {
	return &JobHandler{service: svc}
}

// Create godoc
// @Summary Post a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body dto.CreateJobRequest true "Job payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}

	job, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// ListOpen godoc
// @Summary Browse open jobs
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) ListOpen(c *gin.Context) {
	jobs, err := h.service.ListOpen(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Mine godoc
// @Summary List own posted jobs
// @Tags Jobs
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /jobs/mine [get]
func (h *JobHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var status *models.JobStatus
	if raw := c.Query("status"); raw != "" {
		s := models.JobStatus(raw)
		status = &s
	}

	jobs, err := h.service.ListForBusiness(c.Request.Context(), claims.UserID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Assigned godoc
// @Summary List jobs assigned to the technician
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs/assigned [get]
func (h *JobHandler) Assigned(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	jobs, err := h.service.ListAssigned(c.Request.Context(), claims.UserID,
		[]models.JobStatus{models.JobStatusActive, models.JobStatusPendingConfirmation})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Stats godoc
// @Summary Own job counts by status
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs/stats [get]
func (h *JobHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Window godoc
// @Summary Job detail as seen by a technician
// @Description Job, own application, and tasks once approved
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Window(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	window, err := h.service.Window(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, nil)
}

// Delete godoc
// @Summary Delete an open job
// @Description Cascades tasks and applications; only OUTGOING jobs
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Apply godoc
// @Summary Apply to a job
// @Tags Applications
// @Produce json
// @Param id path string true "Job ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/apply [post]
func (h *JobHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	app, err := h.service.Apply(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, app)
}

// Withdraw godoc
// @Summary Withdraw own application
// @Tags Applications
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/apply [delete]
func (h *JobHandler) Withdraw(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MyApplications godoc
// @Summary List own applications
// @Tags Applications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *JobHandler) MyApplications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	apps, err := h.service.MyApplications(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, nil)
}

// Applications godoc
// @Summary List applications to own job
// @Tags Applications
// @Produce json
// @Param id path string true "Job ID"
// @Param status query string false "Status filter, defaults to APPLIED"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/applications [get]
func (h *JobHandler) Applications(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status := models.ApplicationStatus(c.DefaultQuery("status", string(models.ApplicationStatusApplied)))
	entries, err := h.service.Applications(c.Request.Context(), c.Param("id"), claims.UserID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ApproveApplication godoc
// @Summary Approve an application
// @Description Assigns the technician, denies siblings, activates the job
// @Tags Applications
// @Produce json
// @Param id path string true "Job ID"
// @Param applicationId path string true "Application ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/applications/{applicationId}/approve [post]
func (h *JobHandler) ApproveApplication(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.ApproveApplication(c.Request.Context(), c.Param("id"), c.Param("applicationId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DenyApplication godoc
// @Summary Deny an application
// @Tags Applications
// @Produce json
// @Param id path string true "Job ID"
// @Param applicationId path string true "Application ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/applications/{applicationId}/deny [post]
func (h *JobHandler) DenyApplication(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DenyApplication(c.Request.Context(), c.Param("id"), c.Param("applicationId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkComplete godoc
// @Summary Mark assigned job complete
// @Description Technician half of the completion handshake
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/complete [post]
func (h *JobHandler) MarkComplete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.MarkComplete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ConfirmCompletion godoc
// @Summary Confirm job completion
// @Description Business half of the completion handshake
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /jobs/{id}/confirm [post]
func (h *JobHandler) ConfirmCompletion(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.ConfirmCompletion(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Tasks godoc
// @Summary List a job's checklist
// @Tags Tasks
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/tasks [get]
func (h *JobHandler) Tasks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	tasks, err := h.service.Tasks(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks, nil)
}

// AddTask godoc
// @Summary Add a checklist item
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body dto.AddTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/tasks [post]
func (h *JobHandler) AddTask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.AddTask(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// DeleteTask godoc
// @Summary Remove a checklist item
// @Tags Tasks
// @Produce json
// @Param id path string true "Job ID"
// @Param taskId path string true "Task ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/tasks/{taskId} [delete]
func (h *JobHandler) DeleteTask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteTask(c.Request.Context(), c.Param("id"), c.Param("taskId"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetTaskDone godoc
// @Summary Toggle a checklist item
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param taskId path string true "Task ID"
// @Param payload body object true "Done flag"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /jobs/{id}/tasks/{taskId} [put]
func (h *JobHandler) SetTaskDone(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Done bool `json:"done"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.SetTaskDone(c.Request.Context(), c.Param("id"), c.Param("taskId"), claims.UserID, payload.Done); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Recommend godoc
// @Summary Recommended jobs for the technician
// @Description Category history first, keyword overlap second; cached
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs/recommendations [get]
func (h *JobHandler) Recommend(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ranked, err := h.service.Recommend(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ranked, nil)
}
