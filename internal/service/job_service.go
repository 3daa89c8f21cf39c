package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/techmatch/techmatch-api/internal/dto"
	"github.com/techmatch/techmatch-api/internal/models"
	"github.com/techmatch/techmatch-api/pkg/clock"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

type jobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id string) (*models.Job, error)
	GetForBusiness(ctx context.Context, jobID, businessID string) (*models.Job, error)
	ListOpen(ctx context.Context) ([]models.Job, error)
	ListByBusiness(ctx context.Context, businessID string, status *models.JobStatus) ([]models.Job, error)
	ListAssignedToTechnician(ctx context.Context, technicianID string, statuses []models.JobStatus) ([]models.Job, error)
	StatsForBusiness(ctx context.Context, businessID string) (*models.JobStats, error)
	Delete(ctx context.Context, jobID, businessID string) error
	MarkPendingConfirmation(ctx context.Context, jobID, technicianID string, now time.Time) error
	ConfirmCompletion(ctx context.Context, jobID, businessID string, now time.Time) error
	FindApplication(ctx context.Context, jobID, technicianID string) (*models.JobApplication, error)
	GetApplication(ctx context.Context, id string) (*models.JobApplication, error)
	InsertApplication(ctx context.Context, app *models.JobApplication) error
	ReactivateApplication(ctx context.Context, id string, now time.Time) error
	WithdrawApplication(ctx context.Context, jobID, technicianID string) error
	ApproveApplication(ctx context.Context, jobID, applicationID, technicianID string, now time.Time) error
	DenyApplication(ctx context.Context, jobID, applicationID string) error
	ListApplications(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.JobApplicationEntry, error)
	ListApplicationsByTechnician(ctx context.Context, technicianID string) ([]models.JobApplication, error)
	InsertTask(ctx context.Context, task *models.JobTask) error
	DeleteTask(ctx context.Context, taskID, jobID string) error
	SetTaskDone(ctx context.Context, taskID, jobID string, done bool) error
	ListTasks(ctx context.Context, jobID string) ([]models.JobTask, error)
	ListOutgoingNotApplied(ctx context.Context, technicianID string) ([]models.Job, error)
	CompletedCategories(ctx context.Context, technicianID string) ([]string, error)
}

type recommendCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type approvedSkillSource interface {
	ApprovedNamesForUser(ctx context.Context, userID string) ([]string, error)
}

const recommendKeyPrefix = "jobs:recommend:"

// JobServiceConfig tunes recommendation output.
type JobServiceConfig struct {
	RecommendTTL   time.Duration
	RecommendLimit int
}

// JobService owns the job and application state machines: posting,
// applying, the approve-one-deny-rest transition, completion handshake,
// and the read-only recommendation ranking.
type JobService struct {
	repo    jobRepository
	skills  approvedSkillSource
	cache   recommendCache
	notify  notifier
	clock   clock.Clock
	logger  *zap.Logger
	metrics *MetricsService
	config  JobServiceConfig
}

// NewJobService constructs the service.
func NewJobService(
	repo jobRepository,
	skills approvedSkillSource,
	cache recommendCache,
	notify notifier,
	clk clock.Clock,
	logger *zap.Logger,
	metrics *MetricsService,
	config JobServiceConfig,
) *JobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System()
	}
	if config.RecommendLimit <= 0 {
		config.RecommendLimit = 20
	}
	return &JobService{
		repo:    repo,
		skills:  skills,
		cache:   cache,
		notify:  notify,
		clock:   clk,
		logger:  logger,
		metrics: metrics,
		config:  config,
	}
}

// Create posts a new OUTGOING job for the business.
func (s *JobService) Create(ctx context.Context, businessID string, req dto.CreateJobRequest) (*models.Job, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.ServiceCategory) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, description, and service category are required")
	}
	if req.HourlyRateMin <= 0 || req.HourlyRateMax <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hourly rates must be positive")
	}
	if req.HourlyRateMin > req.HourlyRateMax {
		return nil, appErrors.Clone(appErrors.ErrValidation, "minimum hourly rate cannot exceed the maximum")
	}

	now := s.clock.Now()
	job := &models.Job{
		BusinessID:      businessID,
		Title:           strings.TrimSpace(req.Title),
		Description:     strings.TrimSpace(req.Description),
		ServiceCategory: strings.TrimSpace(req.ServiceCategory),
		HourlyRateMin:   req.HourlyRateMin,
		HourlyRateMax:   req.HourlyRateMax,
		Status:          models.JobStatusOutgoing,
		PaymentStatus:   models.PaymentStatusUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		job.Location = &loc
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create job")
	}

	s.metrics.RecordJobTransition(string(models.JobStatusOutgoing))
	s.invalidateRecommendations(ctx)
	return job, nil
}

// Get returns a job by id.
func (s *JobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

// GetForBusiness returns a job only when the caller owns it.
func (s *JobService) GetForBusiness(ctx context.Context, jobID, businessID string) (*models.Job, error) {
	job, err := s.repo.GetForBusiness(ctx, jobID, businessID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return job, nil
}

// ListOpen returns all OUTGOING jobs for browsing.
func (s *JobService) ListOpen(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list open jobs")
	}
	return jobs, nil
}

// ListForBusiness returns the caller's posted jobs with an optional status
// filter.
func (s *JobService) ListForBusiness(ctx context.Context, businessID string, status *models.JobStatus) ([]models.Job, error) {
	jobs, err := s.repo.ListByBusiness(ctx, businessID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list jobs")
	}
	return jobs, nil
}

// ListAssigned returns the technician's active and in-confirmation jobs.
func (s *JobService) ListAssigned(ctx context.Context, technicianID string, statuses []models.JobStatus) ([]models.Job, error) {
	jobs, err := s.repo.ListAssignedToTechnician(ctx, technicianID, statuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned jobs")
	}
	return jobs, nil
}

// Stats summarises the business's jobs by status.
func (s *JobService) Stats(ctx context.Context, businessID string) (*models.JobStats, error) {
	stats, err := s.repo.StatsForBusiness(ctx, businessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job stats")
	}
	return stats, nil
}

// Delete removes an OUTGOING job with its tasks and applications. Any
// other status fails with a state error.
func (s *JobService) Delete(ctx context.Context, jobID, businessID string) error {
	if err := s.repo.Delete(ctx, jobID, businessID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.jobStateError(ctx, jobID, businessID, "only open jobs can be deleted")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete job")
	}
	s.invalidateRecommendations(ctx)
	return nil
}

// Apply creates (or reactivates) an APPLIED application for the technician.
func (s *JobService) Apply(ctx context.Context, jobID, technicianID string) (*models.JobApplication, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusOutgoing {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "job is no longer accepting applications")
	}

	now := s.clock.Now()
	existing, err := s.repo.FindApplication(ctx, jobID, technicianID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing application")
	}
	if existing != nil {
		if existing.Status != models.ApplicationStatusWithdrawn {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this job")
		}
		// A withdrawn application comes back to life instead of a
		// duplicate row.
		if err := s.repo.ReactivateApplication(ctx, existing.ID, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied to this job")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reactivate application")
		}
		existing.Status = models.ApplicationStatusApplied
		existing.AppliedAt = now
		s.notify.NotifyUser(ctx, job.BusinessID, models.NotificationTypeJob,
			fmt.Sprintf("A technician applied to %q.", job.Title))
		return existing, nil
	}

	app := &models.JobApplication{
		JobID:        jobID,
		TechnicianID: technicianID,
		Status:       models.ApplicationStatusApplied,
		AppliedAt:    now,
	}
	if err := s.repo.InsertApplication(ctx, app); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create application")
	}

	s.notify.NotifyUser(ctx, job.BusinessID, models.NotificationTypeJob,
		fmt.Sprintf("A technician applied to %q.", job.Title))
	return app, nil
}

// Withdraw moves the technician's APPLIED application to WITHDRAWN.
func (s *JobService) Withdraw(ctx context.Context, jobID, technicianID string) error {
	if err := s.repo.WithdrawApplication(ctx, jobID, technicianID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "no active application to withdraw")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw application")
	}
	return nil
}

// ApproveApplication runs the atomic three-way transition: target APPROVED,
// job ACTIVE with the technician assigned, sibling APPLIED rows DENIED.
func (s *JobService) ApproveApplication(ctx context.Context, jobID, applicationID, businessID string) error {
	job, err := s.GetForBusiness(ctx, jobID, businessID)
	if err != nil {
		return err
	}

	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.JobID != jobID {
		return appErrors.Clone(appErrors.ErrNotFound, "application not found")
	}

	if err := s.repo.ApproveApplication(ctx, jobID, applicationID, app.TechnicianID, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "application or job is not in a valid state for approval")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve application")
	}

	s.notify.NotifyUser(ctx, app.TechnicianID, models.NotificationTypeJob,
		fmt.Sprintf("Your application to %q was approved.", job.Title))
	s.metrics.RecordJobTransition(string(models.JobStatusActive))
	s.invalidateRecommendations(ctx)
	return nil
}

// DenyApplication moves one APPLIED application to DENIED; the job stays
// OUTGOING.
func (s *JobService) DenyApplication(ctx context.Context, jobID, applicationID, businessID string) error {
	job, err := s.GetForBusiness(ctx, jobID, businessID)
	if err != nil {
		return err
	}

	app, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if err := s.repo.DenyApplication(ctx, jobID, applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "application is not in a valid state for denial")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deny application")
	}

	s.notify.NotifyUser(ctx, app.TechnicianID, models.NotificationTypeJob,
		fmt.Sprintf("Your application to %q was denied.", job.Title))
	return nil
}

// MarkComplete is the assigned technician's half of the completion
// handshake: ACTIVE becomes PENDING_CONFIRMATION.
func (s *JobService) MarkComplete(ctx context.Context, jobID, technicianID string) error {
	if err := s.repo.MarkPendingConfirmation(ctx, jobID, technicianID, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.completionStateError(ctx, jobID, technicianID)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark job complete")
	}

	if job, err := s.repo.GetByID(ctx, jobID); err == nil {
		s.notify.NotifyUser(ctx, job.BusinessID, models.NotificationTypeJob,
			fmt.Sprintf("%q has been marked complete and awaits your confirmation.", job.Title))
	}
	s.metrics.RecordJobTransition(string(models.JobStatusPendingConfirmation))
	return nil
}

// ConfirmCompletion is the business's half: PENDING_CONFIRMATION becomes
// COMPLETED.
func (s *JobService) ConfirmCompletion(ctx context.Context, jobID, businessID string) error {
	if err := s.repo.ConfirmCompletion(ctx, jobID, businessID, s.clock.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.jobStateError(ctx, jobID, businessID, "job is not awaiting confirmation")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm completion")
	}

	if job, err := s.repo.GetByID(ctx, jobID); err == nil && job.AssignedTechnicianID != nil {
		s.notify.NotifyUser(ctx, *job.AssignedTechnicianID, models.NotificationTypeJob,
			fmt.Sprintf("%q has been confirmed as completed.", job.Title))
	}
	s.metrics.RecordJobTransition(string(models.JobStatusCompleted))
	s.invalidateRecommendations(ctx)
	return nil
}

// Applications lists a job's applications in a given status for the owner.
func (s *JobService) Applications(ctx context.Context, jobID, businessID string, status models.ApplicationStatus) ([]models.JobApplicationEntry, error) {
	if _, err := s.GetForBusiness(ctx, jobID, businessID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListApplications(ctx, jobID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return entries, nil
}

// MyApplications lists the technician's own applications.
func (s *JobService) MyApplications(ctx context.Context, technicianID string) ([]models.JobApplication, error) {
	apps, err := s.repo.ListApplicationsByTechnician(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	return apps, nil
}

// Window assembles a job as seen by one technician: the job, their own
// application if any, and the task list once the technician is approved.
func (s *JobService) Window(ctx context.Context, jobID, technicianID string) (*models.JobWindow, error) {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	window := &models.JobWindow{Job: *job, Tasks: []models.JobTask{}}
	app, err := s.repo.FindApplication(ctx, jobID, technicianID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app != nil {
		window.Application = app
	}

	assigned := job.AssignedTechnicianID != nil && *job.AssignedTechnicianID == technicianID
	// Open jobs are browsable by any technician deciding whether to
	// apply; once a job leaves OUTGOING only participants may view it.
	if app == nil && !assigned && job.Status != models.JobStatusOutgoing {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not involved in this job")
	}
	approved := app != nil && app.Status == models.ApplicationStatusApproved
	window.ShowTasks = assigned || approved
	if window.ShowTasks {
		tasks, err := s.repo.ListTasks(ctx, jobID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tasks")
		}
		window.Tasks = tasks
	}
	return window, nil
}

// AddTask appends a checklist item to a job the caller owns.
func (s *JobService) AddTask(ctx context.Context, jobID, businessID string, req dto.AddTaskRequest) (*models.JobTask, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task title is required")
	}
	if _, err := s.GetForBusiness(ctx, jobID, businessID); err != nil {
		return nil, err
	}

	task := &models.JobTask{
		JobID:     jobID,
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertTask(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add task")
	}
	return task, nil
}

// DeleteTask removes a checklist item from a job the caller owns.
func (s *JobService) DeleteTask(ctx context.Context, jobID, taskID, businessID string) error {
	if _, err := s.GetForBusiness(ctx, jobID, businessID); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, taskID, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}

// SetTaskDone flips a checklist item's completion flag. The assigned
// technician checks tasks off; the owning business may as well.
func (s *JobService) SetTaskDone(ctx context.Context, jobID, taskID, callerID string, done bool) error {
	job, err := s.Get(ctx, jobID)
	if err != nil {
		return err
	}
	assigned := job.AssignedTechnicianID != nil && *job.AssignedTechnicianID == callerID
	if !assigned && job.BusinessID != callerID {
		return appErrors.Clone(appErrors.ErrForbidden, "you do not have access to this job's tasks")
	}

	if err := s.repo.SetTaskDone(ctx, taskID, jobID, done); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return nil
}

// Tasks lists a job's checklist for its owner.
func (s *JobService) Tasks(ctx context.Context, jobID, businessID string) ([]models.JobTask, error) {
	if _, err := s.GetForBusiness(ctx, jobID, businessID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasks(ctx, jobID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Recommend ranks OUTGOING jobs the technician has not applied to.
// Category-history matches rank first, then keyword overlap between the
// job text and the technician's approved skills. Results are cached.
func (s *JobService) Recommend(ctx context.Context, technicianID string) ([]dto.RecommendedJob, error) {
	key := recommendKeyPrefix + technicianID
	var cached []dto.RecommendedJob
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, nil
		} else if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.RecordCacheOperation(false)
		} else {
			s.logger.Warn("recommendation cache read failed", zap.Error(err))
		}
	}

	candidates, err := s.repo.ListOutgoingNotApplied(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list candidate jobs")
	}
	categories, err := s.repo.CompletedCategories(ctx, technicianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load completed categories")
	}
	skills, err := s.skills.ApprovedNamesForUser(ctx, technicianID)
	if err != nil {
		return nil, err
	}

	categorySet := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		categorySet[strings.ToLower(c)] = struct{}{}
	}
	skillWords := keywordSet(skills)

	ranked := make([]dto.RecommendedJob, 0, len(candidates))
	for _, job := range candidates {
		_, match := categorySet[strings.ToLower(job.ServiceCategory)]
		ranked = append(ranked, dto.RecommendedJob{
			ID:              job.ID,
			Title:           job.Title,
			ServiceCategory: job.ServiceCategory,
			HourlyRateMin:   job.HourlyRateMin,
			HourlyRateMax:   job.HourlyRateMax,
			Location:        job.Location,
			CategoryMatch:   match,
			Score:           keywordOverlap(job.Title+" "+job.ServiceCategory, skillWords),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CategoryMatch != ranked[j].CategoryMatch {
			return ranked[i].CategoryMatch
		}
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > s.config.RecommendLimit {
		ranked = ranked[:s.config.RecommendLimit]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, ranked, s.config.RecommendTTL); err != nil {
			s.logger.Warn("recommendation cache write failed", zap.Error(err))
		}
	}
	return ranked, nil
}

func (s *JobService) invalidateRecommendations(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, recommendKeyPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate recommendation cache", zap.Error(err))
	}
}

func (s *JobService) jobStateError(ctx context.Context, jobID, businessID, message string) error {
	if _, err := s.repo.GetForBusiness(ctx, jobID, businessID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, message)
}

func (s *JobService) completionStateError(ctx context.Context, jobID, technicianID string) error {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "job not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job")
	}
	if job.AssignedTechnicianID == nil || *job.AssignedTechnicianID != technicianID {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this job")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, "job is not active")
}

// keywordSet splits skill names into lowercase words.
func keywordSet(skills []string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, skill := range skills {
		for _, w := range strings.Fields(strings.ToLower(skill)) {
			words[w] = struct{}{}
		}
	}
	return words
}

// keywordOverlap counts distinct words in text that appear in the set.
func keywordOverlap(text string, words map[string]struct{}) int {
	seen := make(map[string]struct{})
	score := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := words[w]; ok {
			score++
		}
	}
	return score
}
