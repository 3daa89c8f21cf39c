package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/techmatch/techmatch-api/internal/models"
)

// JobRepository persists jobs, applications, and tasks. State transitions
// use conditional updates so concurrent actors cannot double-apply them.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository constructs the repository.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, business_id, title, description, service_category, hourly_rate_min, hourly_rate_max, location, status, assigned_technician_id, payment_status, created_at, updated_at`

// Create inserts a new job row.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusOutgoing
	}
	if job.PaymentStatus == "" {
		job.PaymentStatus = models.PaymentStatusUnpaid
	}
	const query = `INSERT INTO jobs
	(id, business_id, title, description, service_category, hourly_rate_min, hourly_rate_max, location, status, payment_status, created_at, updated_at)
	VALUES (:id, :business_id, :title, :description, :service_category, :hourly_rate_min, :hourly_rate_max, :location, :status, :payment_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// GetByID fetches a job by identifier.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// GetForBusiness fetches a job only when it belongs to the given business.
func (r *JobRepository) GetForBusiness(ctx context.Context, jobID, businessID string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 AND business_id = $2`
	var job models.Job
	if err := r.db.GetContext(ctx, &job, query, jobID, businessID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get business job: %w", err)
	}
	return &job, nil
}

// ListOpen returns OUTGOING jobs, newest first.
func (r *JobRepository) ListOpen(ctx context.Context) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = 'OUTGOING' ORDER BY created_at DESC, id DESC`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query); err != nil {
		return nil, fmt.Errorf("list open jobs: %w", err)
	}
	return jobs, nil
}

// ListByBusiness returns jobs posted by a business, optionally filtered by
// status.
func (r *JobRepository) ListByBusiness(ctx context.Context, businessID string, status *models.JobStatus) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE business_id = $1`
	args := []interface{}{businessID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("list business jobs: %w", err)
	}
	return jobs, nil
}

// ListAssignedToTechnician returns jobs currently assigned to a technician
// in any of the given statuses.
func (r *JobRepository) ListAssignedToTechnician(ctx context.Context, technicianID string, statuses []models.JobStatus) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE assigned_technician_id = ?`
	args := []interface{}{technicianID}
	if len(statuses) > 0 {
		in := `SELECT ` + jobColumns + ` FROM jobs WHERE assigned_technician_id = ? AND status IN (?)`
		expanded, expandedArgs, err := sqlx.In(in, technicianID, statuses)
		if err != nil {
			return nil, fmt.Errorf("expand status filter: %w", err)
		}
		query, args = expanded, expandedArgs
	}
	query = r.db.Rebind(query + ` ORDER BY updated_at DESC, id DESC`)
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("list assigned jobs: %w", err)
	}
	return jobs, nil
}

// StatsForBusiness summarises job counts by status.
func (r *JobRepository) StatsForBusiness(ctx context.Context, businessID string) (*models.JobStats, error) {
	const query = `SELECT
	COUNT(*) AS total,
	COUNT(*) FILTER (WHERE status = 'OUTGOING') AS outgoing,
	COUNT(*) FILTER (WHERE status = 'ACTIVE') AS active,
	COUNT(*) FILTER (WHERE status = 'PENDING_CONFIRMATION') AS pending_confirmation,
	COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed
	FROM jobs WHERE business_id = $1`
	var stats models.JobStats
	if err := r.db.GetContext(ctx, &stats, query, businessID); err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return &stats, nil
}

// Delete removes an OUTGOING job with its tasks and applications in one
// transaction. Returns sql.ErrNoRows when the job is missing, not owned by
// the business, or no longer OUTGOING.
func (r *JobRepository) Delete(ctx context.Context, jobID, businessID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin job delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_tasks WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("delete job tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM job_applications WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("delete job applications: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1 AND business_id = $2 AND status = 'OUTGOING'`, jobID, businessID)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check job delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit job delete: %w", err)
	}
	return nil
}

// MarkPendingConfirmation moves an ACTIVE job assigned to the technician
// into PENDING_CONFIRMATION.
func (r *JobRepository) MarkPendingConfirmation(ctx context.Context, jobID, technicianID string, now time.Time) error {
	const query = `UPDATE jobs SET status = 'PENDING_CONFIRMATION', updated_at = $3
	WHERE id = $1 AND assigned_technician_id = $2 AND status = 'ACTIVE'`
	result, err := r.db.ExecContext(ctx, query, jobID, technicianID, now)
	if err != nil {
		return fmt.Errorf("mark job pending confirmation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check job update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ConfirmCompletion moves a PENDING_CONFIRMATION job owned by the business
// into COMPLETED.
func (r *JobRepository) ConfirmCompletion(ctx context.Context, jobID, businessID string, now time.Time) error {
	const query = `UPDATE jobs SET status = 'COMPLETED', updated_at = $3
	WHERE id = $1 AND business_id = $2 AND status = 'PENDING_CONFIRMATION'`
	result, err := r.db.ExecContext(ctx, query, jobID, businessID, now)
	if err != nil {
		return fmt.Errorf("confirm job completion: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check job update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const applicationColumns = `id, job_id, technician_id, status, applied_at`

// FindApplication returns the latest application of a technician to a job.
func (r *JobRepository) FindApplication(ctx context.Context, jobID, technicianID string) (*models.JobApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM job_applications
	WHERE job_id = $1 AND technician_id = $2 ORDER BY applied_at DESC, id DESC LIMIT 1`
	var app models.JobApplication
	if err := r.db.GetContext(ctx, &app, query, jobID, technicianID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return &app, nil
}

// GetApplication fetches an application by identifier.
func (r *JobRepository) GetApplication(ctx context.Context, id string) (*models.JobApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM job_applications WHERE id = $1`
	var app models.JobApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &app, nil
}

// InsertApplication creates a new APPLIED row.
func (r *JobRepository) InsertApplication(ctx context.Context, app *models.JobApplication) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = models.ApplicationStatusApplied
	}
	const query = `INSERT INTO job_applications (id, job_id, technician_id, status, applied_at)
	VALUES (:id, :job_id, :technician_id, :status, :applied_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// ReactivateApplication flips a WITHDRAWN application back to APPLIED
// instead of inserting a duplicate row.
func (r *JobRepository) ReactivateApplication(ctx context.Context, id string, now time.Time) error {
	const query = `UPDATE job_applications SET status = 'APPLIED', applied_at = $2
	WHERE id = $1 AND status = 'WITHDRAWN'`
	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("reactivate application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// WithdrawApplication moves the technician's APPLIED application on a job
// to WITHDRAWN.
func (r *JobRepository) WithdrawApplication(ctx context.Context, jobID, technicianID string) error {
	const query = `UPDATE job_applications SET status = 'WITHDRAWN'
	WHERE job_id = $1 AND technician_id = $2 AND status = 'APPLIED'`
	result, err := r.db.ExecContext(ctx, query, jobID, technicianID)
	if err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApproveApplication performs the three-way transition in one transaction:
// the target application becomes APPROVED, the job becomes ACTIVE with the
// technician assigned, and every sibling APPLIED application is DENIED.
// A reader can never observe an ACTIVE job with zero or two approvals.
func (r *JobRepository) ApproveApplication(ctx context.Context, jobID, applicationID, technicianID string, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin application approve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const approveTarget = `UPDATE job_applications SET status = 'APPROVED'
	WHERE id = $1 AND job_id = $2 AND status = 'APPLIED'`
	result, err := tx.ExecContext(ctx, approveTarget, applicationID, jobID)
	if err != nil {
		return fmt.Errorf("approve application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application approve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const activateJob = `UPDATE jobs SET status = 'ACTIVE', assigned_technician_id = $2, updated_at = $3
	WHERE id = $1 AND status = 'OUTGOING'`
	result, err = tx.ExecContext(ctx, activateJob, jobID, technicianID, now)
	if err != nil {
		return fmt.Errorf("activate job: %w", err)
	}
	rows, err = result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check job activate rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	const denySiblings = `UPDATE job_applications SET status = 'DENIED'
	WHERE job_id = $1 AND id <> $2 AND status = 'APPLIED'`
	if _, err := tx.ExecContext(ctx, denySiblings, jobID, applicationID); err != nil {
		return fmt.Errorf("deny sibling applications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit application approve: %w", err)
	}
	return nil
}

// DenyApplication moves a single APPLIED application to DENIED; the job
// stays OUTGOING.
func (r *JobRepository) DenyApplication(ctx context.Context, jobID, applicationID string) error {
	const query = `UPDATE job_applications SET status = 'DENIED'
	WHERE id = $1 AND job_id = $2 AND status = 'APPLIED'`
	result, err := r.db.ExecContext(ctx, query, applicationID, jobID)
	if err != nil {
		return fmt.Errorf("deny application: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check application deny rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListApplications returns a job's applications in the given status joined
// with applicant identity, oldest first.
func (r *JobRepository) ListApplications(ctx context.Context, jobID string, status models.ApplicationStatus) ([]models.JobApplicationEntry, error) {
	const query = `SELECT ja.id, ja.job_id, ja.technician_id, ja.status, ja.applied_at, u.email, tp.full_name
	FROM job_applications ja
	JOIN users u ON u.id = ja.technician_id
	LEFT JOIN technician_profiles tp ON tp.user_id = ja.technician_id
	WHERE ja.job_id = $1 AND ja.status = $2
	ORDER BY ja.applied_at ASC, ja.id ASC`
	var entries []models.JobApplicationEntry
	if err := r.db.SelectContext(ctx, &entries, query, jobID, status); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return entries, nil
}

// ListApplicationsByTechnician returns all applications a technician has
// made, newest first.
func (r *JobRepository) ListApplicationsByTechnician(ctx context.Context, technicianID string) ([]models.JobApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM job_applications
	WHERE technician_id = $1 ORDER BY applied_at DESC, id DESC`
	var apps []models.JobApplication
	if err := r.db.SelectContext(ctx, &apps, query, technicianID); err != nil {
		return nil, fmt.Errorf("list technician applications: %w", err)
	}
	return apps, nil
}

// InsertTask appends a checklist item to a job.
func (r *JobRepository) InsertTask(ctx context.Context, task *models.JobTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	const query = `INSERT INTO job_tasks (id, job_id, title, done, created_at)
	VALUES (:id, :job_id, :title, :done, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// DeleteTask removes a task from a job.
func (r *JobRepository) DeleteTask(ctx context.Context, taskID, jobID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM job_tasks WHERE id = $1 AND job_id = $2`, taskID, jobID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check task delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetTaskDone flips a task's completion flag.
func (r *JobRepository) SetTaskDone(ctx context.Context, taskID, jobID string, done bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE job_tasks SET done = $3 WHERE id = $1 AND job_id = $2`, taskID, jobID, done)
	if err != nil {
		return fmt.Errorf("set task done: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check task update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListTasks returns a job's checklist in insertion order.
func (r *JobRepository) ListTasks(ctx context.Context, jobID string) ([]models.JobTask, error) {
	const query = `SELECT id, job_id, title, done, created_at FROM job_tasks WHERE job_id = $1 ORDER BY created_at ASC, id ASC`
	var tasks []models.JobTask
	if err := r.db.SelectContext(ctx, &tasks, query, jobID); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListOutgoingNotApplied returns OUTGOING jobs the technician has not yet
// applied to, newest first. Recommendation candidates come from this set.
func (r *JobRepository) ListOutgoingNotApplied(ctx context.Context, technicianID string) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs j
	WHERE j.status = 'OUTGOING'
	  AND j.id NOT IN (SELECT job_id FROM job_applications WHERE technician_id = $1)
	ORDER BY j.created_at DESC, j.id DESC`
	var jobs []models.Job
	if err := r.db.SelectContext(ctx, &jobs, query, technicianID); err != nil {
		return nil, fmt.Errorf("list recommendation candidates: %w", err)
	}
	return jobs, nil
}

// CompletedCategories returns the distinct service categories in which the
// technician has an APPROVED application on a COMPLETED job.
func (r *JobRepository) CompletedCategories(ctx context.Context, technicianID string) ([]string, error) {
	const query = `SELECT DISTINCT j.service_category
	FROM jobs j
	JOIN job_applications ja ON ja.job_id = j.id
	WHERE ja.technician_id = $1 AND ja.status = 'APPROVED' AND j.status = 'COMPLETED'`
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query, technicianID); err != nil {
		return nil, fmt.Errorf("list completed categories: %w", err)
	}
	return categories, nil
}
