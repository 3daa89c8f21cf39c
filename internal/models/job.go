package models

import "time"

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusOutgoing            JobStatus = "OUTGOING"
	JobStatusActive              JobStatus = "ACTIVE"
	JobStatusPendingConfirmation JobStatus = "PENDING_CONFIRMATION"
	JobStatusCompleted           JobStatus = "COMPLETED"
	JobStatusCancelled           JobStatus = "CANCELLED"
)

// ApplicationStatus tracks a technician's application to a job.
type ApplicationStatus string

const (
	ApplicationStatusApplied   ApplicationStatus = "APPLIED"
	ApplicationStatusApproved  ApplicationStatus = "APPROVED"
	ApplicationStatusDenied    ApplicationStatus = "DENIED"
	ApplicationStatusWithdrawn ApplicationStatus = "WITHDRAWN"
)

// PaymentStatus is a stub field; no payment reconciliation happens here.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
	PaymentStatusPaid   PaymentStatus = "PAID"
)

// Job belongs to exactly one business account. AssignedTechnicianID is set
// if and only if status is ACTIVE, PENDING_CONFIRMATION, or COMPLETED.
type Job struct {
	ID                   string        `db:"id" json:"id"`
	BusinessID           string        `db:"business_id" json:"business_id"`
	Title                string        `db:"title" json:"title"`
	Description          string        `db:"description" json:"description"`
	ServiceCategory      string        `db:"service_category" json:"service_category"`
	HourlyRateMin        int           `db:"hourly_rate_min" json:"hourly_rate_min"`
	HourlyRateMax        int           `db:"hourly_rate_max" json:"hourly_rate_max"`
	Location             *string       `db:"location" json:"location,omitempty"`
	Status               JobStatus     `db:"status" json:"status"`
	AssignedTechnicianID *string       `db:"assigned_technician_id" json:"assigned_technician_id,omitempty"`
	PaymentStatus        PaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt            time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `db:"updated_at" json:"updated_at"`
}

// JobApplication links a technician to a job. At most one non-WITHDRAWN
// application may exist per (job, technician) pair; at most one APPROVED
// application per job.
type JobApplication struct {
	ID           string            `db:"id" json:"id"`
	JobID        string            `db:"job_id" json:"job_id"`
	TechnicianID string            `db:"technician_id" json:"technician_id"`
	Status       ApplicationStatus `db:"status" json:"status"`
	AppliedAt    time.Time         `db:"applied_at" json:"applied_at"`
}

// JobApplicationEntry joins an application with the applicant's identity
// for the business review list.
type JobApplicationEntry struct {
	JobApplication
	Email    string  `db:"email" json:"email"`
	FullName *string `db:"full_name" json:"full_name,omitempty"`
}

// JobTask is a completion-tracked checklist item owned by the posting
// business.
type JobTask struct {
	ID        string    `db:"id" json:"id"`
	JobID     string    `db:"job_id" json:"job_id"`
	Title     string    `db:"title" json:"title"`
	Done      bool      `db:"done" json:"done"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// JobStats summarises a business's jobs by status for the dashboard.
type JobStats struct {
	Total               int `db:"total" json:"total"`
	Outgoing            int `db:"outgoing" json:"outgoing"`
	Active              int `db:"active" json:"active"`
	PendingConfirmation int `db:"pending_confirmation" json:"pending_confirmation"`
	Completed           int `db:"completed" json:"completed"`
}

// JobWindow bundles a job with the viewing technician's application and,
// when visible, its tasks. Tasks are shown once the job is ACTIVE or the
// technician's own application is APPROVED.
type JobWindow struct {
	Job         Job             `json:"job"`
	Application *JobApplication `json:"application,omitempty"`
	ShowTasks   bool            `json:"show_tasks"`
	Tasks       []JobTask       `json:"tasks"`
}
