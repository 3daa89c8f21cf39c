package dto

// CreateJobRequest posts a new OUTGOING job.
type CreateJobRequest struct {
	Title           string `json:"title" validate:"required"`
	Description     string `json:"description" validate:"required"`
	ServiceCategory string `json:"service_category" validate:"required"`
	HourlyRateMin   int    `json:"hourly_rate_min" validate:"required"`
	HourlyRateMax   int    `json:"hourly_rate_max" validate:"required"`
	Location        string `json:"location"`
}

// AddTaskRequest appends a checklist item to a job.
type AddTaskRequest struct {
	Title string `json:"title" validate:"required"`
}

// RecommendedJob is a ranked job candidate for a technician.
type RecommendedJob struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	ServiceCategory string  `json:"service_category"`
	HourlyRateMin   int     `json:"hourly_rate_min"`
	HourlyRateMax   int     `json:"hourly_rate_max"`
	Location        *string `json:"location,omitempty"`
	CategoryMatch   bool    `json:"category_match"`
	Score           int     `json:"score"`
}
