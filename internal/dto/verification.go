package dto

import "github.com/techmatch/techmatch-api/internal/models"

// DocumentUpload carries one file from a multipart submission. Content is
// fully buffered by the handler before validation so the whole batch can be
// checked ahead of any persistent write.
type DocumentUpload struct {
	Filename     string
	SizeBytes    int64
	DocumentType string
	Content      []byte
}

// SubmitVerificationRequest is the self-service identity submission.
// DisplayName is the technician's full name or the business's company name;
// Skills is only read for technician accounts.
type SubmitVerificationRequest struct {
	DisplayName string   `json:"display_name" validate:"required"`
	Skills      []string `json:"skills"`
}

// ReviewVerificationRequest is the admin decision payload.
type ReviewVerificationRequest struct {
	Reason          string `json:"reason"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
}

// VerificationDetail combines a request with its flags and documents for
// the admin review screen.
type VerificationDetail struct {
	Request   models.VerificationRequest `json:"request"`
	Flags     []models.VerificationFlag  `json:"flags"`
	Documents []models.Document          `json:"documents"`
}

// VerificationStatusView is what a pending-state user sees about their own
// latest request.
type VerificationStatusView struct {
	Request  *models.VerificationRequest `json:"request,omitempty"`
	Blocking bool                        `json:"blocking"`
	CanApply bool                        `json:"can_apply"`
}
