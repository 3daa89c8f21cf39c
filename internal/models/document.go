package models

import "time"

// Document is immutable upload metadata. Each row references exactly one of
// VerificationRequestID or SkillItemID; the blob itself lives in storage
// under StoredName.
type Document struct {
	ID                    string    `db:"id" json:"id"`
	VerificationRequestID *string   `db:"verification_request_id" json:"verification_request_id,omitempty"`
	SkillItemID           *string   `db:"skill_item_id" json:"skill_item_id,omitempty"`
	UploadedBy            string    `db:"uploaded_by" json:"uploaded_by"`
	DocumentType          string    `db:"document_type" json:"document_type"`
	OriginalName          string    `db:"original_name" json:"original_name"`
	StoredName            string    `db:"stored_name" json:"-"`
	Extension             string    `db:"extension" json:"extension"`
	SizeBytes             int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt            time.Time `db:"uploaded_at" json:"uploaded_at"`
}
