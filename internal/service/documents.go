package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/techmatch/techmatch-api/internal/dto"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

// DocumentPolicy validates uploaded files against the configured extension
// allowlist and size ceiling.
type DocumentPolicy struct {
	AllowedExtensions []string
	MaxFileSizeBytes  int64
}

// Validate checks every upload in the batch before anything is written.
// The first offending file fails the whole submission.
func (p DocumentPolicy) Validate(uploads []dto.DocumentUpload) error {
	if len(uploads) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one document is required")
	}
	for _, upload := range uploads {
		ext := strings.ToLower(filepath.Ext(upload.Filename))
		if ext == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q has no extension", upload.Filename))
		}
		if !p.extensionAllowed(ext) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %s is not allowed", ext))
		}
		if upload.SizeBytes <= 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q is empty", upload.Filename))
		}
		if upload.SizeBytes > p.MaxFileSizeBytes {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q exceeds the maximum size", upload.Filename))
		}
	}
	return nil
}

func (p DocumentPolicy) extensionAllowed(ext string) bool {
	for _, allowed := range p.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

// storedName produces the randomised on-disk filename for an upload,
// keeping only the extension from the original name.
func storedName(originalName string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
}
