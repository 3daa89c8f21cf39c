package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techmatch/techmatch-api/internal/dto"
	appErrors "github.com/techmatch/techmatch-api/pkg/errors"
)

func TestDocumentPolicyValidate(t *testing.T) {
	policy := DocumentPolicy{
		AllowedExtensions: []string{".pdf", ".docx"},
		MaxFileSizeBytes:  1024,
	}

	cases := []struct {
		name    string
		uploads []dto.DocumentUpload
		wantErr bool
	}{
		{"valid batch", []dto.DocumentUpload{
			{Filename: "cert.pdf", SizeBytes: 512, Content: []byte("x")},
			{Filename: "Resume.DOCX", SizeBytes: 512, Content: []byte("x")},
		}, false},
		{"empty batch", nil, true},
		{"no extension", []dto.DocumentUpload{{Filename: "certificate", SizeBytes: 10, Content: []byte("x")}}, true},
		{"disallowed extension", []dto.DocumentUpload{{Filename: "tool.exe", SizeBytes: 10, Content: []byte("x")}}, true},
		{"empty file", []dto.DocumentUpload{{Filename: "cert.pdf", SizeBytes: 0}}, true},
		{"oversize file", []dto.DocumentUpload{{Filename: "cert.pdf", SizeBytes: 2048, Content: []byte("x")}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Validate(tc.uploads)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStoredNameKeepsExtension(t *testing.T) {
	name := storedName("My Certificate.PDF")
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotContains(t, name, " ")
	assert.NotEqual(t, storedName("a.pdf"), storedName("a.pdf"))
}
