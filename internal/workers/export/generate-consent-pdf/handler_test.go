// internal/workers/export/generate-consent-pdf/handler_test.go
package generateconsentpdf

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/export/consent"
	"formdesk-workers/internal/export/pdf"
	"formdesk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingFetcher struct{}

func (failingFetcher) FetchSignature(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("unreachable")
}

func strPtr(s string) *string { return &s }

func consentInput() *Input {
	return &Input{
		Submission: models.Submission{
			ID:          "1",
			SubmittedAt: time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local),
			Data: models.SubmissionData{
				{Label: "Company Name", Value: strPtr("Acme Corp")},
				{Label: "Primary Contact Name", Value: strPtr("Jane Public")},
				{Label: consent.SignatureFieldLabel, Value: strPtr("sig.png")},
			},
		},
		Client: &models.ClientSite{ID: "c-1", Name: "Acme", WordPressURL: "https://acme.example"},
	}
}

func TestExecute_ProducesDocument(t *testing.T) {
	generator := pdf.NewGenerator(failingFetcher{}, logger.NewNoOpLogger())
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger(), generator)

	output, err := h.Execute(context.Background(), consentInput())
	require.NoError(t, err)

	assert.Equal(t, "consent-form-Acme-Corp.pdf", output.FileName)
	assert.Equal(t, 1, output.Pages)
	assert.NotEmpty(t, output.ArtifactID)

	// Unreachable signature degrades to a placeholder without failing.
	assert.Equal(t, []string{"sig.png"}, output.SignatureFallbacks)

	data, err := base64.StdEncoding.DecodeString(output.Document)
	require.NoError(t, err)
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExecute_NoClientSiteStillCompletes(t *testing.T) {
	generator := pdf.NewGenerator(failingFetcher{}, logger.NewNoOpLogger())
	h := NewHandler(DefaultConfig(), logger.NewNoOpLogger(), generator)

	input := consentInput()
	input.Client = nil

	output, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig.png"}, output.SignatureFallbacks)
}
