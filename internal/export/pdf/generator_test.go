// internal/export/pdf/generator_test.go
package pdf

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/export/consent"
	"formdesk-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	data  map[string][]byte
	err   error
	calls []string
}

func (s *stubFetcher) FetchSignature(_ context.Context, _ string, filename string) ([]byte, error) {
	s.calls = append(s.calls, filename)
	if s.err != nil {
		return nil, s.err
	}
	return s.data[filename], nil
}

func strPtr(s string) *string { return &s }

func consentSubmission(fields ...models.Field) models.Submission {
	data := models.SubmissionData{
		{Label: "Company Name", Value: strPtr("Acme Corp")},
	}
	data = append(data, fields...)
	return models.Submission{
		ID:          "1",
		FormID:      "consent",
		ClientID:    "c-1",
		SubmittedAt: time.Date(2024, time.March, 10, 14, 30, 0, 0, time.Local),
		Data:        data,
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestGenerate_FileNameFromCompanyName(t *testing.T) {
	gen := NewGenerator(&stubFetcher{}, logger.NewNoOpLogger())

	report, err := gen.Generate(context.Background(), consentSubmission(), nil)
	require.NoError(t, err)
	assert.Equal(t, "consent-form-Acme-Corp.pdf", report.FileName)
	assert.NotEmpty(t, report.Data)
	assert.Equal(t, 1, report.Pages)
}

func TestGenerate_UnknownCompanyName(t *testing.T) {
	gen := NewGenerator(&stubFetcher{}, logger.NewNoOpLogger())

	sub := consentSubmission()
	sub.Data = models.SubmissionData{{Label: "City", Value: strPtr("Omaha")}}

	report, err := gen.Generate(context.Background(), sub, nil)
	require.NoError(t, err)
	assert.Equal(t, "consent-form-Unknown.pdf", report.FileName)
}

func TestGenerate_SignatureFallsBackWithoutSiteURL(t *testing.T) {
	fetcher := &stubFetcher{}
	gen := NewGenerator(fetcher, logger.NewNoOpLogger())

	sub := consentSubmission(models.Field{Label: consent.SignatureFieldLabel, Value: strPtr("sig.png")})

	report, err := gen.Generate(context.Background(), sub, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig.png"}, report.SignatureFallbacks)
	assert.Empty(t, fetcher.calls, "no fetch should be attempted without a site url")
}

func TestGenerate_SignatureFallsBackOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	gen := NewGenerator(fetcher, logger.NewNoOpLogger())

	sub := consentSubmission(models.Field{Label: consent.SignatureFieldLabel, Value: strPtr("sig.png")})
	site := &models.ClientSite{ID: "c-1", Name: "Acme", WordPressURL: "https://acme.example"}

	report, err := gen.Generate(context.Background(), sub, site)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig.png"}, report.SignatureFallbacks)
	assert.Equal(t, []string{"sig.png"}, fetcher.calls)
}

func TestGenerate_SignatureEmbedded(t *testing.T) {
	fetcher := &stubFetcher{data: map[string][]byte{"sig.png": testPNG(t)}}
	gen := NewGenerator(fetcher, logger.NewNoOpLogger())

	sub := consentSubmission(models.Field{Label: consent.SignatureFieldLabel, Value: strPtr("sig.png")})
	site := &models.ClientSite{ID: "c-1", Name: "Acme", WordPressURL: "https://acme.example"}

	report, err := gen.Generate(context.Background(), sub, site)
	require.NoError(t, err)
	assert.Empty(t, report.SignatureFallbacks)
	assert.Equal(t, []string{"sig.png"}, fetcher.calls)
}

func TestGenerate_CorruptImageFallsBack(t *testing.T) {
	fetcher := &stubFetcher{data: map[string][]byte{"sig.png": []byte("not a png")}}
	gen := NewGenerator(fetcher, logger.NewNoOpLogger())

	sub := consentSubmission(models.Field{Label: consent.SignatureFieldLabel, Value: strPtr("sig.png")})
	site := &models.ClientSite{ID: "c-1", Name: "Acme", WordPressURL: "https://acme.example"}

	report, err := gen.Generate(context.Background(), sub, site)
	require.NoError(t, err)
	assert.Equal(t, []string{"sig.png"}, report.SignatureFallbacks)
	assert.NotEmpty(t, report.Data)
}

func TestGenerate_LongContentPaginates(t *testing.T) {
	gen := NewGenerator(&stubFetcher{}, logger.NewNoOpLogger())

	long := strings.Repeat("All invoices are payable within thirty days of receipt. ", 20)
	sub := consentSubmission()
	for _, label := range consent.CanonicalFieldOrder {
		if !sub.Data.Has(label) {
			sub.Data = append(sub.Data, models.Field{Label: label, Value: strPtr(long)})
		}
	}

	report, err := gen.Generate(context.Background(), sub, nil)
	require.NoError(t, err)
	assert.Greater(t, report.Pages, 1)
}

func TestIsSignatureFilename(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"sig.png", true},
		{"sig.JPG", true},
		{"scan.jpeg", true},
		{"anim.gif", true},
		{"https://cdn.example/sig.png", false},
		{"document.pdf", false},
		{"plain text answer", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isSignatureFilename(tc.value), tc.value)
	}
}
