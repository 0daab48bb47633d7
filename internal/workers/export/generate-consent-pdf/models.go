// internal/workers/export/generate-consent-pdf/models.go
package generateconsentpdf

import (
	"formdesk-workers/internal/models"
)

type Input struct {
	Submission models.Submission  `json:"submission"`
	Client     *models.ClientSite `json:"client,omitempty"`
}

// Output carries the rendered document base64-encoded in the process
// variables; artifact storage is the process model's concern.
type Output struct {
	FileName           string   `json:"fileName"`
	Document           string   `json:"document"`
	Pages              int      `json:"pages"`
	SignatureFallbacks []string `json:"signatureFallbacks,omitempty"`
	ArtifactID         string   `json:"artifactId"`
}
