// internal/workers/export/export-submissions-csv/models.go
package exportsubmissionscsv

import (
	"formdesk-workers/internal/models"
)

// Input is normally the fetch-submissions output passed through process
// variables, plus an optional delivery recipient.
type Input struct {
	FormName        string              `json:"formName,omitempty"`
	Submissions     []models.Submission `json:"submissions"`
	HasCompoundName bool                `json:"hasCompoundName"`
	DataKeys        []string            `json:"dataKeys"`
	Recipient       string              `json:"recipient,omitempty"`
}

type Output struct {
	// Exported is false for the empty-set no-op; Notice then carries the
	// user-visible "nothing to export" message.
	Exported   bool   `json:"exported"`
	Notice     string `json:"notice,omitempty"`
	FileName   string `json:"fileName,omitempty"`
	Content    string `json:"content,omitempty"`
	RowCount   int    `json:"rowCount"`
	ArtifactID string `json:"artifactId,omitempty"`
	Delivered  bool   `json:"delivered"`
}
