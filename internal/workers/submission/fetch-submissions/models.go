// internal/workers/submission/fetch-submissions/models.go
package fetchsubmissions

import (
	"formdesk-workers/internal/models"
)

type Input struct {
	FormID    string `json:"formId"`
	FormName  string `json:"formName,omitempty"`
	ClientID  string `json:"clientId"`
	SiteURL   string `json:"siteUrl"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Output carries the filtered submission sequence plus the schema inferred
// from the full fetched set, so downstream export tasks render the same
// columns the review table showed.
type Output struct {
	Submissions     []models.Submission `json:"submissions"`
	TotalCount      int                 `json:"totalCount"`
	FilteredCount   int                 `json:"filteredCount"`
	HasCompoundName bool                `json:"hasCompoundName"`
	DataKeys        []string            `json:"dataKeys"`
	Columns         []string            `json:"columns"`
	FromCache       bool                `json:"fromCache"`
}
