// internal/export/csvexport/exporter.go

// Package csvexport renders a filtered submission sequence to CSV text.
package csvexport

import (
	"strings"

	"formdesk-workers/internal/export/schema"
	"formdesk-workers/internal/models"
)

// TimestampLayout is the locale-independent, human-readable format for the
// Submitted column.
const TimestampLayout = "Jan 2, 2006 3:04 PM"

// DefaultFileStem names the artifact when the owning form has no name.
const DefaultFileStem = "submissions"

// Export is a rendered CSV artifact.
type Export struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
	Rows     int    `json:"rows"`
}

// Render serializes the submissions using the inferred schema. The second
// return value is false when there is nothing to export; callers surface a
// no-op notice instead of emitting an empty file.
//
// Every field is double-quoted unconditionally, with embedded quotes doubled.
// The schema's trailing action column is display-only and excluded here.
func Render(subs []models.Submission, inf schema.Inference, stem string) (*Export, bool) {
	if len(subs) == 0 {
		return nil, false
	}
	if stem == "" {
		stem = DefaultFileStem
	}

	header := []string{}
	if inf.HasCompoundName {
		header = append(header, schema.ColumnFirstName, schema.ColumnLastName)
	}
	header = append(header, inf.DataKeys...)
	header = append(header, schema.ColumnSubmitted)

	lines := make([]string, 0, len(subs)+1)
	lines = append(lines, row(header))

	for _, sub := range subs {
		fields := make([]string, 0, len(header))
		if inf.HasCompoundName {
			full, _ := sub.Data.Get(schema.CompoundNameKey)
			name := schema.SplitName(full)
			fields = append(fields, name.First, name.Last)
		}
		for _, key := range inf.DataKeys {
			val, _ := sub.Data.Get(key)
			fields = append(fields, val)
		}
		fields = append(fields, sub.SubmittedAt.Format(TimestampLayout))
		lines = append(lines, row(fields))
	}

	return &Export{
		FileName: stem + ".csv",
		Content:  strings.Join(lines, "\n"),
		Rows:     len(subs),
	}, true
}

func row(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
