// internal/export/schema/schema.go

// Package schema derives a stable, ordered column schema from a sequence of
// schema-less submissions. Field sets vary per form and per plugin, so the
// schema is inferred from the data itself, preserving first-seen field order.
package schema

import (
	"strings"

	"formdesk-workers/internal/models"
)

// CompoundNameKey is the literal field label some plugins use to pack a full
// name into a single field. When present anywhere in the sequence, it is
// split into First Name / Last Name columns instead of rendered raw.
const CompoundNameKey = "Name"

// Column labels added around the inferred data keys.
const (
	ColumnFirstName = "First Name"
	ColumnLastName  = "Last Name"
	ColumnSubmitted = "Submitted"
)

// Inference is the derived table shape for a submission sequence.
type Inference struct {
	HasCompoundName bool     `json:"hasCompoundName"`
	DataKeys        []string `json:"dataKeys"`
	Columns         []string `json:"columns"`
}

// Infer walks the submissions in input order and collects each distinct field
// label the first time it is seen. The trailing empty column label is the
// row-action affordance slot and carries no data.
//
// An empty sequence yields an empty Inference; callers should render no table
// header at all in that case.
func Infer(subs []models.Submission) Inference {
	inf := Inference{DataKeys: []string{}, Columns: []string{}}
	if len(subs) == 0 {
		return inf
	}

	for _, sub := range subs {
		if sub.Data.Has(CompoundNameKey) {
			inf.HasCompoundName = true
			break
		}
	}

	seen := make(map[string]bool)
	for _, sub := range subs {
		for _, f := range sub.Data {
			if inf.HasCompoundName && f.Label == CompoundNameKey {
				continue
			}
			if !seen[f.Label] {
				seen[f.Label] = true
				inf.DataKeys = append(inf.DataKeys, f.Label)
			}
		}
	}

	if inf.HasCompoundName {
		inf.Columns = append(inf.Columns, ColumnFirstName, ColumnLastName)
	}
	inf.Columns = append(inf.Columns, inf.DataKeys...)
	inf.Columns = append(inf.Columns, ColumnSubmitted, "")

	return inf
}

// Name holds the split parts of a compound name field.
type Name struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// SplitName splits a full-name string on runs of whitespace. A single token
// becomes the first name; everything after it is rejoined with single spaces
// as the last name. Every input is valid.
func SplitName(full string) Name {
	tokens := strings.Fields(full)
	switch len(tokens) {
	case 0:
		return Name{}
	case 1:
		return Name{First: tokens[0]}
	default:
		return Name{First: tokens[0], Last: strings.Join(tokens[1:], " ")}
	}
}
