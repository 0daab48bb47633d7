// internal/models/submission.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Form plugin identifiers seen across client sites. Plugins not listed here
// are still accepted; the identifier is only used for labeling and routing.
const (
	PluginGravityForms = "gravity-forms"
	PluginElementor    = "elementor"
	PluginCF7          = "cf7"
)

// Form describes one form on a client site.
type Form struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Plugin string `json:"plugin"`
}

// Field is a single label/value pair in a submission payload. Value is nil
// when the plugin sent an explicit null for the field.
type Field struct {
	Label string
	Value *string
}

// SubmissionData is the schema-less payload of one submission. Plugins emit
// fields in form-layout order and that order is meaningful, so the payload is
// kept as an explicit ordered association rather than a map.
type SubmissionData []Field

// Submission is one user-submitted instance of a form.
type Submission struct {
	ID          string         `json:"id"`
	FormID      string         `json:"formId"`
	ClientID    string         `json:"clientId"`
	SubmittedAt time.Time      `json:"submittedAt"`
	Data        SubmissionData `json:"submissionData"`
}

// Get returns the value stored under label. A nil (null) value is reported
// as present with an empty string.
func (d SubmissionData) Get(label string) (string, bool) {
	for _, f := range d {
		if f.Label == label {
			if f.Value == nil {
				return "", true
			}
			return *f.Value, true
		}
	}
	return "", false
}

// Has reports whether the payload carries the given label at all.
func (d SubmissionData) Has(label string) bool {
	_, ok := d.Get(label)
	return ok
}

// UnmarshalJSON decodes a JSON object while preserving its key order.
// Anything that is not an object (plugin bugs, truncated responses) is
// coerced to an empty payload rather than failing the whole decode.
func (d *SubmissionData) UnmarshalJSON(data []byte) error {
	*d = SubmissionData{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode submission data key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode submission data: non-string key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode submission data value for %q: %w", key, err)
		}

		*d = append(*d, Field{Label: key, Value: coerceValue(raw)})
	}

	return nil
}

// MarshalJSON writes the payload back as an object in field order, so a
// cached snapshot round-trips with the same column derivation.
func (d SubmissionData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if f.Value == nil {
			buf.WriteString("null")
		} else {
			val, err := json.Marshal(*f.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// coerceValue stringifies whatever the plugin sent. Values are specified as
// string-or-null, but some plugins emit numbers and booleans for checkbox
// and quantity fields.
func coerceValue(raw json.RawMessage) *string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return &s
	}

	text := string(trimmed)
	return &text
}
