// internal/export/consent/fields.go

// Package consent carries the fixed field vocabulary of the client onboarding
// consent form and orders submission fields for report rendering.
package consent

import (
	"sort"
	"strings"

	"formdesk-workers/internal/models"
)

// AgreementSentinel is the exact value the consent form stores when a clause
// checkbox was accepted.
const AgreementSentinel = "I have read and agree to the terms above"

// SignatureFieldLabel is the canonical label of the signature image field.
const SignatureFieldLabel = "Signature"

// CanonicalFieldOrder is the report order of the consent form's known fields,
// fixed by the form's published wording. Fields not listed here still render,
// appended after all known fields in their original submission order.
var CanonicalFieldOrder = []string{
	"Company Name",
	"Business Type",
	"Primary Contact Name",
	"Primary Contact Email",
	"Primary Contact Phone",
	"Preferred Contact Method",
	"Street Address",
	"Address Line 2",
	"City",
	"State / Province",
	"Postal Code",
	"Country",
	"Accounting Contact Name",
	"Accounting Contact Email",
	"Accounting Contact Phone",
	"Billing Address Same As Above",
	"Payment Terms",
	"Vendor Billing",
	"Production Costs",
	"Sales Tax",
	"Overdue Invoices",
	"AI Use",
	"Termination",
	"Signature Date",
	SignatureFieldLabel,
}

var canonicalRank = func() map[string]int {
	m := make(map[string]int, len(CanonicalFieldOrder))
	for i, label := range CanonicalFieldOrder {
		m[label] = i
	}
	return m
}()

// OrderFields sorts a consent submission's fields by the canonical priority
// list. Unknown labels sort after every known label, ties broken by original
// insertion order so new plugin fields render deterministically.
func OrderFields(data models.SubmissionData) models.SubmissionData {
	out := make(models.SubmissionData, len(data))
	copy(out, data)

	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Label) < rank(out[j].Label)
	})
	return out
}

func rank(label string) int {
	if r, ok := canonicalRank[label]; ok {
		return r
	}
	return len(CanonicalFieldOrder)
}

// CompanyName extracts the company name from the first field whose label
// contains "company name", case-insensitively. It defaults to "Unknown" so
// report file naming never fails on a drifted form.
func CompanyName(data models.SubmissionData) string {
	for _, f := range data {
		if strings.Contains(strings.ToLower(f.Label), "company name") {
			if f.Value != nil && strings.TrimSpace(*f.Value) != "" {
				return strings.TrimSpace(*f.Value)
			}
		}
	}
	return "Unknown"
}
