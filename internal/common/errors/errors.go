// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSubmissionFetchFailed ErrorCode = "SUBMISSION_FETCH_FAILED"
	ErrCodeSubmissionParseFailed ErrorCode = "SUBMISSION_PARSE_FAILED"
	ErrCodeCacheReadFailed       ErrorCode = "CACHE_READ_FAILED"

	ErrCodeEmptyExportSet  ErrorCode = "EMPTY_EXPORT_SET"
	ErrCodeCSVRenderFailed ErrorCode = "CSV_RENDER_FAILED"
	ErrCodePDFRenderFailed ErrorCode = "PDF_RENDER_FAILED"

	ErrCodeSignatureFetchFailed  ErrorCode = "SIGNATURE_FETCH_FAILED"
	ErrCodeReportDeliveryFailed  ErrorCode = "REPORT_DELIVERY_FAILED"
	ErrCodeSyncFailed            ErrorCode = "SYNC_FAILED"
	ErrCodeSyncNoticeFailed      ErrorCode = "SYNC_NOTICE_FAILED"
	ErrCodeClientSiteUnavailable ErrorCode = "CLIENT_SITE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewSubmissionFetchFailedError creates a retryable submission fetch error.
// The message is surfaced to the operator; a failed fetch affects what they
// see as current data and is never swallowed.
func NewSubmissionFetchFailedError(siteURL string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFetchFailed,
		Message:   "Could not fetch submissions from client site",
		Details:   fmt.Sprintf("site: %s, error: %s", siteURL, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionParseFailedError creates a non-retryable payload parse error.
func NewSubmissionParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionParseFailed,
		Message:   "Submission payload could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheReadFailedError creates a retryable cache error.
func NewCacheReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheReadFailed,
		Message:   "Submission snapshot cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyExportSetError creates a non-retryable notice for an empty filtered
// set. Callers surface "nothing to export" rather than producing a file.
func NewEmptyExportSetError(formName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyExportSet,
		Message:   "No submissions in the selected range",
		Details:   fmt.Sprintf("form: %s", formName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCSVRenderFailedError creates a non-retryable CSV render error.
func NewCSVRenderFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCSVRenderFailed,
		Message:   "CSV rendering failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPDFRenderFailedError creates a non-retryable PDF render error. Missing
// images and fields never produce this; only the document engine itself can.
func NewPDFRenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePDFRenderFailed,
		Message:   "Consent report rendering failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSignatureFetchFailedError records a per-field image fetch failure. It is
// informational: generation substitutes a placeholder and proceeds.
func NewSignatureFetchFailedError(filename string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignatureFetchFailed,
		Message:   "Signature image unreachable",
		Details:   fmt.Sprintf("file: %s, error: %s", filename, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportDeliveryFailedError creates a retryable delivery error.
func NewReportDeliveryFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportDeliveryFailed,
		Message:   "Report delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSyncFailedError wraps the sync collaborator's failure with its
// human-readable message preserved for display.
func NewSyncFailedError(clientID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSyncFailed,
		Message:   err.Error(),
		Details:   fmt.Sprintf("client: %s", clientID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClientSiteUnavailableError creates a retryable site connectivity error.
func NewClientSiteUnavailableError(siteURL string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClientSiteUnavailable,
		Message:   "Client site unreachable",
		Details:   fmt.Sprintf("site: %s, error: %s", siteURL, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The two
// vocabularies are kept identical so process models read naturally.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeSubmissionFetchFailed: "SUBMISSION_FETCH_FAILED",
	ErrCodeSubmissionParseFailed: "SUBMISSION_PARSE_FAILED",
	ErrCodeCacheReadFailed:       "CACHE_READ_FAILED",
	ErrCodeEmptyExportSet:        "EMPTY_EXPORT_SET",
	ErrCodeCSVRenderFailed:       "CSV_RENDER_FAILED",
	ErrCodePDFRenderFailed:       "PDF_RENDER_FAILED",
	ErrCodeSignatureFetchFailed:  "SIGNATURE_FETCH_FAILED",
	ErrCodeReportDeliveryFailed:  "REPORT_DELIVERY_FAILED",
	ErrCodeSyncFailed:            "SYNC_FAILED",
	ErrCodeSyncNoticeFailed:      "SYNC_NOTICE_FAILED",
	ErrCodeClientSiteUnavailable: "CLIENT_SITE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSubmissionFetchFailed,
		ErrCodeCacheReadFailed,
		ErrCodeReportDeliveryFailed,
		ErrCodeClientSiteUnavailable:
		return 3 // Retryable technical errors

	case ErrCodeSyncFailed:
		// A failed sync is re-triggered by the operator, not the engine;
		// one automatic retry covers transient site hiccups.
		return 1

	default:
		return 0 // Business notices and render errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "CACHE"):
		return "SUBMISSIONS"
	case strings.Contains(codeStr, "CSV") || strings.Contains(codeStr, "PDF") || strings.Contains(codeStr, "EXPORT"):
		return "EXPORT"
	case strings.Contains(codeStr, "SIGNATURE"):
		return "SIGNATURE"
	case strings.Contains(codeStr, "SYNC"):
		return "SYNC"
	case strings.Contains(codeStr, "DELIVERY"):
		return "DELIVERY"
	default:
		return "OTHER"
	}
}
