// internal/wordpress/client.go
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	httpclient "formdesk-workers/internal/common/http"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

const (
	restBase = "/wp-json/formdesk/v1"

	// SignatureUploadPath is where the site-side plugin stores signature
	// images relative to the WordPress root.
	SignatureUploadPath = "/wp-content/uploads/formdesk/signatures/"
)

// submissionEnvelopeSchema validates the fetch response shape. The payload
// itself is schema-less, so only the envelope is pinned down.
const submissionEnvelopeSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "submittedAt", "submissionData"],
		"properties": {
			"id":          {"type": ["string", "integer"]},
			"formId":      {"type": ["string", "integer"]},
			"clientId":    {"type": ["string", "integer"]},
			"submittedAt": {"type": "string"}
		}
	}
}`

// submittedAtLayouts covers the formats seen across plugins: RFC3339 from
// the REST layer and the MySQL datetime WordPress stores natively.
var submittedAtLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Client talks to the formdesk companion plugin on a client's WordPress
// site. Sites vary per job, so every call takes the site URL explicitly.
type Client struct {
	httpClient      *http.Client
	signatureClient *httpclient.Client
	logger          logger.Logger
	envelopeSchema  *gojsonschema.Schema
}

func NewClient(requestTimeout, signatureTimeout time.Duration, log logger.Logger) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(submissionEnvelopeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile submission envelope schema: %w", err)
	}

	return &Client{
		httpClient:      &http.Client{Timeout: requestTimeout},
		signatureClient: httpclient.NewClient(signatureTimeout),
		logger:          log.WithFields(map[string]interface{}{"component": "wordpress"}),
		envelopeSchema:  schema,
	}, nil
}

// flexibleID accepts both string and numeric identifiers; WordPress emits
// integers natively while some plugins re-expose them as strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode identifier %s: %w", string(data), err)
	}
	*f = flexibleID(n.String())
	return nil
}

type submissionEnvelope struct {
	ID          flexibleID            `json:"id"`
	FormID      flexibleID            `json:"formId"`
	ClientID    flexibleID            `json:"clientId"`
	SubmittedAt string                `json:"submittedAt"`
	Data        models.SubmissionData `json:"submissionData"`
}

// FetchSubmissions returns the ordered submission sequence for one form.
// A response that is not an array of submission objects is treated as an
// empty sequence, not an error, since the plugin's response shape is
// outside this service's control.
func (c *Client) FetchSubmissions(ctx context.Context, siteURL, formID string) ([]models.Submission, error) {
	endpoint := fmt.Sprintf("%s%s/forms/%s/submissions",
		strings.TrimRight(siteURL, "/"), restBase, url.PathEscape(formID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build submissions request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions from %s: %w", siteURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read submissions response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch submissions from %s (status %d): %s",
			siteURL, resp.StatusCode, truncateBody(body))
	}

	result, err := c.envelopeSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil || !result.Valid() {
		c.logger.Warn("submissions response is not a submission array, treating as empty",
			map[string]interface{}{
				"siteUrl": siteURL,
				"formId":  formID,
			})
		return []models.Submission{}, nil
	}

	var envelopes []submissionEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		c.logger.Warn("submissions response failed to decode, treating as empty",
			map[string]interface{}{
				"siteUrl": siteURL,
				"formId":  formID,
				"error":   err.Error(),
			})
		return []models.Submission{}, nil
	}

	submissions := make([]models.Submission, 0, len(envelopes))
	for _, env := range envelopes {
		submissions = append(submissions, models.Submission{
			ID:          string(env.ID),
			FormID:      string(env.FormID),
			ClientID:    string(env.ClientID),
			SubmittedAt: parseSubmittedAt(env.SubmittedAt),
			Data:        env.Data,
		})
	}
	return submissions, nil
}

type syncResponse struct {
	Synced  *int   `json:"synced"`
	Skipped *int   `json:"skipped"`
	Message string `json:"message"`
}

// InvokeSync triggers a synchronization pass on the client's site and
// returns its counts. Missing counts default to zero.
func (c *Client) InvokeSync(ctx context.Context, siteURL, clientID string) (models.SyncResult, error) {
	endpoint := strings.TrimRight(siteURL, "/") + restBase + "/sync"

	payload, err := json.Marshal(map[string]string{"clientId": clientID})
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("sync against %s failed: %w", siteURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("read sync response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp syncResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			return models.SyncResult{}, fmt.Errorf("sync against %s failed: %s", siteURL, errResp.Message)
		}
		return models.SyncResult{}, fmt.Errorf("sync against %s failed (status %d): %s",
			siteURL, resp.StatusCode, truncateBody(body))
	}

	var sr syncResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return models.SyncResult{}, fmt.Errorf("decode sync response from %s: %w", siteURL, err)
	}

	result := models.SyncResult{}
	if sr.Synced != nil {
		result.Synced = *sr.Synced
	}
	if sr.Skipped != nil {
		result.Skipped = *sr.Skipped
	}
	return result, nil
}

// FetchSignature downloads one signature image by its bare filename.
func (c *Client) FetchSignature(ctx context.Context, siteURL, filename string) ([]byte, error) {
	endpoint := strings.TrimRight(siteURL, "/") + SignatureUploadPath + url.PathEscape(filename)

	data, err := c.signatureClient.GetBytes(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch signature %s: %w", filename, err)
	}
	return data, nil
}

// parseSubmittedAt tries the known timestamp layouts. An unparseable
// timestamp becomes the zero time rather than failing the whole fetch.
func parseSubmittedAt(value string) time.Time {
	for _, layout := range submittedAtLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
