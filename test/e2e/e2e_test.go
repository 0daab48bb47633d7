// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formdesk-workers/internal/common/database"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/export/pdf"
	"formdesk-workers/internal/models"
	"formdesk-workers/internal/syncstate"
	"formdesk-workers/internal/wordpress"

	exportsubmissionscsv "formdesk-workers/internal/workers/export/export-submissions-csv"
	generateconsentpdf "formdesk-workers/internal/workers/export/generate-consent-pdf"
	fetchsubmissions "formdesk-workers/internal/workers/submission/fetch-submissions"
	syncclient "formdesk-workers/internal/workers/sync/sync-client"
)

// The e2e suite runs the whole export pipeline against an in-process
// WordPress stand-in and miniredis: fetch + schema inference + date filter,
// then CSV and PDF export, then a sync round-trip. Nothing here needs a
// running broker; the handlers are driven through Execute directly.

func testSignaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, 1, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newWordPressServer serves the three endpoints the pipeline touches.
func newWordPressServer(t *testing.T, submissionsJSON string, signature []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/formdesk/v1/forms/consent-7/submissions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, submissionsJSON)
	})
	mux.HandleFunc("/wp-json/formdesk/v1/sync", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"synced": 4, "skipped": 1}`)
	})
	mux.HandleFunc("/wp-content/uploads/formdesk/signatures/sig-jane.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(signature)
	})
	return httptest.NewServer(mux)
}

const consentSubmissionsJSON = `[
	{
		"id": 101,
		"formId": "consent-7",
		"clientId": "acme",
		"submittedAt": "2026-03-02 10:15:00",
		"submissionData": {
			"Signature": "sig-jane.png",
			"Company Name": "Acme Media",
			"Terms and Conditions": "I have read and agree to the terms above",
			"Email": "jane@acme.example"
		}
	},
	{
		"id": "102",
		"formId": "consent-7",
		"clientId": "acme",
		"submittedAt": "2026-06-14T09:30:00Z",
		"submissionData": {
			"Company Name": "Bolt \"B\" Ltd",
			"Email": null,
			"Phone Number": "555-0102"
		}
	}
]`

func TestPipeline_FetchToCSV(t *testing.T) {
	sig := testSignaturePNG(t)
	srv := newWordPressServer(t, consentSubmissionsJSON, sig)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	fetch := fetchsubmissions.NewHandler(fetchsubmissions.DefaultConfig(), log, wp, cache)
	fetched, err := fetch.Execute(context.Background(), &fetchsubmissions.Input{
		FormID:   "consent-7",
		FormName: "Consent Form",
		ClientID: "acme",
		SiteURL:  srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fetched.TotalCount)
	assert.Equal(t, 2, fetched.FilteredCount)
	assert.False(t, fetched.FromCache)

	// Snapshot was cached for the next poll.
	assert.True(t, mr.Exists("subs:consent-7"))

	csvHandler := exportsubmissionscsv.NewHandler(exportsubmissionscsv.DefaultConfig(), log, nil)
	exported, err := csvHandler.Execute(context.Background(), &exportsubmissionscsv.Input{
		FormName:        "Consent Form",
		Submissions:     fetched.Submissions,
		HasCompoundName: fetched.HasCompoundName,
		DataKeys:        fetched.DataKeys,
	})
	require.NoError(t, err)
	require.True(t, exported.Exported)
	assert.Equal(t, "consent-form.csv", exported.FileName)
	assert.Equal(t, 2, exported.RowCount)
	assert.NotEmpty(t, exported.ArtifactID)

	lines := strings.Split(exported.Content, "\n")
	require.Len(t, lines, 3)
	// Union schema across both submissions, first-seen order, Submitted last.
	assert.Equal(t, `"Signature","Company Name","Terms and Conditions","Email","Phone Number","Submitted"`, lines[0])
	assert.Contains(t, lines[1], `"Acme Media"`)
	assert.Contains(t, lines[2], `"Bolt ""B"" Ltd"`)
	// Null and absent fields both render as empty cells.
	assert.Contains(t, lines[2], `"",`)
}

func TestPipeline_DateWindowFiltersButSchemaStaysFull(t *testing.T) {
	srv := newWordPressServer(t, consentSubmissionsJSON, nil)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	fetch := fetchsubmissions.NewHandler(fetchsubmissions.DefaultConfig(), log, wp, cache)
	out, err := fetch.Execute(context.Background(), &fetchsubmissions.Input{
		FormID:    "consent-7",
		ClientID:  "acme",
		SiteURL:   srv.URL,
		StartDate: "2026-06-01",
		EndDate:   "2026-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.TotalCount)
	require.Equal(t, 1, out.FilteredCount)
	assert.Equal(t, "102", out.Submissions[0].ID)
	// The schema still covers fields only the filtered-out submission had.
	assert.Contains(t, out.DataKeys, "Signature")
	assert.Contains(t, out.DataKeys, "Terms and Conditions")
}

func TestPipeline_ConsentPDFEmbedsFetchedSignature(t *testing.T) {
	sig := testSignaturePNG(t)
	srv := newWordPressServer(t, consentSubmissionsJSON, sig)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	fetch := fetchsubmissions.NewHandler(fetchsubmissions.DefaultConfig(), log, wp, cache)
	fetched, err := fetch.Execute(context.Background(), &fetchsubmissions.Input{
		FormID:   "consent-7",
		ClientID: "acme",
		SiteURL:  srv.URL,
	})
	require.NoError(t, err)
	require.NotEmpty(t, fetched.Submissions)

	pdfHandler := generateconsentpdf.NewHandler(
		generateconsentpdf.DefaultConfig(), log, pdf.NewGenerator(wp, log))
	out, err := pdfHandler.Execute(context.Background(), &generateconsentpdf.Input{
		Submission: fetched.Submissions[0],
		Client:     &models.ClientSite{ID: "acme", Name: "Acme Media", WordPressURL: srv.URL},
	})
	require.NoError(t, err)
	assert.Equal(t, "consent-form-Acme-Media.pdf", out.FileName)
	assert.Empty(t, out.SignatureFallbacks)

	doc, err := base64.StdEncoding.DecodeString(out.Document)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")))
}

func TestPipeline_ConsentPDFFallsBackWithoutSiteURL(t *testing.T) {
	srv := newWordPressServer(t, consentSubmissionsJSON, nil)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	fetch := fetchsubmissions.NewHandler(fetchsubmissions.DefaultConfig(), log, wp, cache)
	fetched, err := fetch.Execute(context.Background(), &fetchsubmissions.Input{
		FormID:   "consent-7",
		ClientID: "acme",
		SiteURL:  srv.URL,
	})
	require.NoError(t, err)

	pdfHandler := generateconsentpdf.NewHandler(
		generateconsentpdf.DefaultConfig(), log, pdf.NewGenerator(wp, log))
	out, err := pdfHandler.Execute(context.Background(), &generateconsentpdf.Input{
		Submission: fetched.Submissions[0],
		Client:     nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sig-jane.png"}, out.SignatureFallbacks)
}

func TestPipeline_SyncRoundTripRecordsStatus(t *testing.T) {
	srv := newWordPressServer(t, consentSubmissionsJSON, nil)
	defer srv.Close()

	mr := miniredis.RunT(t)
	rdb := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	reducer := syncstate.NewReducer(5*time.Second, rdb, log)
	defer reducer.Stop()

	h := syncclient.NewHandler(syncclient.DefaultConfig(), log, wp, reducer, nil)
	out, err := h.Execute(context.Background(), &syncclient.Input{
		ClientID:   "acme",
		ClientName: "Acme Media",
		SiteURL:    srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Synced)
	assert.Equal(t, 1, out.Skipped)
	assert.False(t, out.NoticeSent)

	status := reducer.Current()
	require.NotNil(t, status)
	assert.Equal(t, "acme", status.ClientID)
	assert.Equal(t, 4, status.Synced)

	mirrored, err := mr.Get("sync:status:acme")
	require.NoError(t, err)
	var decoded syncstate.Status
	require.NoError(t, json.Unmarshal([]byte(mirrored), &decoded))
	assert.Equal(t, 1, decoded.Skipped)
}

func TestPipeline_SecondFetchServedFromCache(t *testing.T) {
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/formdesk/v1/forms/consent-7/submissions", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, consentSubmissionsJSON)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	log := logger.NewTestLogger(t)

	wp, err := wordpress.NewClient(10*time.Second, 5*time.Second, log)
	require.NoError(t, err)

	fetch := fetchsubmissions.NewHandler(fetchsubmissions.DefaultConfig(), log, wp, cache)
	input := &fetchsubmissions.Input{FormID: "consent-7", ClientID: "acme", SiteURL: srv.URL}

	first, err := fetch.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := fetch.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, 1, hits)

	// Field order survives the cache round-trip.
	assert.Equal(t, first.DataKeys, second.DataKeys)
	assert.Equal(t, "Signature", second.Submissions[0].Data[0].Label)
}
