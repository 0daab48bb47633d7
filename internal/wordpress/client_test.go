// internal/wordpress/client_test.go
package wordpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formdesk-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(5*time.Second, 5*time.Second, logger.NewNoOpLogger())
	require.NoError(t, err)
	return c
}

func TestFetchSubmissions_ParsesOrderedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/formdesk/v1/forms/42/submissions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 7, "formId": "42", "clientId": 3,
			 "submittedAt": "2024-03-10 09:15:00",
			 "submissionData": {"Zeta": "first", "Alpha": "second", "Empty": null}},
			{"id": "8", "formId": 42, "clientId": "3",
			 "submittedAt": "2024-03-11T10:00:00Z",
			 "submissionData": {"Alpha": "third"}}
		]`))
	}))
	defer server.Close()

	client := newTestClient(t)
	subs, err := client.FetchSubmissions(context.Background(), server.URL, "42")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "7", subs[0].ID)
	assert.Equal(t, "42", subs[0].FormID)
	assert.Equal(t, "3", subs[0].ClientID)
	assert.Equal(t, 2024, subs[0].SubmittedAt.Year())
	assert.Equal(t, 9, subs[0].SubmittedAt.Hour())

	require.Len(t, subs[0].Data, 3)
	assert.Equal(t, "Zeta", subs[0].Data[0].Label)
	assert.Equal(t, "Alpha", subs[0].Data[1].Label)
	assert.Nil(t, subs[0].Data[2].Value)

	assert.Equal(t, "8", subs[1].ID)
	assert.Equal(t, time.March, subs[1].SubmittedAt.Month())
}

func TestFetchSubmissions_NonArrayTreatedAsEmpty(t *testing.T) {
	responses := []string{
		`{"error": "not configured"}`,
		`"unexpected"`,
		`[{"no": "required fields"}]`,
	}

	for _, body := range responses {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		client := newTestClient(t)
		subs, err := client.FetchSubmissions(context.Background(), server.URL, "1")
		require.NoError(t, err, "body=%s", body)
		assert.Empty(t, subs, "body=%s", body)

		server.Close()
	}
}

func TestFetchSubmissions_ServerErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t)
	_, err := client.FetchSubmissions(context.Background(), server.URL, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestInvokeSync_ReturnsCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wp-json/formdesk/v1/sync", r.URL.Path)
		w.Write([]byte(`{"synced": 12, "skipped": 3}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	result, err := client.InvokeSync(context.Background(), server.URL, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 12, result.Synced)
	assert.Equal(t, 3, result.Skipped)
}

func TestInvokeSync_MissingCountsDefaultToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"synced": 5}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	result, err := client.InvokeSync(context.Background(), server.URL, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 5, result.Synced)
	assert.Equal(t, 0, result.Skipped)
}

func TestInvokeSync_FailureMessagePreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"message": "site database is locked"}`))
	}))
	defer server.Close()

	client := newTestClient(t)
	_, err := client.InvokeSync(context.Background(), server.URL, "client-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site database is locked")
}

func TestFetchSignature(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/wp-content/uploads/formdesk/signatures/sig-1.png" {
			w.Write(payload)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(t)

	data, err := client.FetchSignature(context.Background(), server.URL, "sig-1.png")
	require.NoError(t, err)
	assert.Equal(t, payload, data)

	_, err = client.FetchSignature(context.Background(), server.URL, "missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
