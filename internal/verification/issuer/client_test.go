package issuer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vouch/pkg/domain-errors"
)

func testDoc(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestClientIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("parses already_issued answer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/issue", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var doc map[string]json.RawMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
			assert.Contains(t, doc, "name", "client must forward the original document")

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Result{
				Status:   StatusAlreadyIssued,
				WorkerID: "worker-origin",
				IssuedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			})
		}))
		defer srv.Close()

		client := New(Config{BaseURL: srv.URL})
		result, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.NoError(t, err)
		assert.Equal(t, StatusAlreadyIssued, result.Status)
		assert.Equal(t, "worker-origin", result.WorkerID)
	})

	t.Run("parses issued answer from 201", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(Result{Status: StatusIssued, WorkerID: "worker-remote"})
		}))
		defer srv.Close()

		client := New(Config{BaseURL: srv.URL})
		result, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.NoError(t, err)
		assert.Equal(t, StatusIssued, result.Status)
	})

	t.Run("non-2xx answer is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := New(Config{BaseURL: srv.URL})
		_, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("unreachable server is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // shut down before the call

		client := New(Config{BaseURL: srv.URL})
		_, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	t.Run("slow server times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			w.WriteHeader(http.StatusOK)
		}))
		defer func() {
			close(release)
			srv.Close()
		}()

		client := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, HTTPClient: srv.Client()})
		_, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("malformed response body is unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		client := New(Config{BaseURL: srv.URL})
		_, err := client.Issue(ctx, testDoc(t, `{"name":"John"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}
