package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayflow-workers/internal/common/database"
	"stayflow-workers/internal/common/errors"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/models"
)

type stubTransport struct {
	status   int
	body     string
	requests []*http.Request
	bodies   []string
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(raw))
	}

	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func newStubTraceStore(t *testing.T, status int, body string) (*TraceStore, *stubTransport) {
	transport := &stubTransport{status: status, body: body}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://elasticsearch:9200"},
		Transport: transport,
	})
	require.NoError(t, err)

	es := &database.ElasticsearchClient{Client: client}
	return NewTraceStore(es, "ai-response-traces", logger.NewTestLogger(t)), transport
}

func sampleTrace() *models.ResponseTrace {
	return &models.ResponseTrace{
		ThreadID:         "thread-1",
		Provider:         "gemini",
		Model:            "gemini-1.5-flash",
		PromptTokens:     100,
		CompletionTokens: 30,
		TotalTokens:      130,
		LatencyMS:        450,
		Confidence:       0.82,
		CreatedAt:        time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertTrace(t *testing.T) {
	store, transport := newStubTraceStore(t, http.StatusCreated, `{"result":"created"}`)

	id, err := store.InsertTrace(context.Background(), sampleTrace())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, transport.requests, 1)
	req := transport.requests[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Contains(t, req.URL.Path, "/ai-response-traces/_doc/"+id)

	var doc models.ResponseTrace
	require.Len(t, transport.bodies, 1)
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &doc))
	assert.Equal(t, "thread-1", doc.ThreadID)
	assert.Equal(t, "gemini", doc.Provider)
	assert.Equal(t, 130, doc.TotalTokens)
	assert.Equal(t, id, doc.ID)
}

func TestInsertTrace_PreservesExistingID(t *testing.T) {
	store, _ := newStubTraceStore(t, http.StatusCreated, `{"result":"created"}`)

	trace := sampleTrace()
	trace.ID = "fixed-id"
	id, err := store.InsertTrace(context.Background(), trace)
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestInsertTrace_IndexError(t *testing.T) {
	store, _ := newStubTraceStore(t, http.StatusServiceUnavailable, `{"error":"unavailable"}`)

	_, err := store.InsertTrace(context.Background(), sampleTrace())
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTraceWriteFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}
