// internal/store/trace_store.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"stayflow-workers/internal/common/database"
	"stayflow-workers/internal/common/errors"
	"stayflow-workers/internal/common/logger"
	"stayflow-workers/internal/models"
)

// TraceStore persists response traces to an Elasticsearch index so support
// staff can audit what the AI said and why. Writes are best-effort from the
// caller's point of view; this type still reports errors so the caller can
// log them.
type TraceStore struct {
	es     *database.ElasticsearchClient
	index  string
	logger logger.Logger
}

func NewTraceStore(es *database.ElasticsearchClient, index string, log logger.Logger) *TraceStore {
	if index == "" {
		index = "ai-response-traces"
	}
	return &TraceStore{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "trace-store"}),
	}
}

// InsertTrace indexes one trace document and returns its generated id.
func (s *TraceStore) InsertTrace(ctx context.Context, trace *models.ResponseTrace) (string, error) {
	if trace.ID == "" {
		trace.ID = uuid.New().String()
	}

	body, err := json.Marshal(trace)
	if err != nil {
		return "", errors.NewTraceWriteFailedError(err)
	}

	res, err := s.es.Client.Index(
		s.index,
		bytes.NewReader(body),
		s.es.Client.Index.WithDocumentID(trace.ID),
		s.es.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return "", errors.NewTraceWriteFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", errors.NewTraceWriteFailedError(fmt.Errorf("index response: %s", res.Status()))
	}

	s.logger.Debug("trace indexed", map[string]interface{}{
		"traceId":  trace.ID,
		"threadId": trace.ThreadID,
		"provider": trace.Provider,
	})

	return trace.ID, nil
}
