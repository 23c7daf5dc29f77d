package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/internal/ports"
	"github.com/bft-labs/batchship/pkg/log"
)

const linesEndpoint = "/v1/ingest/lines"

// batchPayload is the JSON body of one ingest request.
type batchPayload struct {
	BatchID string          `json:"batch_id"`
	Records []domain.Record `json:"records"`
}

// HTTPSink posts batches of records to an ingest service.
type HTTPSink struct {
	client     ports.HTTPClient
	serviceURL string
	authKey    string
	hostname   string
	logger     ports.Logger
}

// NewHTTPSink creates a sink posting to serviceURL + /v1/ingest/lines.
func NewHTTPSink(client ports.HTTPClient, serviceURL, authKey string, logger ports.Logger) *HTTPSink {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPSink{
		client:     client,
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		authKey:    authKey,
		hostname:   hostname(),
		logger:     logger,
	}
}

// Name returns "http".
func (s *HTTPSink) Name() string { return KindHTTP }

// Write posts a single record.
func (s *HTTPSink) Write(ctx context.Context, rec domain.Record) error {
	return s.Flush(ctx, []domain.Record{rec})
}

// Flush posts recs as one request. Any non-2xx response is an error.
// Every attempt carries a fresh batch ID; record IDs stay stable across
// retries so the service can deduplicate.
func (s *HTTPSink) Flush(ctx context.Context, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}

	payload := batchPayload{
		BatchID: uuid.NewString(),
		Records: recs,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serviceURL+linesEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.authKey)
	}
	req.Header.Set("X-Batch-Id", payload.BatchID)
	req.Header.Set("X-Agent-Hostname", s.hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	s.logger.Debug("batch posted",
		log.String("batch_id", payload.BatchID),
		log.Items(len(recs)),
	)
	return nil
}

// Close releases idle connections if the client supports it.
func (s *HTTPSink) Close(ctx context.Context) error {
	if c, ok := s.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
