package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/AtRiskMedia/beacon-go/internal/domain/events"
)

// EventsPath is the collection endpoint path appended to the configured
// base URL.
const EventsPath = "/api/v1/events"

const requestTimeout = 10 * time.Second

// HTTPSink POSTs one JSON body per event with the project id as a query
// parameter and the project token as a bearer credential.
type HTTPSink struct {
	client    *http.Client
	target    string
	projectID string
	token     string
}

// NewHTTPSink builds a sink for the given base endpoint. The client prefers
// HTTP/2 over TLS and falls back to HTTP/1.1 for plain-text endpoints such
// as a local collector.
func NewHTTPSink(endpoint, projectID, token string) (*HTTPSink, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: parse endpoint: %w", err)
	}
	base.Path = EventsPath
	base.RawQuery = url.Values{"projectId": {projectID}}.Encode()

	tr := &http.Transport{
		MaxIdleConns:        4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, fmt.Errorf("transport: configure http2: %w", err)
	}

	return &HTTPSink{
		client:    &http.Client{Transport: tr, Timeout: requestTimeout},
		target:    base.String(),
		projectID: projectID,
		token:     token,
	}, nil
}

// Send serializes and dispatches one event. A non-2xx status is an error so
// the dispatcher can log it; the response body is drained either way to keep
// the connection reusable.
func (s *HTTPSink) Send(ctx context.Context, ev events.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("transport: marshal event %q: %w", ev.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("transport: send event %q: %w", ev.Name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("transport: event %q rejected with status %d", ev.Name, resp.StatusCode)
	}
	return nil
}

func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
