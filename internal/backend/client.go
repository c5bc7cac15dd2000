package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/23Serhii/avesint-platform/internal/source"
)

const (
	apiKeyHeader     = "X-Internal-Api-Key"
	sourcesPath      = "/osint/sources"
	ingestPath       = "/osint/ingest"
	errBodyLogLimit  = 400
	contentTypeJSON  = "application/json"
	headerContent    = "Content-Type"
	queryParamActive = "isActive"
)

// ErrUnexpectedStatus indicates a non-success HTTP status from the backend.
var ErrUnexpectedStatus = errors.New("backend unexpected status")

// ErrUnexpectedFormat indicates a response body that does not match the
// documented shape.
var ErrUnexpectedFormat = errors.New("unexpected backend response format")

// Client talks to the avesint backend: the descriptor endpoint listing
// active OSINT sources and the ingestion endpoint accepting payloads.
type Client struct {
	baseURL       string
	apiKey        string
	sourcesClient *http.Client
	ingestClient  *http.Client
	logger        *zerolog.Logger
}

func New(rawBaseURL, apiKey string, sourcesTimeout, ingestTimeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:       normalizeBaseURL(rawBaseURL),
		apiKey:        apiKey,
		sourcesClient: &http.Client{Timeout: sourcesTimeout},
		ingestClient:  &http.Client{Timeout: ingestTimeout},
		logger:        logger,
	}
}

// normalizeBaseURL trims the configured base URL and ensures it ends with
// the /api prefix the backend routes everything under.
func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if strings.HasSuffix(base, "/api") {
		return base
	}

	return base + "/api"
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(headerContent, contentTypeJSON)

	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
}

type sourceDTO struct {
	Handle     string `json:"handle"`
	ExternalID string `json:"externalId"`
	Category   string `json:"category"`
}

// ActiveSources fetches all active sources from GET /osint/sources. Entries
// without a usable handle (directly or recoverable from the external id) are
// skipped; a missing external id defaults to telegram:<handle>.
func (c *Client) ActiveSources(ctx context.Context) ([]source.Source, error) {
	url := c.baseURL + sourcesPath + "?" + queryParamActive + "=true"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create sources request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.sourcesClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sources: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sources response: %w", err)
	}

	var dtos []sourceDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedFormat, previewBody(body))
	}

	out := make([]source.Source, 0, len(dtos))

	for _, dto := range dtos {
		handle := source.NormalizeHandle(dto.Handle)
		externalID := strings.TrimSpace(dto.ExternalID)

		if handle == "" && externalID != "" {
			handle = source.HandleFromExternalID(externalID)
		}

		if handle == "" {
			continue
		}

		if externalID == "" {
			externalID = "telegram:" + handle
		}

		out = append(out, source.Source{
			Handle:     handle,
			ExternalID: externalID,
			Category:   strings.TrimSpace(dto.Category),
		})
	}

	return out, nil
}

// Ingest delivers one payload to POST /osint/ingest. A status below 400 is
// logged as success; 400 and above is logged as an error together with the
// response body. There is no retry and no local persistence: a failed
// submission is lost.
func (c *Client) Ingest(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal ingest payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ingestPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create ingest request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.ingestClient.Do(req)
	if err != nil {
		return fmt.Errorf("ingest request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusBadRequest {
		c.logger.Info().Str("item", p.Item.ExternalID).Msg("Sent OSINT item ok")

		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	c.logger.Error().
		Int("status", resp.StatusCode).
		Str("item", p.Item.ExternalID).
		Str("body", previewBody(respBody)).
		Msg("Backend rejected OSINT item")

	return nil
}

func previewBody(body []byte) string {
	s := string(body)
	if len(s) > errBodyLogLimit {
		return s[:errBodyLogLimit]
	}

	return s
}
