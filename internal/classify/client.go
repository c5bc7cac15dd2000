package classify

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

	"github.com/23Serhii/avesint-platform/internal/platform/observability"
	"github.com/23Serhii/avesint-platform/internal/source"
)

const (
	generatePath    = "/api/generate"
	summaryMaxRunes = 200
	summaryEllipsis = "..."

	defaultType     = "info"
	defaultPriority = "low"
	defaultCategory = "infoop"

	credibilityDefault          = 0.2
	credibilityDefaultEnemyProp = 0.1
)

// ErrGenerateStatus indicates a non-success HTTP status from the inference
// endpoint.
var ErrGenerateStatus = errors.New("inference endpoint unexpected status")

// Result is a classification as handed to the payload builder. Fields the
// model frequently returns in the wrong type (credibility, tags) keep their
// raw JSON value; the builder performs the final coercion. Priority may be
// outside the allowed set for the same reason.
type Result struct {
	Type        string
	Priority    string
	Category    string
	Credibility any
	Summary     string
	EventDate   string
	Tags        any
}

// Client invokes the Ollama generate endpoint and turns the response into a
// fully populated Result. From the caller's perspective it never fails:
// every error path degrades to the deterministic fallback.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func New(baseURL, model string, timeout time.Duration, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Classify normalizes the text, asks the model for a structured
// classification and fills missing fields with their defaults. Transport
// failures, missing JSON delimiters, malformed JSON and non-object results
// all yield Fallback(text, sourceCategory).
func (c *Client) Classify(ctx context.Context, text string, sourceCategory source.Category) Result {
	normalized := NormalizeText(text)

	start := time.Now()

	raw, err := c.generate(ctx, buildPrompt(normalized, sourceCategory))

	observability.LLMRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn().Err(err).Msg("LLM request failed, using fallback")
		observability.ClassifyFallbacks.WithLabelValues("request").Inc()

		return Fallback(text, sourceCategory)
	}

	parsed, ok := extractObject(raw)
	if !ok {
		c.logger.Warn().Msg("LLM response carried no parseable JSON object, using fallback")
		observability.ClassifyFallbacks.WithLabelValues("parse").Inc()

		return Fallback(text, sourceCategory)
	}

	return resultFromParsed(parsed, text, sourceCategory)
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: %d", ErrGenerateStatus, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}

	var decoded generateResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	return strings.TrimSpace(decoded.Response), nil
}

// extractObject takes the substring from the first "{" to the last "}" and
// parses it as a JSON object. The model is expected to embed the object
// anywhere in a larger response blob.
func extractObject(raw string) (map[string]any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")

	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, false
	}

	return parsed, true
}

// resultFromParsed fills every missing field of the parsed object with its
// default. Present-but-invalid priority values pass through unchanged; the
// payload builder coerces them.
func resultFromParsed(parsed map[string]any, text string, sourceCategory source.Category) Result {
	res := Result{
		Type:     stringField(parsed, "type", defaultType),
		Priority: stringField(parsed, "priority", defaultPriority),
		Category: stringField(parsed, "category", defaultCategory),
		Summary:  stringField(parsed, "summary", truncateSummary(text)),
	}

	if v, ok := parsed["credibility"]; ok {
		res.Credibility = v
	} else {
		res.Credibility = DefaultCredibility(sourceCategory)
	}

	if v, ok := parsed["eventDate"].(string); ok {
		res.EventDate = v
	}

	if v, ok := parsed["tags"]; ok && v != nil {
		res.Tags = v
	} else {
		res.Tags = []string{}
	}

	return res
}

func stringField(parsed map[string]any, key, fallback string) string {
	if v, ok := parsed[key].(string); ok && v != "" {
		return v
	}

	return fallback
}

// Fallback is the deterministic classification substituted whenever the
// inference step cannot produce a valid structured result. It is a pure
// function of its arguments.
func Fallback(text string, sourceCategory source.Category) Result {
	return Result{
		Type:        defaultType,
		Priority:    defaultPriority,
		Category:    defaultCategory,
		Credibility: DefaultCredibility(sourceCategory),
		Summary:     truncateSummary(text),
		EventDate:   "",
		Tags:        []string{},
	}
}

// DefaultCredibility is the credibility assigned when the model supplies
// none: lower for enemy propaganda sources.
func DefaultCredibility(sourceCategory source.Category) float64 {
	if sourceCategory == source.CategoryEnemyProp {
		return credibilityDefaultEnemyProp
	}

	return credibilityDefault
}

func truncateSummary(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryMaxRunes {
		return text
	}

	return string(runes[:summaryMaxRunes]) + summaryEllipsis
}

func buildPrompt(text string, sourceCategory source.Category) string {
	return fmt.Sprintf(`Ти OSINT-аналітик.

Джерело має категорію "%s" (official|osint-team|local-news|enemy-prop|unknown).

Поверни СТРОГО один JSON:
{
  "type": "equipment_movement | strike | alert | threat | info | disinfo | other",
  "priority": "low | medium | high | critical",
  "category": "movement | combat | threat | infoop | other",
  "credibility": 0.0,
  "summary": "коротко українською (2-3 речення)",
  "eventDate": null,
  "tags": ["..."]
}

Текст:
%s
`, sourceCategory, text)
}
