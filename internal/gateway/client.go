package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"surveyassist/internal/config"
	"surveyassist/internal/model"
)

var tracer = otel.Tracer("surveyassist.gateway")

const maxResponseBytes = 1 << 20

// fieldAliases maps response keys to the field names the classify endpoint expects
var fieldAliases = map[string]string{
	"organisation_activity": "org_description",
}

// Client calls the survey assist classification API over HTTP
type Client struct {
	config  *config.GatewayConfig
	client  *http.Client
	limiter *rate.Limiter
	tokens  TokenSource
}

// NewClient creates an HTTP classification client
func NewClient(cfg *config.GatewayConfig) *Client {
	c := &Client{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		tokens: tokenSourceFor(cfg),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// New returns the HTTP client when the gateway is configured, the mock otherwise
func New(cfg *config.GatewayConfig) Classifier {
	if !cfg.IsEnabled() {
		return NewMock()
	}
	return NewClient(cfg)
}

// Lookup classifies the given text fields for kind
func (c *Client) Lookup(ctx context.Context, kind string, fields []model.InputField) (*model.ClassificationResult, error) {
	ctx, span := tracer.Start(ctx, "gateway.Lookup",
		trace.WithAttributes(
			attribute.String("classification.kind", kind),
			attribute.Int("classification.fields", len(fields)),
		),
	)
	defer span.End()

	result, err := c.classify(ctx, kind, fields)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("classification.ambiguous", result.Ambiguous),
		attribute.Int("classification.candidates", len(result.Candidates)),
	)
	return result, nil
}

func (c *Client) classify(ctx context.Context, kind string, fields []model.InputField) (*model.ClassificationResult, error) {
	reqBody := map[string]string{
		"llm":  c.config.LLM,
		"type": kind,
	}
	for _, f := range fields {
		name := f.Field
		if alias, ok := fieldAliases[name]; ok {
			name = alias
		}
		if prev, ok := reqBody[name]; ok && prev != "" {
			reqBody[name] = prev + " " + f.Value
			continue
		}
		reqBody[name] = f.Value
	}

	body, err := c.do(ctx, http.MethodPost, "/survey-assist/classify", reqBody)
	if err != nil {
		return nil, err
	}

	var resp classifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &GatewayError{Kind: ErrInvalidResponse, Err: fmt.Errorf("failed to decode classify response: %w", err)}
	}
	return mapClassifyResponse(kind, &resp)
}

// LookupDescription performs a direct code lookup on a description
func (c *Client) LookupDescription(ctx context.Context, kind, description string) (*LookupResult, error) {
	ctx, span := tracer.Start(ctx, "gateway.LookupDescription",
		trace.WithAttributes(attribute.String("classification.kind", kind)),
	)
	defer span.End()

	path := fmt.Sprintf("/survey-assist/%s-lookup?description=%s&similarity=true", kind, url.QueryEscape(description))
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(KindOf(err)))
		return nil, err
	}

	var result LookupResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &GatewayError{Kind: ErrInvalidResponse, Err: fmt.Errorf("failed to decode lookup response: %w", err)}
	}
	return &result, nil
}

// do performs a single request; it never retries
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &GatewayError{Kind: ErrTimeout, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	var reader io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.Endpoint(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, &GatewayError{Kind: ErrUnavailable, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			Kind: ErrUnavailable,
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}

func transportError(err error) *GatewayError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GatewayError{Kind: ErrTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &GatewayError{Kind: ErrTimeout, Err: err}
	}
	return &GatewayError{Kind: ErrUnavailable, Err: err}
}

