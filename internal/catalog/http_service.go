package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout    = 8 * time.Second
	idempotencyHeader = "Idempotency-Key"
	maxBodyBytes      = 4 << 20
	maxErrorBody      = 256
)

var tracer = otel.Tracer("limitedtees.shop/storefront/internal/catalog")

// HTTPClient matches the subset of http.Client used by HTTPService.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// HTTPService implements Service against the drop backend REST API.
type HTTPService struct {
	base   *url.URL
	client HTTPClient
}

// NewHTTPClient returns the shared client used for backend calls.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// NewHTTPService constructs a Service rooted at baseURL.
func NewHTTPService(baseURL string, client HTTPClient) (*HTTPService, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("catalog: parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: base URL %q must be absolute", baseURL)
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &HTTPService{base: parsed, client: client}, nil
}

// BaseURL returns the resolved API root.
func (s *HTTPService) BaseURL() string {
	return strings.TrimRight(s.base.String(), "/")
}

// Current fetches GET {base}/api/tees/current.
func (s *HTTPService) Current(ctx context.Context) ([]Product, error) {
	return s.list(ctx, "current", "api/tees/current")
}

// Archive fetches GET {base}/api/tees/archive.
func (s *HTTPService) Archive(ctx context.Context) ([]Product, error) {
	return s.list(ctx, "archive", "api/tees/archive")
}

// Subscribe posts the submission to {base}/api/subscribe. Validation runs
// first so an invalid address never reaches the network.
func (s *HTTPService) Subscribe(ctx context.Context, sub Submission) (SubscribeResult, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return SubscribeResult{}, err
	}
	ctx, span := tracer.Start(ctx, "catalog.subscribe", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := s.newJSONRequest(ctx, http.MethodPost, "api/subscribe", sub)
	if err != nil {
		return SubscribeResult{}, err
	}
	resp, err := s.do(span, req)
	if err != nil {
		return SubscribeResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return SubscribeResult{}, s.errorFromResponse("subscribe", resp)
	}

	var payload SubscribeResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return SubscribeResult{}, fmt.Errorf("catalog: decode subscribe: %w", err)
	}
	span.SetAttributes(attribute.String("subscribe.status", payload.Status))
	return payload, nil
}

// Seed posts to {base}/api/seed. Any 2xx response counts as success.
func (s *HTTPService) Seed(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "catalog.seed", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := s.newJSONRequest(ctx, http.MethodPost, "api/seed", nil)
	if err != nil {
		return err
	}
	resp, err := s.do(span, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return s.errorFromResponse("seed", resp)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	return nil
}

func (s *HTTPService) list(ctx context.Context, op, endpoint string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "catalog."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.resolve(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.do(span, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, s.errorFromResponse(op, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", op, err)
	}
	products, err := DecodeProducts(body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("catalog: decode %s: %w", op, err)
	}
	span.SetAttributes(attribute.Int("catalog.items", len(products)))
	return products, nil
}

// DecodeProducts parses a product list. A well-formed JSON value that is not
// an array yields ErrMalformed; invalid JSON yields the decoder error.
// Array elements that are not JSON objects are skipped; objects are always
// kept, with unusable fields left empty.
func DecodeProducts(body []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if json.Valid(trimmed) {
			return nil, ErrMalformed
		}
		return nil, fmt.Errorf("invalid JSON payload (%d bytes)", len(trimmed))
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var p Product
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *HTTPService) do(span trace.Span, req *http.Request) (*http.Response, error) {
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", req.URL.String()),
	)
	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("catalog: %s %s: %w", req.Method, req.URL.Path, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}

func (s *HTTPService) newJSONRequest(ctx context.Context, method, endpoint string, payload any) (*http.Request, error) {
	var buf bytes.Buffer
	if payload != nil {
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return nil, fmt.Errorf("catalog: encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.resolve(endpoint), &buf)
	if err != nil {
		return nil, fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(idempotencyHeader, uuid.NewString())
	return req, nil
}

func (s *HTTPService) resolve(endpoint string) string {
	ref := &url.URL{Path: strings.TrimPrefix(endpoint, "/")}
	return s.base.ResolveReference(ref).String()
}

func (s *HTTPService) errorFromResponse(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	body = bytes.TrimSpace(body)
	statusErr := &StatusError{
		Op:       op,
		Status:   resp.StatusCode,
		JSONBody: len(body) > 0 && json.Valid(body),
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	statusErr.Body = string(body)
	return statusErr
}
