// Package remote implements the NetworkClient port against the people-search
// service's JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/mwhitlock/rolodex/internal/domain/model"
	"github.com/mwhitlock/rolodex/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.NetworkClient = (*Client)(nil)

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// Client implements the driven.NetworkClient port over HTTP. The transport
// stack is httpcache (ETag-based conditional request caching) under a plain
// http.Client. Transient transport failures are retried here, with bounded
// attempts; the core's rate and quota logic never retries.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client talking to the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for testing against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Probe checks whether the session secret is still accepted by the service.
func (c *Client) Probe(ctx context.Context, secret string) error {
	body, err := c.do(ctx, http.MethodGet, "/v1/session", secret, nil)
	if err != nil {
		return err
	}
	body.Close()
	return nil
}

// searchRequest is the wire form of a people search.
type searchRequest struct {
	Keywords      string   `json:"keywords,omitempty"`
	CompanyIDs    []string `json:"current_company_ids,omitempty"`
	Regions       []string `json:"regions,omitempty"`
	NetworkDepths []string `json:"network_depths"`
	Limit         int      `json:"limit"`
}

// Search runs a people search under the given session and maps the raw
// records to domain profiles.
func (c *Client) Search(ctx context.Context, secret string, filter model.SearchFilter) ([]model.Profile, error) {
	req := searchRequest{
		Keywords:      filter.Keywords,
		NetworkDepths: depthCodes(filter.EffectiveDegrees()),
		Limit:         filter.EffectiveLimit(),
	}
	if filter.CompanyID != "" {
		req.CompanyIDs = []string{filter.CompanyID}
	}
	if filter.Location != "" {
		req.Regions = []string{filter.Location}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/v1/people/search", secret, payload)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp struct {
		Elements []rawRecord `json:"elements"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	profiles := make([]model.Profile, 0, len(resp.Elements))
	for _, rec := range resp.Elements {
		profiles = append(profiles, mapRecord(rec))
	}
	return profiles, nil
}

// ResolveCompany resolves a company name to the service's company ID.
// Returns ("", nil) when the name is unknown.
func (c *Client) ResolveCompany(ctx context.Context, secret, name string) (string, error) {
	path := "/v1/companies/lookup?name=" + url.QueryEscape(name)

	body, err := c.do(ctx, http.MethodGet, path, secret, nil)
	if err != nil {
		var notFound *statusError
		if errors.As(err, &notFound) && notFound.code == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}
	defer body.Close()

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode company lookup response: %w", err)
	}
	return resp.ID, nil
}

// statusError carries a non-retryable, non-auth HTTP status for callers that
// care about specific codes (company lookup 404).
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// do issues one request with bounded retries on transient failures and
// classifies error responses into the port's typed errors. The caller must
// close the returned body on success.
func (c *Client) do(ctx context.Context, method, path, secret string, payload []byte) (io.ReadCloser, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(retryBackoff * time.Duration(attempt-1))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build %s %s: %w", method, path, err)
		}
		req.Header.Set("Authorization", "Bearer "+secret)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &driven.NetworkError{Err: err}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}

		classified := classify(resp)
		resp.Body.Close()

		var netErr *driven.NetworkError
		if errors.As(classified, &netErr) {
			lastErr = classified
			continue
		}
		return nil, classified
	}

	return nil, lastErr
}

// classify maps an error response to the port's typed errors. 401 bodies
// carry a code field distinguishing a lapsed session from revoked
// credentials; 5xx is treated as transient.
func classify(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		var errBody struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errBody)

		reason := errBody.Message
		if reason == "" {
			reason = "session rejected"
		}
		if errBody.Code == "session_expired" {
			return &driven.AuthError{Kind: driven.AuthKindExpired, Reason: reason}
		}
		return &driven.AuthError{Kind: driven.AuthKindInvalid, Reason: reason}

	case resp.StatusCode == http.StatusForbidden:
		return &driven.AuthError{Kind: driven.AuthKindInvalid, Reason: "access revoked"}

	case resp.StatusCode == http.StatusTooManyRequests:
		var retryAfter time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &driven.ProviderRateLimitError{RetryAfter: retryAfter}

	case resp.StatusCode >= 500:
		return &driven.NetworkError{Err: fmt.Errorf("server error %d", resp.StatusCode)}

	default:
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
}

// depthCodes converts numeric degrees to the service's wire codes.
func depthCodes(degrees []int) []string {
	codes := make([]string, 0, len(degrees))
	for _, d := range degrees {
		switch d {
		case model.DegreeFirst:
			codes = append(codes, "F")
		case model.DegreeSecond:
			codes = append(codes, "S")
		default:
			codes = append(codes, "O")
		}
	}
	return codes
}
