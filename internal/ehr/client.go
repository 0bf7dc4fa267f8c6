// Package ehr submits FHIR resources to EHR vendor APIs. A Client
// handles the REST surface; vendor-specific OAuth2 flows live behind
// the TokenProvider implementations (Epic backend services, Cerner
// client credentials).
package ehr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinical-ehr-gateway/internal/fhir"
)

// ErrNotAuthenticated is returned by resource operations invoked before
// a successful Authenticate call.
var ErrNotAuthenticated = errors.New("not authenticated: call Authenticate first")

// Response carries the EHR's HTTP reply. The gateway does not interpret
// the body; it is passed through for the caller to inspect or log.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client is a minimal FHIR R4 REST client. Tokens are not cached across
// sessions: each Authenticate call runs the provider's grant flow and
// replaces the held token.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a Client for the FHIR base URL. A nil httpClient
// gets a default with a 30 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the normalized FHIR base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate runs the provider's grant flow and stores the resulting
// bearer token for subsequent resource calls.
func (c *Client) Authenticate(ctx context.Context, provider TokenProvider) error {
	token, err := provider.Token(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

func (c *Client) bearerToken() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" {
		return "", ErrNotAuthenticated
	}
	return c.token, nil
}

// SubmitDocumentReference POSTs a DocumentReference to the EHR. The EHR
// replies 201 Created on success; the caller decides how to treat other
// status codes.
func (c *Client) SubmitDocumentReference(ctx context.Context, doc fhir.DocumentReference) (*Response, error) {
	return c.PostResource(ctx, "DocumentReference", doc)
}

// PostResource POSTs an arbitrary FHIR resource to {base}/{resourceType}.
func (c *Client) PostResource(ctx context.Context, resourceType string, resource any) (*Response, error) {
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(resource)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", resourceType, err)
	}

	url := c.baseURL + "/" + resourceType
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", resourceType, err)
	}
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req)
}

// GetResource GETs a FHIR resource by type and logical ID.
func (c *Client) GetResource(ctx context.Context, resourceType, resourceID string) (*Response, error) {
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/" + resourceType + "/" + resourceID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", resourceType, err)
	}
	req.Header.Set("Accept", "application/fhir+json")
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
