package ehr

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// DefaultCernerScope is requested when no scope is configured. Writing
// DocumentReference resources is the only permission the gateway needs.
const DefaultCernerScope = "system/DocumentReference.write"

// CernerTokenProvider implements Cerner's SMART on FHIR client
// credentials flow: client ID and secret posted directly to the token
// endpoint.
type CernerTokenProvider struct {
	clientID     string
	clientSecret string
	scope        string
	tokenURL     string
	httpClient   *http.Client
}

// NewCernerTokenProvider builds a provider for the given token endpoint.
// An empty scope defaults to DefaultCernerScope; a nil httpClient gets a
// default with a 30 second timeout.
func NewCernerTokenProvider(clientID, clientSecret, tokenURL, scope string, httpClient *http.Client) *CernerTokenProvider {
	if scope == "" {
		scope = DefaultCernerScope
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &CernerTokenProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        scope,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
}

// Token exchanges the client credentials for an access token.
func (p *CernerTokenProvider) Token(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"scope":         {p.scope},
	}
	return postTokenForm(ctx, p.httpClient, p.tokenURL, form)
}
