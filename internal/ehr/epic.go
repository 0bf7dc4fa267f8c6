package ehr

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const epicTokenPath = "/oauth2/token"

// jwtBearerAssertionType is the client_assertion_type for RFC 7523 JWT
// bearer client authentication.
const jwtBearerAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// EpicTokenURL derives the default token endpoint from a FHIR base URL.
func EpicTokenURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + epicTokenPath
}

// EpicTokenProvider implements Epic's backend services OAuth2 flow: a
// JWT assertion signed RS384 with the app's registered RSA private key,
// exchanged at the token endpoint for an access token.
type EpicTokenProvider struct {
	clientID   string
	tokenURL   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
}

// NewEpicTokenProvider builds a provider from a PEM-encoded RSA private
// key. A nil httpClient gets a default with a 30 second timeout.
func NewEpicTokenProvider(clientID, tokenURL string, privateKeyPEM []byte, httpClient *http.Client) (*EpicTokenProvider, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing Epic private key: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &EpicTokenProvider{
		clientID:   clientID,
		tokenURL:   tokenURL,
		privateKey: key,
		httpClient: httpClient,
	}, nil
}

// NewEpicTokenProviderFromFile reads the RSA private key from a PEM file.
func NewEpicTokenProviderFromFile(clientID, tokenURL, privateKeyPath string, httpClient *http.Client) (*EpicTokenProvider, error) {
	pem, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading Epic private key file: %w", err)
	}
	return NewEpicTokenProvider(clientID, tokenURL, pem, httpClient)
}

// Token signs a fresh client assertion and exchanges it for an access
// token.
func (p *EpicTokenProvider) Token(ctx context.Context) (string, error) {
	assertion, err := p.signAssertion(time.Now())
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":            {"client_credentials"},
		"client_assertion_type": {jwtBearerAssertionType},
		"client_assertion":      {assertion},
	}
	return postTokenForm(ctx, p.httpClient, p.tokenURL, form)
}

// signAssertion builds the RS384 JWT per Epic's backend services spec:
// iss and sub are both the client ID, aud is the token endpoint, jti is
// unique per assertion, and expiry is five minutes out.
func (p *EpicTokenProvider) signAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": p.clientID,
		"sub": p.clientID,
		"aud": p.tokenURL,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(5 * time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS384, claims).SignedString(p.privateKey)
	if err != nil {
		return "", fmt.Errorf("signing Epic client assertion: %w", err)
	}
	return signed, nil
}
