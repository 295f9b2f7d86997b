package githubauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v63/github"
)

const (
	authorizationHeaderNameConstant         = "Authorization"
	bearerSchemeTemplateConstant            = "Bearer %s"
	enterpriseClientErrorTemplateConstant   = "unable to configure GitHub base URL: %w"
	tokenExchangeFailedTemplateConstant     = "installation token exchange failed: %s"
	tokenExchangeStatusTemplateConstant     = "installation token exchange failed with status %d: %s"
	missingTokenValueMessageConstant        = "installation token response carried no token value"
)

// InstallationToken is a short-lived GitHub App installation access token.
type InstallationToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenExchangeError reports a failed JWT-to-installation-token exchange.
// Exchanges are never retried: a 401 means the JWT or key is wrong and a 404
// means the installation identifier is wrong, neither of which heals itself.
type TokenExchangeError struct {
	StatusCode int
	Cause      error
}

// Error describes the exchange failure.
func (exchangeError TokenExchangeError) Error() string {
	if exchangeError.StatusCode > 0 {
		return fmt.Sprintf(tokenExchangeStatusTemplateConstant, exchangeError.StatusCode, exchangeError.Cause)
	}
	return fmt.Sprintf(tokenExchangeFailedTemplateConstant, exchangeError.Cause)
}

// Unwrap exposes the underlying cause.
func (exchangeError TokenExchangeError) Unwrap() error {
	return exchangeError.Cause
}

// ErrMissingTokenValue indicates GitHub answered without a token payload.
var ErrMissingTokenValue = errors.New(missingTokenValueMessageConstant)

// Clock supplies the current time; injectable for tests.
type Clock func() time.Time

// TokenBroker exchanges GitHub App JWTs for installation access tokens.
type TokenBroker struct {
	httpClient *http.Client
	apiBaseURL string
	clock      Clock
}

// NewTokenBroker constructs a TokenBroker. A nil httpClient falls back to
// http.DefaultClient, an empty apiBaseURL targets api.github.com, and a nil
// clock uses time.Now.
func NewTokenBroker(httpClient *http.Client, apiBaseURL string, clock Clock) *TokenBroker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clock == nil {
		clock = time.Now
	}
	return &TokenBroker{httpClient: httpClient, apiBaseURL: apiBaseURL, clock: clock}
}

// ExchangeInstallationToken mints an application JWT and trades it for an installation access token.
func (broker *TokenBroker) ExchangeInstallationToken(executionContext context.Context, credentials AppCredentials) (InstallationToken, error) {
	applicationJWT, jwtError := GenerateAppJWT(credentials, broker.clock())
	if jwtError != nil {
		return InstallationToken{}, jwtError
	}

	bearerClient := &http.Client{
		Transport: &bearerTransport{bearerToken: applicationJWT, baseTransport: broker.httpClient.Transport},
		Timeout:   broker.httpClient.Timeout,
	}

	githubClient := github.NewClient(bearerClient)
	if len(broker.apiBaseURL) > 0 {
		enterpriseClient, enterpriseError := githubClient.WithEnterpriseURLs(broker.apiBaseURL, broker.apiBaseURL)
		if enterpriseError != nil {
			return InstallationToken{}, fmt.Errorf(enterpriseClientErrorTemplateConstant, enterpriseError)
		}
		githubClient = enterpriseClient
	}

	issuedToken, response, exchangeError := githubClient.Apps.CreateInstallationToken(executionContext, credentials.InstallationID, nil)
	if exchangeError != nil {
		statusCode := 0
		if response != nil {
			statusCode = response.StatusCode
		}
		return InstallationToken{}, TokenExchangeError{StatusCode: statusCode, Cause: exchangeError}
	}

	if issuedToken == nil || len(issuedToken.GetToken()) == 0 {
		return InstallationToken{}, TokenExchangeError{Cause: ErrMissingTokenValue}
	}

	return InstallationToken{
		Value:     issuedToken.GetToken(),
		ExpiresAt: issuedToken.GetExpiresAt().Time,
	}, nil
}

// bearerTransport attaches the application JWT to every outgoing request.
type bearerTransport struct {
	bearerToken   string
	baseTransport http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (transport *bearerTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	clonedRequest := request.Clone(request.Context())
	clonedRequest.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerSchemeTemplateConstant, transport.bearerToken))

	baseTransport := transport.baseTransport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	return baseTransport.RoundTrip(clonedRequest)
}
