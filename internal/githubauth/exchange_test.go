package githubauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/githubauth"
)

const (
	testAccessTokensPathConstant    = "/api/v3/app/installations/40876251/access_tokens"
	testIssuedTokenValueConstant    = "ghs_testinstallationtoken"
	testTokenResponseBodyConstant   = `{"token":"ghs_testinstallationtoken","expires_at":"2026-03-14T10:00:00Z"}`
	testNotFoundResponseBodyConstant = `{"message":"Not Found"}`
)

func TestExchangeInstallationToken(testInstance *testing.T) {
	_, privateKeyPEM := generateTestPrivateKey(testInstance)
	credentials := githubauth.AppCredentials{
		ApplicationID:  testApplicationIDConstant,
		InstallationID: testInstallationIDConstant,
		PrivateKeyPEM:  privateKeyPEM,
	}

	var observedAuthorizationHeader string
	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		if request.URL.Path != testAccessTokensPathConstant {
			responseWriter.WriteHeader(http.StatusNotFound)
			return
		}
		observedAuthorizationHeader = request.Header.Get("Authorization")
		responseWriter.WriteHeader(http.StatusCreated)
		_, _ = responseWriter.Write([]byte(testTokenResponseBodyConstant))
	}))
	defer testServer.Close()

	fixedClock := func() time.Time { return time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC) }
	broker := githubauth.NewTokenBroker(testServer.Client(), testServer.URL, fixedClock)

	installationToken, exchangeError := broker.ExchangeInstallationToken(context.Background(), credentials)
	require.NoError(testInstance, exchangeError)
	require.Equal(testInstance, testIssuedTokenValueConstant, installationToken.Value)
	require.Equal(testInstance, time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC), installationToken.ExpiresAt)
	require.True(testInstance, strings.HasPrefix(observedAuthorizationHeader, "Bearer "))
}

func TestExchangeInstallationTokenSurfacesStatusErrors(testInstance *testing.T) {
	_, privateKeyPEM := generateTestPrivateKey(testInstance)
	credentials := githubauth.AppCredentials{
		ApplicationID:  testApplicationIDConstant,
		InstallationID: testInstallationIDConstant,
		PrivateKeyPEM:  privateKeyPEM,
	}

	testServer := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		_, _ = responseWriter.Write([]byte(testNotFoundResponseBodyConstant))
	}))
	defer testServer.Close()

	broker := githubauth.NewTokenBroker(testServer.Client(), testServer.URL, nil)

	_, exchangeError := broker.ExchangeInstallationToken(context.Background(), credentials)
	require.Error(testInstance, exchangeError)

	var tokenExchangeError githubauth.TokenExchangeError
	require.ErrorAs(testInstance, exchangeError, &tokenExchangeError)
	require.Equal(testInstance, http.StatusNotFound, tokenExchangeError.StatusCode)
}

func TestResolveTokenPrefersExplicitEnvironment(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubToken, "from-process-environment")

	resolvedToken, tokenFound := githubauth.ResolveToken(map[string]string{githubauth.EnvGitHubCLIToken: "from-map"})
	require.True(testInstance, tokenFound)
	require.Equal(testInstance, "from-map", resolvedToken)

	resolvedToken, tokenFound = githubauth.ResolveToken(nil)
	require.True(testInstance, tokenFound)
	require.Equal(testInstance, "from-process-environment", resolvedToken)
}
