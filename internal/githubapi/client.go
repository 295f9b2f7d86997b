package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v63/github"
	"golang.org/x/oauth2"
)

const (
	missingTokenMessageConstant           = "github token required"
	enterpriseClientErrorTemplateConstant = "unable to configure GitHub base URL: %w"
)

// ErrMissingToken indicates client construction without an authentication token.
var ErrMissingToken = errors.New(missingTokenMessageConstant)

// ClientOptions configures NewClient.
type ClientOptions struct {
	// APIBaseURL targets a GitHub Enterprise instance when non-empty.
	APIBaseURL string
	// HTTPClient carries the transport used underneath the oauth2 layer;
	// nil selects the default transport.
	HTTPClient *http.Client
}

// NewClient constructs an authenticated go-github client.
func NewClient(token string, options ClientOptions) (*github.Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrMissingToken
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})

	clientContext := context.Background()
	if options.HTTPClient != nil {
		clientContext = context.WithValue(clientContext, oauth2.HTTPClient, options.HTTPClient)
	}
	authenticatedClient := oauth2.NewClient(clientContext, tokenSource)

	githubClient := github.NewClient(authenticatedClient)
	if len(options.APIBaseURL) > 0 {
		enterpriseClient, enterpriseError := githubClient.WithEnterpriseURLs(options.APIBaseURL, options.APIBaseURL)
		if enterpriseError != nil {
			return nil, fmt.Errorf(enterpriseClientErrorTemplateConstant, enterpriseError)
		}
		githubClient = enterpriseClient
	}

	return githubClient, nil
}
