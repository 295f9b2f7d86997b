package jira

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

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultBaseURL = "https://issues.redhat.com"

	apiRootPathConstant             = "/rest/api/2"
	searchPathConstant              = "/search"
	issuePathConstant               = "/issue"
	commentPathTemplateConstant     = "/issue/%s/comment"
	searchPageSizeConstant          = 50
	transportRetryMaximumConstant   = 3
	authorizationHeaderNameConstant = "Authorization"
	bearerSchemeTemplateConstant    = "Bearer %s"
	contentTypeHeaderNameConstant   = "Content-Type"
	jsonContentTypeConstant         = "application/json"
	missingBaseURLMessageConstant   = "jira base url required"
	missingTokenMessageConstant     = "jira token required"
	statusErrorTemplateConstant     = "jira answered %s: %s"
	requestErrorTemplateConstant    = "jira %s %s failed: %w"
	decodeErrorTemplateConstant     = "unable to decode jira response: %w"
	encodeErrorTemplateConstant     = "unable to encode jira payload: %w"
)

// Construction errors.
var (
	ErrMissingBaseURL = errors.New(missingBaseURLMessageConstant)
	ErrMissingToken   = errors.New(missingTokenMessageConstant)
)

// StatusError reports a non-2xx JIRA response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error describes the failed response including a body excerpt.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Status, strings.TrimSpace(statusError.Body))
}

// Client talks to one JIRA instance with bearer-token authentication.
type Client struct {
	apiRoot     string
	bearerToken string
	httpClient  *http.Client
}

// NewClient constructs a Client for the given base URL and personal access token.
func NewClient(baseURL string, token string) (*Client, error) {
	trimmedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if len(trimmedBaseURL) == 0 {
		return nil, ErrMissingBaseURL
	}
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrMissingToken
	}

	retryingClient := retryablehttp.NewClient()
	retryingClient.RetryMax = transportRetryMaximumConstant
	retryingClient.Logger = nil

	return &Client{
		apiRoot:     trimmedBaseURL + apiRootPathConstant,
		bearerToken: trimmedToken,
		httpClient:  retryingClient.StandardClient(),
	}, nil
}

// SearchIssues runs a JQL query and returns every matching issue across pages.
func (client *Client) SearchIssues(executionContext context.Context, jqlQuery string) ([]Issue, error) {
	collectedIssues := []Issue{}
	startAt := 0

	for {
		queryValues := url.Values{}
		queryValues.Set("jql", jqlQuery)
		queryValues.Set("startAt", strconv.Itoa(startAt))
		queryValues.Set("maxResults", strconv.Itoa(searchPageSizeConstant))

		searchURL := client.apiRoot + searchPathConstant + "?" + queryValues.Encode()

		var pageResponse searchResponse
		if requestError := client.doJSON(executionContext, http.MethodGet, searchURL, nil, &pageResponse); requestError != nil {
			return nil, requestError
		}

		collectedIssues = append(collectedIssues, pageResponse.Issues...)
		startAt += len(pageResponse.Issues)
		if startAt >= pageResponse.Total || len(pageResponse.Issues) == 0 {
			break
		}
	}

	return collectedIssues, nil
}

// CreateIssue files a new issue and returns its identifiers.
func (client *Client) CreateIssue(executionContext context.Context, fields IssueFields) (CreatedIssue, error) {
	createPayload := struct {
		Fields IssueFields `json:"fields"`
	}{Fields: fields}

	var createdIssue CreatedIssue
	createURL := client.apiRoot + issuePathConstant
	if requestError := client.doJSON(executionContext, http.MethodPost, createURL, createPayload, &createdIssue); requestError != nil {
		return CreatedIssue{}, requestError
	}
	return createdIssue, nil
}

// AddComment appends a comment to an existing issue.
func (client *Client) AddComment(executionContext context.Context, issueKey string, commentBody string) error {
	commentPayload := struct {
		Body string `json:"body"`
	}{Body: commentBody}

	commentURL := client.apiRoot + fmt.Sprintf(commentPathTemplateConstant, issueKey)
	return client.doJSON(executionContext, http.MethodPost, commentURL, commentPayload, nil)
}

func (client *Client) doJSON(executionContext context.Context, method string, requestURL string, requestPayload any, responseTarget any) error {
	var requestBody io.Reader
	if requestPayload != nil {
		encodedPayload, encodeError := json.Marshal(requestPayload)
		if encodeError != nil {
			return fmt.Errorf(encodeErrorTemplateConstant, encodeError)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, requestError := http.NewRequestWithContext(executionContext, method, requestURL, requestBody)
	if requestError != nil {
		return fmt.Errorf(requestErrorTemplateConstant, method, requestURL, requestError)
	}
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerSchemeTemplateConstant, client.bearerToken))
	if requestPayload != nil {
		request.Header.Set(contentTypeHeaderNameConstant, jsonContentTypeConstant)
	}

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return fmt.Errorf(requestErrorTemplateConstant, method, requestURL, responseError)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		bodyExcerpt, _ := io.ReadAll(io.LimitReader(response.Body, 2048))
		return StatusError{StatusCode: response.StatusCode, Status: response.Status, Body: string(bodyExcerpt)}
	}

	if responseTarget == nil {
		return nil
	}
	if decodeError := json.NewDecoder(response.Body).Decode(responseTarget); decodeError != nil {
		return fmt.Errorf(decodeErrorTemplateConstant, decodeError)
	}
	return nil
}
