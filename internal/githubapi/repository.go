package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v63/github"
)

const (
	clientRequiredMessageConstant       = "github client required"
	invokerRequiredMessageConstant      = "retry invoker required"
	contentNotFoundTemplateConstant     = "%s/%s: %s not found at %s"
	directoryContentMessageConstant     = "path resolves to a directory, not a file"
	fileContentOperationNameConstant    = "FetchFileContent"
	branchHeadOperationNameConstant     = "ResolveBranchHead"
	directoryContentTemplateConstant    = "%s/%s: %s"
)

// Construction errors.
var (
	ErrClientRequired  = errors.New(clientRequiredMessageConstant)
	ErrInvokerRequired = errors.New(invokerRequiredMessageConstant)
)

// ContentNotFoundError reports a repository path missing at the requested reference.
type ContentNotFoundError struct {
	Owner      string
	Repository string
	Path       string
	Reference  string
}

// Error describes the missing content.
func (notFoundError ContentNotFoundError) Error() string {
	return fmt.Sprintf(contentNotFoundTemplateConstant, notFoundError.Owner, notFoundError.Repository, notFoundError.Path, notFoundError.Reference)
}

// RepositoryReader retrieves repository files and branch heads with retry-aware API calls.
type RepositoryReader struct {
	client  *github.Client
	invoker *Invoker
}

// NewRepositoryReader constructs a RepositoryReader.
func NewRepositoryReader(client *github.Client, invoker *Invoker) (*RepositoryReader, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if invoker == nil {
		return nil, ErrInvokerRequired
	}
	return &RepositoryReader{client: client, invoker: invoker}, nil
}

// FileContent fetches the decoded content of a repository file at the given reference.
// An empty reference addresses the default branch.
func (reader *RepositoryReader) FileContent(executionContext context.Context, owner string, repository string, path string, reference string) (string, error) {
	var fetchedContent string

	invocationError := reader.invoker.Invoke(executionContext, fileContentOperationNameConstant, func(operationContext context.Context) (*github.Response, error) {
		contentOptions := &github.RepositoryContentGetOptions{Ref: reference}
		fileContent, _, response, contentError := reader.client.Repositories.GetContents(operationContext, owner, repository, path, contentOptions)
		if contentError != nil {
			return response, contentError
		}
		if fileContent == nil {
			return response, fmt.Errorf(directoryContentTemplateConstant, owner, repository, directoryContentMessageConstant)
		}

		decodedContent, decodeError := fileContent.GetContent()
		if decodeError != nil {
			return response, decodeError
		}
		fetchedContent = decodedContent
		return response, nil
	})
	if invocationError != nil {
		permanentError := PermanentAPIError{}
		if errors.As(invocationError, &permanentError) && permanentError.StatusCode == http.StatusNotFound {
			return "", ContentNotFoundError{Owner: owner, Repository: repository, Path: path, Reference: reference}
		}
		return "", invocationError
	}

	return fetchedContent, nil
}

// BranchHeadCommit resolves the commit SHA at the head of the named branch.
func (reader *RepositoryReader) BranchHeadCommit(executionContext context.Context, owner string, repository string, branch string) (string, error) {
	var headCommitSHA string

	invocationError := reader.invoker.Invoke(executionContext, branchHeadOperationNameConstant, func(operationContext context.Context) (*github.Response, error) {
		branchDetails, response, branchError := reader.client.Repositories.GetBranch(operationContext, owner, repository, branch, 0)
		if branchError != nil {
			return response, branchError
		}
		headCommitSHA = branchDetails.GetCommit().GetSHA()
		return response, nil
	})
	if invocationError != nil {
		return "", invocationError
	}

	return headCommitSHA, nil
}
