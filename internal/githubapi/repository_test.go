package githubapi_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/githubapi"
)

const (
	testRepositoryOwnerConstant  = "konflux-ci"
	testRepositoryNameConstant   = "component-repo"
	testPipelinePathConstant     = ".tekton/component-push.yaml"
	testPipelineContentConstant  = "kind: PipelineRun\n"
	testBranchNameConstant       = "main"
	testHeadCommitSHAConstant    = "4fb3ac9f2f0d7e2f8c8f1b5a9f1a2b3c4d5e6f70"
	testAccessTokenValueConstant = "ghs_testtoken"
)

func newTestReader(testInstance *testing.T, handler http.Handler) (*githubapi.RepositoryReader, *httptest.Server) {
	testInstance.Helper()

	testServer := httptest.NewServer(handler)
	testInstance.Cleanup(testServer.Close)

	githubClient, clientError := githubapi.NewClient(testAccessTokenValueConstant, githubapi.ClientOptions{
		APIBaseURL: testServer.URL,
		HTTPClient: testServer.Client(),
	})
	require.NoError(testInstance, clientError)

	invoker, invokerError := githubapi.NewInvoker(zap.NewNop(), githubapi.DefaultRetryPolicy())
	require.NoError(testInstance, invokerError)

	reader, readerError := githubapi.NewRepositoryReader(githubClient, invoker)
	require.NoError(testInstance, readerError)
	return reader, testServer
}

func TestNewClientRequiresToken(testInstance *testing.T) {
	client, clientError := githubapi.NewClient("   ", githubapi.ClientOptions{})
	require.Nil(testInstance, client)
	require.ErrorIs(testInstance, clientError, githubapi.ErrMissingToken)
}

func TestFileContentDecodesBase64Payload(testInstance *testing.T) {
	contentsPath := fmt.Sprintf("/api/v3/repos/%s/%s/contents/%s", testRepositoryOwnerConstant, testRepositoryNameConstant, testPipelinePathConstant)

	reader, _ := newTestReader(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, contentsPath, request.URL.Path)
		require.Equal(testInstance, testBranchNameConstant, request.URL.Query().Get("ref"))

		encodedContent := base64.StdEncoding.EncodeToString([]byte(testPipelineContentConstant))
		responsePayload := fmt.Sprintf(`{"type":"file","encoding":"base64","name":"component-push.yaml","path":%q,"content":%q}`, testPipelinePathConstant, encodedContent)
		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(responsePayload))
	}))

	fetchedContent, fetchError := reader.FileContent(context.Background(), testRepositoryOwnerConstant, testRepositoryNameConstant, testPipelinePathConstant, testBranchNameConstant)
	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, testPipelineContentConstant, fetchedContent)
}

func TestFileContentReportsTypedNotFound(testInstance *testing.T) {
	reader, _ := newTestReader(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(http.StatusNotFound)
		_, _ = responseWriter.Write([]byte(`{"message":"Not Found"}`))
	}))

	_, fetchError := reader.FileContent(context.Background(), testRepositoryOwnerConstant, testRepositoryNameConstant, testPipelinePathConstant, testBranchNameConstant)
	require.Error(testInstance, fetchError)

	var notFoundError githubapi.ContentNotFoundError
	require.ErrorAs(testInstance, fetchError, &notFoundError)
	require.Equal(testInstance, testPipelinePathConstant, notFoundError.Path)
}

func TestBranchHeadCommit(testInstance *testing.T) {
	branchPath := fmt.Sprintf("/api/v3/repos/%s/%s/branches/%s", testRepositoryOwnerConstant, testRepositoryNameConstant, testBranchNameConstant)

	reader, _ := newTestReader(testInstance, http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		require.Equal(testInstance, branchPath, request.URL.Path)
		responsePayload := fmt.Sprintf(`{"name":%q,"commit":{"sha":%q}}`, testBranchNameConstant, testHeadCommitSHAConstant)
		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(responsePayload))
	}))

	headCommit, fetchError := reader.BranchHeadCommit(context.Background(), testRepositoryOwnerConstant, testRepositoryNameConstant, testBranchNameConstant)
	require.NoError(testInstance, fetchError)
	require.Equal(testInstance, testHeadCommitSHAConstant, headCommit)
}
