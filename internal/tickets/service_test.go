package tickets_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/jira"
	"github.com/konflux-ci/compliance-scans/internal/scan"
	"github.com/konflux-ci/compliance-scans/internal/tickets"
)

const (
	testProjectConstant   = "KFLUXBUGS"
	testIssueTypeConstant = "Bug"
)

type stubIssueService struct {
	openIssuesByQuery map[string][]jira.Issue
	searchedQueries   []string
	createdFields     []jira.IssueFields
	commentsByIssue   map[string][]string
}

func (stub *stubIssueService) SearchIssues(_ context.Context, jqlQuery string) ([]jira.Issue, error) {
	stub.searchedQueries = append(stub.searchedQueries, jqlQuery)
	return stub.openIssuesByQuery[jqlQuery], nil
}

func (stub *stubIssueService) CreateIssue(_ context.Context, fields jira.IssueFields) (jira.CreatedIssue, error) {
	stub.createdFields = append(stub.createdFields, fields)
	return jira.CreatedIssue{ID: "9000", Key: "KFLUXBUGS-9000"}, nil
}

func (stub *stubIssueService) AddComment(_ context.Context, issueKey string, commentBody string) error {
	if stub.commentsByIssue == nil {
		stub.commentsByIssue = map[string][]string{}
	}
	stub.commentsByIssue[issueKey] = append(stub.commentsByIssue[issueKey], commentBody)
	return nil
}

func sampleFindings() []scan.Finding {
	scannedAt := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	return []scan.Finding{
		{
			Squad:       "platform",
			Namespace:   "team-tenant",
			Application: "gateway",
			Component:   "gateway-api",
			Check:       scan.CheckHermeticBuild,
			Severity:    scan.SeverityCritical,
			Detail:      "pipeline does not set the hermetic parameter to true",
			ScannedAt:   scannedAt,
		},
		{
			Squad:       "platform",
			Namespace:   "team-tenant",
			Application: "gateway",
			Component:   "gateway-api",
			Check:       scan.CheckStaleBuild,
			Severity:    scan.SeverityMinor,
			Detail:      "last built commit abc is behind branch main head def",
			ScannedAt:   scannedAt,
		},
	}
}

func newTicketService(testInstance *testing.T, issues tickets.IssueService) *tickets.Service {
	testInstance.Helper()
	service, serviceError := tickets.NewService(zap.NewNop(), issues)
	require.NoError(testInstance, serviceError)
	return service
}

func defaultTicketOptions() tickets.ServiceOptions {
	return tickets.ServiceOptions{Project: testProjectConstant, IssueType: testIssueTypeConstant}
}

func TestProcessCreatesOneIssuePerGroup(testInstance *testing.T) {
	issueService := &stubIssueService{}
	service := newTicketService(testInstance, issueService)

	summary, processError := service.Process(context.Background(), sampleFindings(), defaultTicketOptions())
	require.NoError(testInstance, processError)
	require.Len(testInstance, summary.Created, 2)
	require.Empty(testInstance, summary.Suppressed)
	require.Len(testInstance, issueService.createdFields, 2)

	firstIssue := issueService.createdFields[0]
	require.Equal(testInstance, testProjectConstant, firstIssue.Project.Key)
	require.Equal(testInstance, testIssueTypeConstant, firstIssue.IssueType.Name)
	require.Equal(testInstance, "Compliance: gateway-api fails hermetic-build", firstIssue.Summary)
	require.Equal(testInstance, []string{"compliance-scan", "component:gateway-api", "check:hermetic-build"}, firstIssue.Labels)
	require.NotNil(testInstance, firstIssue.Priority)
	require.Equal(testInstance, "Critical", firstIssue.Priority.Name)
	require.Contains(testInstance, firstIssue.Description, "team-tenant/gateway")
	require.Contains(testInstance, firstIssue.Description, "hermetic parameter")

	secondIssue := issueService.createdFields[1]
	require.NotNil(testInstance, secondIssue.Priority)
	require.Equal(testInstance, "Minor", secondIssue.Priority.Name)
}

func TestProcessSearchesByLabelsOnly(testInstance *testing.T) {
	issueService := &stubIssueService{}
	service := newTicketService(testInstance, issueService)

	_, processError := service.Process(context.Background(), sampleFindings()[:1], defaultTicketOptions())
	require.NoError(testInstance, processError)
	require.Len(testInstance, issueService.searchedQueries, 1)
	require.Equal(testInstance,
		"project = KFLUXBUGS AND labels = compliance-scan AND labels = component:gateway-api AND labels = check:hermetic-build AND statusCategory != Done",
		issueService.searchedQueries[0],
	)
}

func TestProcessSuppressesGroupsWithOpenIssues(testInstance *testing.T) {
	duplicateQuery := "project = KFLUXBUGS AND labels = compliance-scan AND labels = component:gateway-api AND labels = check:hermetic-build AND statusCategory != Done"
	issueService := &stubIssueService{
		openIssuesByQuery: map[string][]jira.Issue{
			duplicateQuery: {{ID: "100", Key: "KFLUXBUGS-100"}},
		},
	}
	service := newTicketService(testInstance, issueService)

	summary, processError := service.Process(context.Background(), sampleFindings(), defaultTicketOptions())
	require.NoError(testInstance, processError)
	require.Len(testInstance, summary.Created, 1)
	require.Equal(testInstance, []tickets.GroupKey{{Component: "gateway-api", Check: scan.CheckHermeticBuild}}, summary.Suppressed)
	require.Len(testInstance, issueService.createdFields, 1)
	require.Equal(testInstance, "Compliance: gateway-api fails stale-build", issueService.createdFields[0].Summary)
}

func TestProcessCommentsOnOpenIssues(testInstance *testing.T) {
	duplicateQuery := "project = KFLUXBUGS AND labels = compliance-scan AND labels = component:gateway-api AND labels = check:hermetic-build AND statusCategory != Done"
	issueService := &stubIssueService{
		openIssuesByQuery: map[string][]jira.Issue{
			duplicateQuery: {{ID: "100", Key: "KFLUXBUGS-100"}},
		},
	}
	service := newTicketService(testInstance, issueService)

	summary, processError := service.Process(context.Background(), sampleFindings()[:1], defaultTicketOptions())
	require.NoError(testInstance, processError)
	require.Empty(testInstance, summary.Created)
	require.Equal(testInstance, []string{"KFLUXBUGS-100"}, summary.Commented)

	postedComments := issueService.commentsByIssue["KFLUXBUGS-100"]
	require.Len(testInstance, postedComments, 1)
	require.Contains(testInstance, postedComments[0], "still finds the hermetic-build check failing for component gateway-api")
	require.Contains(testInstance, postedComments[0], "team-tenant/gateway")
	require.Contains(testInstance, postedComments[0], "hermetic parameter")
}

func TestProcessDryRunSkipsComments(testInstance *testing.T) {
	duplicateQuery := "project = KFLUXBUGS AND labels = compliance-scan AND labels = component:gateway-api AND labels = check:hermetic-build AND statusCategory != Done"
	issueService := &stubIssueService{
		openIssuesByQuery: map[string][]jira.Issue{
			duplicateQuery: {{ID: "100", Key: "KFLUXBUGS-100"}},
		},
	}
	service := newTicketService(testInstance, issueService)

	options := defaultTicketOptions()
	options.DryRun = true
	summary, processError := service.Process(context.Background(), sampleFindings()[:1], options)
	require.NoError(testInstance, processError)
	require.Empty(testInstance, summary.Commented)
	require.Empty(testInstance, issueService.commentsByIssue)
	require.Equal(testInstance, []tickets.GroupKey{{Component: "gateway-api", Check: scan.CheckHermeticBuild}}, summary.Suppressed)
}

func TestProcessDryRunCreatesNothing(testInstance *testing.T) {
	issueService := &stubIssueService{}
	service := newTicketService(testInstance, issueService)

	options := defaultTicketOptions()
	options.DryRun = true
	summary, processError := service.Process(context.Background(), sampleFindings(), options)
	require.NoError(testInstance, processError)
	require.Empty(testInstance, summary.Created)
	require.Len(testInstance, summary.Planned, 2)
	require.Empty(testInstance, issueService.createdFields)
}

func TestProcessGroupsRepeatedFindings(testInstance *testing.T) {
	repeatedFindings := append(sampleFindings()[:1], sampleFindings()[0])
	repeatedFindings[1].Namespace = "other-tenant"

	issueService := &stubIssueService{}
	service := newTicketService(testInstance, issueService)

	summary, processError := service.Process(context.Background(), repeatedFindings, defaultTicketOptions())
	require.NoError(testInstance, processError)
	require.Len(testInstance, summary.Created, 1)
	require.Contains(testInstance, issueService.createdFields[0].Description, "team-tenant/gateway")
	require.Contains(testInstance, issueService.createdFields[0].Description, "other-tenant/gateway")
}
