package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/jira"
	"github.com/konflux-ci/compliance-scans/internal/scan"
)

const (
	complianceLabelConstant        = "compliance-scan"
	componentLabelTemplateConstant = "component:%s"
	checkLabelTemplateConstant     = "check:%s"

	duplicateSearchTemplateConstant   = "project = %s AND labels = %s AND labels = %s AND labels = %s AND statusCategory != Done"
	issueSummaryTemplateConstant      = "Compliance: %s fails %s"
	descriptionHeaderTemplateConstant = "The compliance scan found the %s check failing for component %s.\n\nFindings:\n"
	descriptionRowTemplateConstant    = "* %s/%s (%s, scanned %s): %s\n"
	commentHeaderTemplateConstant     = "A later compliance scan still finds the %s check failing for component %s.\n\nFindings:\n"

	issueServiceRequiredMessageConstant  = "issue service required"
	ticketsLoggerRequiredMessageConstant = "logger required"

	duplicateFoundMessageConstant = "open ticket already exists, commenting instead"
	issueCreatedMessageConstant   = "ticket created"
	dryRunPlannedMessageConstant  = "dry run, ticket not created"

	searchErrorTemplateConstant  = "duplicate search for %s/%s failed: %w"
	createErrorTemplateConstant  = "ticket creation for %s/%s failed: %w"
	commentErrorTemplateConstant = "comment on %s for %s/%s failed: %w"
)

var priorityBySeverity = map[scan.Severity]string{
	scan.SeverityCritical: "Critical",
	scan.SeverityMajor:    "Major",
	scan.SeverityMinor:    "Minor",
}

// IssueService is the subset of the JIRA client the ticket creator needs.
type IssueService interface {
	SearchIssues(executionContext context.Context, jqlQuery string) ([]jira.Issue, error)
	CreateIssue(executionContext context.Context, fields jira.IssueFields) (jira.CreatedIssue, error)
	AddComment(executionContext context.Context, issueKey string, commentBody string) error
}

// ServiceOptions select the target project and behavior.
type ServiceOptions struct {
	Project   string
	IssueType string
	DryRun    bool
}

// GroupKey identifies one ticket-worthy group of findings.
type GroupKey struct {
	Component string
	Check     string
}

// Summary reports what the ticket creator did.
type Summary struct {
	Created    []jira.CreatedIssue
	Suppressed []GroupKey
	Commented  []string
	Planned    []jira.IssueFields
}

// Service converts findings into JIRA issues.
type Service struct {
	logger *zap.Logger
	issues IssueService
}

// NewService wires a ticket creation service.
func NewService(logger *zap.Logger, issues IssueService) (*Service, error) {
	if logger == nil {
		return nil, errors.New(ticketsLoggerRequiredMessageConstant)
	}
	if issues == nil {
		return nil, errors.New(issueServiceRequiredMessageConstant)
	}
	return &Service{logger: logger, issues: issues}, nil
}

// Process groups findings, comments on groups that already have an open
// ticket, and creates one issue per outstanding group.
func (service *Service) Process(executionContext context.Context, findings []scan.Finding, options ServiceOptions) (Summary, error) {
	summary := Summary{}

	groupOrder, groupedFindings := groupFindings(findings)
	for _, groupKey := range groupOrder {
		memberFindings := groupedFindings[groupKey]

		duplicateQuery := fmt.Sprintf(duplicateSearchTemplateConstant,
			options.Project,
			complianceLabelConstant,
			fmt.Sprintf(componentLabelTemplateConstant, groupKey.Component),
			fmt.Sprintf(checkLabelTemplateConstant, groupKey.Check),
		)
		existingIssues, searchError := service.issues.SearchIssues(executionContext, duplicateQuery)
		if searchError != nil {
			return summary, fmt.Errorf(searchErrorTemplateConstant, groupKey.Component, groupKey.Check, searchError)
		}
		if len(existingIssues) > 0 {
			existingKey := existingIssues[0].Key
			service.logger.Info(duplicateFoundMessageConstant,
				zap.String("component", groupKey.Component),
				zap.String("check", groupKey.Check),
				zap.String("issue", existingKey),
			)
			summary.Suppressed = append(summary.Suppressed, groupKey)
			if !options.DryRun {
				commentBody := buildCommentBody(groupKey, memberFindings)
				if commentError := service.issues.AddComment(executionContext, existingKey, commentBody); commentError != nil {
					return summary, fmt.Errorf(commentErrorTemplateConstant, existingKey, groupKey.Component, groupKey.Check, commentError)
				}
				summary.Commented = append(summary.Commented, existingKey)
			}
			continue
		}

		issueFields := buildIssueFields(groupKey, memberFindings, options)
		if options.DryRun {
			service.logger.Info(dryRunPlannedMessageConstant,
				zap.String("component", groupKey.Component),
				zap.String("check", groupKey.Check),
				zap.String("summary", issueFields.Summary),
			)
			summary.Planned = append(summary.Planned, issueFields)
			continue
		}

		createdIssue, createError := service.issues.CreateIssue(executionContext, issueFields)
		if createError != nil {
			return summary, fmt.Errorf(createErrorTemplateConstant, groupKey.Component, groupKey.Check, createError)
		}
		service.logger.Info(issueCreatedMessageConstant,
			zap.String("component", groupKey.Component),
			zap.String("check", groupKey.Check),
			zap.String("issue", createdIssue.Key),
		)
		summary.Created = append(summary.Created, createdIssue)
	}

	return summary, nil
}

func groupFindings(findings []scan.Finding) ([]GroupKey, map[GroupKey][]scan.Finding) {
	groupOrder := []GroupKey{}
	groupedFindings := map[GroupKey][]scan.Finding{}
	for _, finding := range findings {
		groupKey := GroupKey{Component: finding.Component, Check: finding.Check}
		if _, seen := groupedFindings[groupKey]; !seen {
			groupOrder = append(groupOrder, groupKey)
		}
		groupedFindings[groupKey] = append(groupedFindings[groupKey], finding)
	}
	return groupOrder, groupedFindings
}

func writeFindingRows(rowBuilder *strings.Builder, memberFindings []scan.Finding) {
	for _, finding := range memberFindings {
		rowBuilder.WriteString(fmt.Sprintf(descriptionRowTemplateConstant,
			finding.Namespace,
			finding.Application,
			finding.Squad,
			finding.ScannedAt.UTC().Format(time.RFC3339),
			finding.Detail,
		))
	}
}

func buildCommentBody(groupKey GroupKey, memberFindings []scan.Finding) string {
	var commentBuilder strings.Builder
	commentBuilder.WriteString(fmt.Sprintf(commentHeaderTemplateConstant, groupKey.Check, groupKey.Component))
	writeFindingRows(&commentBuilder, memberFindings)
	return commentBuilder.String()
}

func buildIssueFields(groupKey GroupKey, memberFindings []scan.Finding, options ServiceOptions) jira.IssueFields {
	var descriptionBuilder strings.Builder
	descriptionBuilder.WriteString(fmt.Sprintf(descriptionHeaderTemplateConstant, groupKey.Check, groupKey.Component))
	writeFindingRows(&descriptionBuilder, memberFindings)

	issueFields := jira.IssueFields{
		Project:   jira.Project{Key: options.Project},
		Summary:   fmt.Sprintf(issueSummaryTemplateConstant, groupKey.Component, groupKey.Check),
		IssueType: jira.IssueType{Name: options.IssueType},
		Labels: []string{
			complianceLabelConstant,
			fmt.Sprintf(componentLabelTemplateConstant, groupKey.Component),
			fmt.Sprintf(checkLabelTemplateConstant, groupKey.Check),
		},
		Description: descriptionBuilder.String(),
	}
	if priorityName, known := priorityBySeverity[memberFindings[0].Severity]; known {
		issueFields.Priority = &jira.Priority{Name: priorityName}
	}
	return issueFields
}
