package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/execshell"
	"github.com/konflux-ci/compliance-scans/internal/githubapi"
	"github.com/konflux-ci/compliance-scans/internal/gitrepo"
	"github.com/konflux-ci/compliance-scans/internal/konflux"
)

const (
	enterpriseContractScenarioFragmentConstant = "enterprise-contract"
	pushPipelinePathTemplateConstant           = ".tekton/%s-push.yaml"
	onPushPipelinePathTemplateConstant         = ".tekton/%s-on-push.yaml"
	defaultBranchNameConstant                  = "main"
	skopeoInspectSubcommandConstant            = "inspect"
	skopeoNoTagsFlagConstant                   = "--no-tags"
	dockerTransportPrefixConstant              = "docker://"

	componentSourceRequiredMessageConstant = "component source required"
	loggerRequiredMessageConstant          = "logger required"

	missingPipelineDetailTemplateConstant  = "no push pipeline found at %s or %s"
	hermeticDisabledDetailConstant         = "pipeline does not set the hermetic parameter to true"
	prefetchMissingDetailConstant          = "hermetic build without a prefetch-input parameter"
	noSnapshotDetailConstant               = "application has no snapshot"
	scenarioMissingDetailTemplateConstant  = "latest snapshot %s carries no %s scenario result"
	scenarioFailedDetailTemplateConstant   = "scenario %s reported %s on snapshot %s: %s"
	noBuiltCommitDetailConstant            = "component has no recorded built commit"
	staleBuildDetailTemplateConstant       = "last built commit %s is behind branch %s head %s"
	inspectFailureDetailTemplateConstant   = "unable to inspect image %s: %v"
	labelsMissingDetailTemplateConstant    = "image %s is missing required labels: %s"

	componentSkippedMessageConstant  = "component has no GitHub source, skipping repository checks"
	branchHeadSkippedMessageConstant = "branch head not resolvable, skipping stale-build check"
	scanSummaryMessageConstant       = "compliance scan finished"

	listComponentsErrorTemplateConstant = "unable to list components in %s: %w"
	snapshotLookupErrorTemplateConstant = "unable to resolve latest snapshot for %s/%s: %w"
	pipelineFetchErrorTemplateConstant  = "unable to fetch pipeline definition for %s: %w"
	branchHeadErrorTemplateConstant     = "unable to resolve branch head for %s: %w"
)

// ComponentSource lists components and their snapshots on the build platform.
type ComponentSource interface {
	ListComponents(executionContext context.Context, namespace string) ([]konflux.ComponentRecord, error)
	LatestSnapshot(executionContext context.Context, namespace string, application string) (*konflux.SnapshotRecord, error)
}

// RepositoryContentReader fetches repository files and branch heads.
type RepositoryContentReader interface {
	FileContent(executionContext context.Context, owner string, repository string, path string, reference string) (string, error)
	BranchHeadCommit(executionContext context.Context, owner string, repository string, branch string) (string, error)
}

// ImageInspector runs skopeo against built container images.
type ImageInspector interface {
	ExecuteSkopeo(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// ServiceOptions select what the scan covers.
type ServiceOptions struct {
	Namespaces          []string
	Squad               string
	RequiredImageLabels []string
}

// Service evaluates compliance checks for Konflux components.
type Service struct {
	logger       *zap.Logger
	components   ComponentSource
	repositories RepositoryContentReader
	inspector    ImageInspector
	roster       *konflux.SquadRoster
	clock        func() time.Time
}

// NewService wires a scan service; repositories and inspector may be nil, which
// skips the checks that need them.
func NewService(logger *zap.Logger, components ComponentSource, repositories RepositoryContentReader, inspector ImageInspector, roster *konflux.SquadRoster) (*Service, error) {
	if logger == nil {
		return nil, errors.New(loggerRequiredMessageConstant)
	}
	if components == nil {
		return nil, errors.New(componentSourceRequiredMessageConstant)
	}
	if roster == nil {
		roster = konflux.NewSquadRoster(nil)
	}
	return &Service{
		logger:       logger,
		components:   components,
		repositories: repositories,
		inspector:    inspector,
		roster:       roster,
		clock:        time.Now,
	}, nil
}

// WithClock overrides the scan timestamp source.
func (service *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		service.clock = clock
	}
	return service
}

// Scan evaluates every selected component and returns the collected findings.
func (service *Service) Scan(executionContext context.Context, options ServiceOptions) ([]Finding, error) {
	scannedAt := service.clock().UTC()
	collectedFindings := []Finding{}

	for _, namespace := range options.Namespaces {
		componentRecords, listError := service.components.ListComponents(executionContext, namespace)
		if listError != nil {
			return nil, fmt.Errorf(listComponentsErrorTemplateConstant, namespace, listError)
		}

		for _, componentRecord := range componentRecords {
			if !service.roster.OwnedByComponentFilter(options.Squad, componentRecord.Name) {
				continue
			}
			componentFindings, componentError := service.scanComponent(executionContext, componentRecord, options, scannedAt)
			if componentError != nil {
				return nil, componentError
			}
			collectedFindings = append(collectedFindings, componentFindings...)
		}
	}

	service.logger.Info(scanSummaryMessageConstant,
		zap.Int("findings", len(collectedFindings)),
		zap.Strings("namespaces", options.Namespaces),
	)
	return collectedFindings, nil
}

func (service *Service) scanComponent(executionContext context.Context, componentRecord konflux.ComponentRecord, options ServiceOptions, scannedAt time.Time) ([]Finding, error) {
	componentFindings := []Finding{}
	newFinding := func(checkName string, severity Severity, detail string) Finding {
		return Finding{
			Squad:       service.roster.SquadForComponent(componentRecord.Name),
			Namespace:   componentRecord.Namespace,
			Application: componentRecord.Application,
			Component:   componentRecord.Name,
			Check:       checkName,
			Severity:    severity,
			Detail:      detail,
			ScannedAt:   scannedAt,
		}
	}

	repositoryRemote, remoteUsable := service.resolveGitHubRemote(componentRecord)
	if remoteUsable && service.repositories != nil {
		repositoryFindings, repositoryError := service.runRepositoryChecks(executionContext, componentRecord, repositoryRemote, newFinding)
		if repositoryError != nil {
			return nil, repositoryError
		}
		componentFindings = append(componentFindings, repositoryFindings...)
	}

	contractFinding, contractError := service.runEnterpriseContractCheck(executionContext, componentRecord, newFinding)
	if contractError != nil {
		return nil, contractError
	}
	componentFindings = append(componentFindings, contractFinding...)

	if service.inspector != nil && len(componentRecord.ContainerImage) > 0 {
		componentFindings = append(componentFindings, service.runImageLabelCheck(executionContext, componentRecord, options.RequiredImageLabels, newFinding)...)
	}

	return componentFindings, nil
}

func (service *Service) resolveGitHubRemote(componentRecord konflux.ComponentRecord) (gitrepo.RemoteURL, bool) {
	if len(componentRecord.GitURL) == 0 {
		service.logger.Warn(componentSkippedMessageConstant,
			zap.String("component", componentRecord.Name),
			zap.String("namespace", componentRecord.Namespace),
		)
		return gitrepo.RemoteURL{}, false
	}

	remoteURL, parseError := gitrepo.ParseRemoteURL(componentRecord.GitURL)
	if parseError != nil || !remoteURL.IsGitHub() {
		service.logger.Warn(componentSkippedMessageConstant,
			zap.String("component", componentRecord.Name),
			zap.String("git_url", componentRecord.GitURL),
		)
		return gitrepo.RemoteURL{}, false
	}
	return remoteURL, true
}

func (service *Service) runRepositoryChecks(executionContext context.Context, componentRecord konflux.ComponentRecord, remoteURL gitrepo.RemoteURL, newFinding func(string, Severity, string) Finding) ([]Finding, error) {
	repositoryFindings := []Finding{}

	pipelineContent, pipelineFound, fetchError := service.fetchPipelineDefinition(executionContext, componentRecord, remoteURL)
	if fetchError != nil {
		return nil, fetchError
	}

	if !pipelineFound {
		primaryPath := fmt.Sprintf(pushPipelinePathTemplateConstant, componentRecord.Name)
		fallbackPath := fmt.Sprintf(onPushPipelinePathTemplateConstant, componentRecord.Name)
		repositoryFindings = append(repositoryFindings, newFinding(CheckMissingPipeline, SeverityMajor, fmt.Sprintf(missingPipelineDetailTemplateConstant, primaryPath, fallbackPath)))
	} else {
		pipelineDefinition, parseError := ParsePipelineDefinition(pipelineContent)
		if parseError != nil {
			repositoryFindings = append(repositoryFindings, newFinding(CheckMissingPipeline, SeverityMajor, parseError.Error()))
		} else {
			if !pipelineDefinition.HermeticEnabled() {
				repositoryFindings = append(repositoryFindings, newFinding(CheckHermeticBuild, SeverityCritical, hermeticDisabledDetailConstant))
			} else if len(strings.TrimSpace(pipelineDefinition.PrefetchInput())) == 0 {
				repositoryFindings = append(repositoryFindings, newFinding(CheckPrefetchInput, SeverityMajor, prefetchMissingDetailConstant))
			}
		}
	}

	staleFinding, staleError := service.runStaleBuildCheck(executionContext, componentRecord, remoteURL, newFinding)
	if staleError != nil {
		return nil, staleError
	}
	repositoryFindings = append(repositoryFindings, staleFinding...)

	return repositoryFindings, nil
}

func (service *Service) fetchPipelineDefinition(executionContext context.Context, componentRecord konflux.ComponentRecord, remoteURL gitrepo.RemoteURL) (string, bool, error) {
	pipelinePaths := []string{
		fmt.Sprintf(pushPipelinePathTemplateConstant, componentRecord.Name),
		fmt.Sprintf(onPushPipelinePathTemplateConstant, componentRecord.Name),
	}

	for _, pipelinePath := range pipelinePaths {
		pipelineContent, fetchError := service.repositories.FileContent(executionContext, remoteURL.Owner, remoteURL.Repository, pipelinePath, componentRecord.GitRevision)
		if fetchError == nil {
			return pipelineContent, true, nil
		}
		var notFoundError githubapi.ContentNotFoundError
		if errors.As(fetchError, &notFoundError) {
			continue
		}
		return "", false, fmt.Errorf(pipelineFetchErrorTemplateConstant, componentRecord.Name, fetchError)
	}
	return "", false, nil
}

func (service *Service) runStaleBuildCheck(executionContext context.Context, componentRecord konflux.ComponentRecord, remoteURL gitrepo.RemoteURL, newFinding func(string, Severity, string) Finding) ([]Finding, error) {
	if len(componentRecord.LastBuiltCommit) == 0 {
		return []Finding{newFinding(CheckStaleBuild, SeverityMinor, noBuiltCommitDetailConstant)}, nil
	}

	branchName := componentRecord.GitRevision
	if len(branchName) == 0 {
		branchName = defaultBranchNameConstant
	}

	headCommit, headError := service.repositories.BranchHeadCommit(executionContext, remoteURL.Owner, remoteURL.Repository, branchName)
	if headError != nil {
		// A pinned revision or a deleted branch yields a permanent API
		// failure for this one component; the rest of the scan proceeds.
		var permanentError githubapi.PermanentAPIError
		if errors.As(headError, &permanentError) {
			service.logger.Warn(branchHeadSkippedMessageConstant,
				zap.String("component", componentRecord.Name),
				zap.String("branch", branchName),
				zap.Int("status_code", permanentError.StatusCode),
			)
			return nil, nil
		}
		return nil, fmt.Errorf(branchHeadErrorTemplateConstant, componentRecord.Name, headError)
	}

	if headCommit != componentRecord.LastBuiltCommit {
		detail := fmt.Sprintf(staleBuildDetailTemplateConstant, componentRecord.LastBuiltCommit, branchName, headCommit)
		return []Finding{newFinding(CheckStaleBuild, SeverityMinor, detail)}, nil
	}
	return nil, nil
}

func (service *Service) runEnterpriseContractCheck(executionContext context.Context, componentRecord konflux.ComponentRecord, newFinding func(string, Severity, string) Finding) ([]Finding, error) {
	if len(componentRecord.Application) == 0 {
		return nil, nil
	}

	snapshotRecord, snapshotError := service.components.LatestSnapshot(executionContext, componentRecord.Namespace, componentRecord.Application)
	if snapshotError != nil {
		return nil, fmt.Errorf(snapshotLookupErrorTemplateConstant, componentRecord.Namespace, componentRecord.Application, snapshotError)
	}
	if snapshotRecord == nil {
		return []Finding{newFinding(CheckEnterpriseContract, SeverityCritical, noSnapshotDetailConstant)}, nil
	}

	for _, testStatus := range snapshotRecord.TestStatuses {
		if !strings.Contains(testStatus.ScenarioName, enterpriseContractScenarioFragmentConstant) {
			continue
		}
		if testStatus.Passed() {
			return nil, nil
		}
		detail := fmt.Sprintf(scenarioFailedDetailTemplateConstant, testStatus.ScenarioName, testStatus.Status, snapshotRecord.Name, testStatus.Details)
		return []Finding{newFinding(CheckEnterpriseContract, SeverityCritical, detail)}, nil
	}

	detail := fmt.Sprintf(scenarioMissingDetailTemplateConstant, snapshotRecord.Name, enterpriseContractScenarioFragmentConstant)
	return []Finding{newFinding(CheckEnterpriseContract, SeverityCritical, detail)}, nil
}

func (service *Service) runImageLabelCheck(executionContext context.Context, componentRecord konflux.ComponentRecord, requiredLabels []string, newFinding func(string, Severity, string) Finding) []Finding {
	if len(requiredLabels) == 0 {
		return nil
	}

	inspectDetails := execshell.CommandDetails{
		Arguments: []string{skopeoInspectSubcommandConstant, skopeoNoTagsFlagConstant, dockerTransportPrefixConstant + componentRecord.ContainerImage},
	}
	inspectResult, inspectError := service.inspector.ExecuteSkopeo(executionContext, inspectDetails)
	if inspectError != nil {
		detail := fmt.Sprintf(inspectFailureDetailTemplateConstant, componentRecord.ContainerImage, inspectError)
		return []Finding{newFinding(CheckImageLabels, SeverityMinor, detail)}
	}

	var inspectDocument struct {
		Labels map[string]string `json:"Labels"`
	}
	if decodeError := json.Unmarshal([]byte(inspectResult.StandardOutput), &inspectDocument); decodeError != nil {
		detail := fmt.Sprintf(inspectFailureDetailTemplateConstant, componentRecord.ContainerImage, decodeError)
		return []Finding{newFinding(CheckImageLabels, SeverityMinor, detail)}
	}

	missingLabels := []string{}
	for _, requiredLabel := range requiredLabels {
		if _, present := inspectDocument.Labels[requiredLabel]; !present {
			missingLabels = append(missingLabels, requiredLabel)
		}
	}
	if len(missingLabels) == 0 {
		return nil
	}

	sort.Strings(missingLabels)
	detail := fmt.Sprintf(labelsMissingDetailTemplateConstant, componentRecord.ContainerImage, strings.Join(missingLabels, ", "))
	return []Finding{newFinding(CheckImageLabels, SeverityMinor, detail)}
}
