package scan

import "time"

// Severity classifies how urgent a finding is.
type Severity string

// Supported severities, highest first.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Check names reported in findings.
const (
	CheckHermeticBuild      = "hermetic-build"
	CheckPrefetchInput      = "prefetch-input"
	CheckEnterpriseContract = "enterprise-contract"
	CheckStaleBuild         = "stale-build"
	CheckImageLabels        = "image-labels"
	CheckMissingPipeline    = "missing-pipeline"
)

// Finding records a single failed compliance check for one component.
type Finding struct {
	Squad       string
	Namespace   string
	Application string
	Component   string
	Check       string
	Severity    Severity
	Detail      string
	ScannedAt   time.Time
}
