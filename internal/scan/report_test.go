package scan_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/konflux-ci/compliance-scans/internal/scan"
)

const (
	roundTripCaseNameConstant     = "round_trip"
	emptyReportCaseNameConstant   = "empty_report"
	badHeaderCaseNameConstant     = "rejects_unknown_header"
	badTimestampCaseNameConstant  = "rejects_invalid_timestamp"
	shortRowCaseNameConstant      = "rejects_short_row"
	reportExpectedHeaderConstant  = "squad,namespace,application,component,check,severity,detail,scanned_at"
)

func TestReportRoundTrip(testInstance *testing.T) {
	scannedAt := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	originalFindings := []scan.Finding{
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
			Squad:       "unassigned",
			Namespace:   "team-tenant",
			Application: "gateway",
			Component:   "gateway-worker",
			Check:       scan.CheckImageLabels,
			Severity:    scan.SeverityMinor,
			Detail:      "image quay.io/example/worker:latest is missing required labels: release, version",
			ScannedAt:   scannedAt,
		},
	}

	testInstance.Run(roundTripCaseNameConstant, func(subtest *testing.T) {
		var reportBuffer bytes.Buffer
		require.NoError(subtest, scan.WriteReport(&reportBuffer, originalFindings))

		firstLine := strings.SplitN(reportBuffer.String(), "\n", 2)[0]
		require.Equal(subtest, reportExpectedHeaderConstant, firstLine)

		decodedFindings, readError := scan.ReadReport(&reportBuffer)
		require.NoError(subtest, readError)
		require.Equal(subtest, originalFindings, decodedFindings)
	})

	testInstance.Run(emptyReportCaseNameConstant, func(subtest *testing.T) {
		var reportBuffer bytes.Buffer
		require.NoError(subtest, scan.WriteReport(&reportBuffer, nil))

		decodedFindings, readError := scan.ReadReport(&reportBuffer)
		require.NoError(subtest, readError)
		require.Empty(subtest, decodedFindings)
	})
}

func TestReadReportValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		reportContent string
		expectSchema  bool
	}{
		{
			name:          badHeaderCaseNameConstant,
			reportContent: "component,check\nwidget,hermetic-build\n",
			expectSchema:  true,
		},
		{
			name:          shortRowCaseNameConstant,
			reportContent: reportExpectedHeaderConstant + "\nplatform,tenant,app\n",
			expectSchema:  true,
		},
		{
			name:          badTimestampCaseNameConstant,
			reportContent: reportExpectedHeaderConstant + "\nplatform,tenant,app,widget,hermetic-build,critical,detail,yesterday\n",
			expectSchema:  false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subtest *testing.T) {
			_, readError := scan.ReadReport(strings.NewReader(testCase.reportContent))
			require.Error(subtest, readError)
			if testCase.expectSchema {
				var schemaError scan.ReportSchemaError
				require.ErrorAs(subtest, readError, &schemaError)
			}
		})
	}
}
