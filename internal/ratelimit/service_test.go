package ratelimit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-github/v63/github"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/konflux-ci/compliance-scans/internal/ratelimit"
)

type stubLimitsFetcher struct {
	limits     *github.RateLimits
	fetchError error
}

func (stub stubLimitsFetcher) RateLimits(_ context.Context) (*github.RateLimits, error) {
	return stub.limits, stub.fetchError
}

func sampleLimits(coreRemaining int) *github.RateLimits {
	resetTime := github.Timestamp{Time: time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)}
	return &github.RateLimits{
		Core:    &github.Rate{Limit: 5000, Remaining: coreRemaining, Reset: resetTime},
		Search:  &github.Rate{Limit: 30, Remaining: 28, Reset: resetTime},
		GraphQL: &github.Rate{Limit: 5000, Remaining: 4999, Reset: resetTime},
	}
}

func newCheckService(testInstance *testing.T, fetcher ratelimit.LimitsFetcher) *ratelimit.Service {
	testInstance.Helper()
	service, serviceError := ratelimit.NewService(zap.NewNop(), fetcher)
	require.NoError(testInstance, serviceError)
	return service
}

func TestCheckReportsEveryResource(testInstance *testing.T) {
	service := newCheckService(testInstance, stubLimitsFetcher{limits: sampleLimits(4200)})

	report, checkError := service.Check(context.Background(), 100)
	require.NoError(testInstance, checkError)
	require.Len(testInstance, report.Resources, 3)
	require.Equal(testInstance, "core", report.Resources[0].Name)
	require.Equal(testInstance, 4200, report.CoreRemaining())
}

func TestCheckFailsBelowMinimum(testInstance *testing.T) {
	service := newCheckService(testInstance, stubLimitsFetcher{limits: sampleLimits(42)})

	report, checkError := service.Check(context.Background(), 100)
	require.Error(testInstance, checkError)
	require.Len(testInstance, report.Resources, 3)

	var belowMinimum ratelimit.BelowMinimumError
	require.ErrorAs(testInstance, checkError, &belowMinimum)
	require.Equal(testInstance, 42, belowMinimum.Remaining)
	require.Equal(testInstance, 100, belowMinimum.Minimum)
}

func TestCheckPropagatesFetchFailures(testInstance *testing.T) {
	service := newCheckService(testInstance, stubLimitsFetcher{fetchError: errors.New("network unreachable")})

	_, checkError := service.Check(context.Background(), 100)
	require.Error(testInstance, checkError)
	require.Contains(testInstance, checkError.Error(), "network unreachable")
}

func TestReportSerializesForTheScheduler(testInstance *testing.T) {
	service := newCheckService(testInstance, stubLimitsFetcher{limits: sampleLimits(4200)})

	report, checkError := service.Check(context.Background(), 100)
	require.NoError(testInstance, checkError)

	var encodedReport bytes.Buffer
	require.NoError(testInstance, json.NewEncoder(&encodedReport).Encode(report))

	var decodedReport ratelimit.Report
	require.NoError(testInstance, json.Unmarshal(encodedReport.Bytes(), &decodedReport))
	require.Equal(testInstance, report, decodedReport)
}
