package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v63/github"
	"go.uber.org/zap"
)

const (
	coreResourceNameConstant    = "core"
	searchResourceNameConstant  = "search"
	graphqlResourceNameConstant = "graphql"

	fetcherRequiredMessageConstant         = "limits fetcher required"
	rateLimitLoggerRequiredMessageConstant = "logger required"
	emptyLimitsMessageConstant             = "rate limit response carried no resources"

	belowMinimumTemplateConstant     = "core rate limit remaining %d is below the configured minimum %d"
	limitsFetchErrorTemplateConstant = "unable to fetch rate limits: %w"

	resourceBudgetMessageConstant = "rate limit budget"
)

// LimitsFetcher retrieves the current rate limits from GitHub.
type LimitsFetcher interface {
	RateLimits(executionContext context.Context) (*github.RateLimits, error)
}

// ClientLimitsFetcher fetches limits through a go-github client.
type ClientLimitsFetcher struct {
	Client *github.Client
}

// RateLimits queries the rate-limit endpoint.
func (fetcher ClientLimitsFetcher) RateLimits(executionContext context.Context) (*github.RateLimits, error) {
	limits, _, fetchError := fetcher.Client.RateLimit.Get(executionContext)
	return limits, fetchError
}

// ResourceBudget is the rate budget of one API resource family.
type ResourceBudget struct {
	Name      string    `json:"name"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// Report aggregates the budgets relevant to the CI scheduler.
type Report struct {
	Resources []ResourceBudget `json:"resources"`
}

// CoreRemaining returns the remaining core quota, zero when absent.
func (report Report) CoreRemaining() int {
	for _, resourceBudget := range report.Resources {
		if resourceBudget.Name == coreResourceNameConstant {
			return resourceBudget.Remaining
		}
	}
	return 0
}

// BelowMinimumError reports a core budget under the configured floor.
type BelowMinimumError struct {
	Remaining int
	Minimum   int
}

// Error describes the exhausted budget.
func (belowMinimum BelowMinimumError) Error() string {
	return fmt.Sprintf(belowMinimumTemplateConstant, belowMinimum.Remaining, belowMinimum.Minimum)
}

// Service checks rate-limit budgets against a minimum.
type Service struct {
	logger  *zap.Logger
	fetcher LimitsFetcher
}

// NewService wires a rate-limit checker.
func NewService(logger *zap.Logger, fetcher LimitsFetcher) (*Service, error) {
	if logger == nil {
		return nil, errors.New(rateLimitLoggerRequiredMessageConstant)
	}
	if fetcher == nil {
		return nil, errors.New(fetcherRequiredMessageConstant)
	}
	return &Service{logger: logger, fetcher: fetcher}, nil
}

// Check fetches the current budgets, logs them, and returns BelowMinimumError
// when the core budget is under the floor.
func (service *Service) Check(executionContext context.Context, minimumRemaining int) (Report, error) {
	limits, fetchError := service.fetcher.RateLimits(executionContext)
	if fetchError != nil {
		return Report{}, fmt.Errorf(limitsFetchErrorTemplateConstant, fetchError)
	}
	if limits == nil {
		return Report{}, errors.New(emptyLimitsMessageConstant)
	}

	report := Report{}
	appendBudget := func(resourceName string, rate *github.Rate) {
		if rate == nil {
			return
		}
		resourceBudget := ResourceBudget{
			Name:      resourceName,
			Limit:     rate.Limit,
			Remaining: rate.Remaining,
			ResetsAt:  rate.Reset.Time.UTC(),
		}
		report.Resources = append(report.Resources, resourceBudget)
		service.logger.Info(resourceBudgetMessageConstant,
			zap.String("resource", resourceBudget.Name),
			zap.Int("limit", resourceBudget.Limit),
			zap.Int("remaining", resourceBudget.Remaining),
			zap.Time("resets_at", resourceBudget.ResetsAt),
		)
	}
	appendBudget(coreResourceNameConstant, limits.Core)
	appendBudget(searchResourceNameConstant, limits.Search)
	appendBudget(graphqlResourceNameConstant, limits.GraphQL)

	if coreRemaining := report.CoreRemaining(); coreRemaining < minimumRemaining {
		return report, BelowMinimumError{Remaining: coreRemaining, Minimum: minimumRemaining}
	}
	return report, nil
}
