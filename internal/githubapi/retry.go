package githubapi

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/go-github/v63/github"
	"go.uber.org/zap"
)

const (
	defaultMaximumAttemptsConstant       = 4
	defaultMaximumRateLimitWaitsConstant = 2
	defaultBaseDelayConstant             = 500 * time.Millisecond
	defaultMaximumDelayConstant          = 30 * time.Second
	rateLimitResetGraceConstant          = time.Second
)

const (
	retryExhaustedTemplateConstant        = "%s gave up after %d attempts: %s"
	permanentFailureTemplateConstant      = "%s failed with status %d: %s"
	operationLogFieldNameConstant         = "operation"
	attemptLogFieldNameConstant           = "attempt"
	delayLogFieldNameConstant             = "delay"
	rateLimitResetLogFieldNameConstant    = "rate_limit_reset"
	retryAfterLogFieldNameConstant        = "retry_after"
	primaryRateLimitHitMessageConstant    = "primary rate limit exhausted, waiting for reset"
	secondaryRateLimitHitMessageConstant  = "secondary rate limit triggered, backing off"
	transientFailureRetryMessageConstant  = "transient GitHub API failure, retrying"
	loggerRequiredMessageConstant         = "invoker logger required"
)

// ErrInvokerLoggerRequired indicates invoker construction without a logger.
var ErrInvokerLoggerRequired = errors.New(loggerRequiredMessageConstant)

// Operation is a single GitHub API call eligible for retry.
type Operation func(executionContext context.Context) (*github.Response, error)

// RetryPolicy bounds how the invoker reacts to retryable failures.
type RetryPolicy struct {
	MaximumAttempts       int
	MaximumRateLimitWaits int
	BaseDelay             time.Duration
	MaximumDelay          time.Duration
}

// DefaultRetryPolicy returns the policy used by the scan and rate-limit commands.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaximumAttempts:       defaultMaximumAttemptsConstant,
		MaximumRateLimitWaits: defaultMaximumRateLimitWaitsConstant,
		BaseDelay:             defaultBaseDelayConstant,
		MaximumDelay:          defaultMaximumDelayConstant,
	}
}

func (policy RetryPolicy) normalized() RetryPolicy {
	normalizedPolicy := policy
	if normalizedPolicy.MaximumAttempts <= 0 {
		normalizedPolicy.MaximumAttempts = defaultMaximumAttemptsConstant
	}
	if normalizedPolicy.MaximumRateLimitWaits <= 0 {
		normalizedPolicy.MaximumRateLimitWaits = defaultMaximumRateLimitWaitsConstant
	}
	if normalizedPolicy.BaseDelay <= 0 {
		normalizedPolicy.BaseDelay = defaultBaseDelayConstant
	}
	if normalizedPolicy.MaximumDelay <= 0 {
		normalizedPolicy.MaximumDelay = defaultMaximumDelayConstant
	}
	return normalizedPolicy
}

// RetryExhaustedError reports an operation that stayed retryable past the attempt budget.
type RetryExhaustedError struct {
	OperationName string
	Attempts      int
	Cause         error
}

// Error describes the exhausted retry budget.
func (exhaustedError RetryExhaustedError) Error() string {
	return fmt.Sprintf(retryExhaustedTemplateConstant, exhaustedError.OperationName, exhaustedError.Attempts, exhaustedError.Cause)
}

// Unwrap exposes the final underlying failure.
func (exhaustedError RetryExhaustedError) Unwrap() error {
	return exhaustedError.Cause
}

// PermanentAPIError reports a failure that retrying cannot fix.
type PermanentAPIError struct {
	OperationName string
	StatusCode    int
	Cause         error
}

// Error describes the permanent failure.
func (permanentError PermanentAPIError) Error() string {
	return fmt.Sprintf(permanentFailureTemplateConstant, permanentError.OperationName, permanentError.StatusCode, permanentError.Cause)
}

// Unwrap exposes the underlying API error.
func (permanentError PermanentAPIError) Unwrap() error {
	return permanentError.Cause
}

// Sleeper pauses for the supplied duration, honoring context cancellation.
type Sleeper func(executionContext context.Context, duration time.Duration) error

func defaultSleeper(executionContext context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	delayTimer := time.NewTimer(duration)
	defer delayTimer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-delayTimer.C:
		return nil
	}
}

// Invoker executes GitHub API operations under a retry policy.
type Invoker struct {
	logger *zap.Logger
	policy RetryPolicy
	sleep  Sleeper
	clock  func() time.Time
}

// NewInvoker constructs an Invoker with the supplied logger and policy.
func NewInvoker(logger *zap.Logger, policy RetryPolicy) (*Invoker, error) {
	if logger == nil {
		return nil, ErrInvokerLoggerRequired
	}
	return &Invoker{
		logger: logger,
		policy: policy.normalized(),
		sleep:  defaultSleeper,
		clock:  time.Now,
	}, nil
}

// WithSleeper overrides the delay function; used by tests to avoid real waits.
func (invoker *Invoker) WithSleeper(sleeper Sleeper) *Invoker {
	if sleeper != nil {
		invoker.sleep = sleeper
	}
	return invoker
}

// WithClock overrides the time source; used by tests to pin rate-limit waits.
func (invoker *Invoker) WithClock(clock func() time.Time) *Invoker {
	if clock != nil {
		invoker.clock = clock
	}
	return invoker
}

// Invoke runs the operation, retrying transient failures and waiting out rate
// limits. Primary rate-limit waits have their own budget and do not consume
// regular attempts, because a reset wait is bounded by the API itself rather
// than by exponential growth.
func (invoker *Invoker) Invoke(executionContext context.Context, operationName string, operation Operation) error {
	attemptsUsed := 0
	rateLimitWaitsUsed := 0

	var lastFailure error

	for {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}

		_, operationError := operation(executionContext)
		if operationError == nil {
			return nil
		}
		lastFailure = operationError

		rateLimitError := &github.RateLimitError{}
		if errors.As(operationError, &rateLimitError) {
			if rateLimitWaitsUsed >= invoker.policy.MaximumRateLimitWaits {
				return RetryExhaustedError{OperationName: operationName, Attempts: attemptsUsed + rateLimitWaitsUsed, Cause: lastFailure}
			}
			rateLimitWaitsUsed++

			resetDelay := rateLimitError.Rate.Reset.Time.Sub(invoker.clock()) + rateLimitResetGraceConstant
			if resetDelay < 0 {
				resetDelay = rateLimitResetGraceConstant
			}
			invoker.logger.Warn(
				primaryRateLimitHitMessageConstant,
				zap.String(operationLogFieldNameConstant, operationName),
				zap.Time(rateLimitResetLogFieldNameConstant, rateLimitError.Rate.Reset.Time),
				zap.Duration(delayLogFieldNameConstant, resetDelay),
			)
			if sleepError := invoker.sleep(executionContext, resetDelay); sleepError != nil {
				return sleepError
			}
			continue
		}

		abuseRateLimitError := &github.AbuseRateLimitError{}
		if errors.As(operationError, &abuseRateLimitError) {
			attemptsUsed++
			if attemptsUsed >= invoker.policy.MaximumAttempts {
				return RetryExhaustedError{OperationName: operationName, Attempts: attemptsUsed, Cause: lastFailure}
			}

			retryDelay := invoker.backoffDelay(attemptsUsed)
			if abuseRateLimitError.RetryAfter != nil && *abuseRateLimitError.RetryAfter > 0 {
				retryDelay = *abuseRateLimitError.RetryAfter
			}
			invoker.logger.Warn(
				secondaryRateLimitHitMessageConstant,
				zap.String(operationLogFieldNameConstant, operationName),
				zap.Int(attemptLogFieldNameConstant, attemptsUsed),
				zap.Duration(retryAfterLogFieldNameConstant, retryDelay),
			)
			if sleepError := invoker.sleep(executionContext, retryDelay); sleepError != nil {
				return sleepError
			}
			continue
		}

		if statusCode, isPermanent := permanentStatusCode(operationError); isPermanent {
			return PermanentAPIError{OperationName: operationName, StatusCode: statusCode, Cause: operationError}
		}

		attemptsUsed++
		if attemptsUsed >= invoker.policy.MaximumAttempts {
			return RetryExhaustedError{OperationName: operationName, Attempts: attemptsUsed, Cause: lastFailure}
		}

		retryDelay := invoker.backoffDelay(attemptsUsed)
		invoker.logger.Warn(
			transientFailureRetryMessageConstant,
			zap.String(operationLogFieldNameConstant, operationName),
			zap.Int(attemptLogFieldNameConstant, attemptsUsed),
			zap.Duration(delayLogFieldNameConstant, retryDelay),
			zap.Error(operationError),
		)
		if sleepError := invoker.sleep(executionContext, retryDelay); sleepError != nil {
			return sleepError
		}
	}
}

// backoffDelay doubles the base delay per attempt with up to 50% jitter,
// capped at the policy maximum.
func (invoker *Invoker) backoffDelay(attemptNumber int) time.Duration {
	delay := invoker.policy.BaseDelay << (attemptNumber - 1)
	if delay > invoker.policy.MaximumDelay || delay <= 0 {
		delay = invoker.policy.MaximumDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/2 + 1))
	delay += jitter
	if delay > invoker.policy.MaximumDelay {
		delay = invoker.policy.MaximumDelay
	}
	return delay
}

// permanentStatusCode reports whether the failure carries a status code that
// retrying cannot fix. Rate-limit 403s never reach this point: the typed
// rate-limit errors are matched first.
func permanentStatusCode(operationError error) (int, bool) {
	errorResponse := &github.ErrorResponse{}
	if !errors.As(operationError, &errorResponse) {
		return 0, false
	}
	if errorResponse.Response == nil {
		return 0, false
	}

	statusCode := errorResponse.Response.StatusCode
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusUnprocessableEntity, http.StatusGone:
		return statusCode, true
	}
	if statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError && statusCode != http.StatusTooManyRequests {
		return statusCode, true
	}
	return 0, false
}
