package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa-platform/models"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// RetryPolicy wraps storage operations with bounded exponential backoff.
// Domain errors (duplicates, not found, quota) never retry; after the retry
// budget is exhausted the caller sees ErrStorageUnavailable wrapping the
// underlying cause.
type RetryPolicy struct {
	MaxTries uint
	Base     time.Duration
}

func NewRetryPolicy(maxTries int, base time.Duration) RetryPolicy {
	if maxTries < 1 {
		maxTries = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	return RetryPolicy{MaxTries: uint(maxTries), Base: base}
}

// domainError reports whether err carries application semantics that retrying
// cannot change.
func domainError(err error) bool {
	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrDuplicateTenant),
		errors.Is(err, models.ErrQuotaExceeded),
		errors.Is(err, models.ErrForbidden),
		errors.Is(err, models.ErrInvalidCredential),
		errors.Is(err, models.ErrEmptyDocument):
		return true
	case mongo.IsDuplicateKeyError(err):
		return true
	}
	return false
}

// Do runs op under the policy. The final error is ErrStorageUnavailable when
// every attempt failed with a transient storage error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Base

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := op(ctx); err != nil {
			if domainError(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(p.MaxTries))

	if err == nil {
		return nil
	}
	if domainError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
}
