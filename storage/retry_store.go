package storage

import (
	"context"
	"time"

	"github.com/go-pkgz/repeater"
)

// RetryStore bounds every remote call with a timeout and retries
// transient failures a fixed number of times.
type RetryStore struct {
	next     AssetStore
	attempts int
	delay    time.Duration
	timeout  time.Duration
}

func WithRetry(next AssetStore, attempts int, delay, timeout time.Duration) *RetryStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryStore{next: next, attempts: attempts, delay: delay, timeout: timeout}
}

func (r *RetryStore) Upload(ctx context.Context, localPath, namespace string) (string, error) {
	var ref string
	err := r.do(ctx, func(attemptCtx context.Context) error {
		var err error
		ref, err = r.next.Upload(attemptCtx, localPath, namespace)
		return err
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (r *RetryStore) BulkDelete(ctx context.Context, namespace string, assetIDs []string) error {
	if len(assetIDs) == 0 {
		return nil
	}
	return r.do(ctx, func(attemptCtx context.Context) error {
		return r.next.BulkDelete(attemptCtx, namespace, assetIDs)
	})
}

func (r *RetryStore) do(ctx context.Context, fn func(context.Context) error) error {
	return repeater.NewDefault(r.attempts, r.delay).Do(ctx, func() error {
		if r.timeout <= 0 {
			return fn(ctx)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return fn(attemptCtx)
	})
}
