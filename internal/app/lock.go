package app

import (
	"context"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

const lockRetryDelay = 250 * time.Millisecond

var ErrStoreBusy = errors.New("store is locked by another cinelist process")

// lockStore takes the advisory lock beside a store. The returned func
// releases it.
func (a *App) lockStore(ctx context.Context, storePath string, wait time.Duration) (func(), error) {
	lock := flock.New(storePath + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, errors.Wrapf(err, "failed to lock %s", storePath)
	}
	if !ok {
		return nil, errors.Wrapf(ErrStoreBusy, "%s", storePath)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			a.log.Warn().Err(err).Str("store", storePath).Msg("failed to release store lock")
		}
	}, nil
}
