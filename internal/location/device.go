package location

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DeviceSource provides positions from local positioning hardware.
type DeviceSource interface {
	// Watch streams fixes until ctx is cancelled. The source must close the
	// channel once it has stopped sampling.
	Watch(ctx context.Context) (<-chan Fix, error)

	// Current returns a single fix no older than maxAge.
	Current(ctx context.Context, maxAge time.Duration) (Fix, error)
}

// CurrentDeviceLocation returns the device position. It first samples for up
// to the high-accuracy wait and returns early on a fix at or under the target
// accuracy, otherwise the best fix seen. If sampling produced nothing it makes
// one standard request that accepts a recent cached fix.
//
// Errors are ErrNoCapability, ErrPermissionDenied or ErrTimeout. Callers fall
// back to ApproximateLocationByIP themselves.
func (r *Resolver) CurrentDeviceLocation(ctx context.Context) (Fix, error) {
	if r.device == nil || (r.deviceEnabled != nil && !r.deviceEnabled(ctx)) {
		return Fix{}, ErrNoCapability
	}

	ctx, span := r.tracer.Start(ctx, "location.device")
	defer span.End()

	fix, err := r.sampleHighAccuracy(ctx)
	if err == nil {
		return fix, nil
	}
	r.logger.Debug().Err(err).Msg("high-accuracy sampling failed, trying standard request")

	if ctx.Err() != nil {
		return Fix{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.standardTimeout)
	defer cancel()

	fix, err = r.device.Current(reqCtx, r.maxFixAge)
	if err != nil {
		err = classifyDeviceError(reqCtx, err)
		span.RecordError(err)
		return Fix{}, err
	}
	return fix, nil
}

// sampleHighAccuracy consumes a watch until a fix meets the target accuracy
// or the wait expires. The watch is cancelled and drained before returning.
func (r *Resolver) sampleHighAccuracy(ctx context.Context) (Fix, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	fixes, err := r.device.Watch(watchCtx)
	if err != nil {
		cancel()
		return Fix{}, classifyDeviceError(watchCtx, err)
	}
	defer func() {
		cancel()
		for range fixes {
		}
	}()

	timer := r.clock.NewTimer(r.highAccuracyWait)
	defer timer.Stop()

	var (
		best    Fix
		sampled bool
	)

	for {
		select {
		case fix, ok := <-fixes:
			if !ok {
				if sampled {
					return best, nil
				}
				return Fix{}, ErrNoResult
			}
			if !sampled || fix.AccuracyM < best.AccuracyM {
				best, sampled = fix, true
			}
			if fix.AccuracyM <= r.targetAccuracyM {
				return fix, nil
			}
		case <-timer.Chan():
			if sampled {
				return best, nil
			}
			return Fix{}, ErrTimeout
		case <-ctx.Done():
			if sampled {
				return best, nil
			}
			return Fix{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
	}
}

func classifyDeviceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrNoCapability), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrNoCapability, err)
	}
}
