package location_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

// fakeDevice streams preset fixes and records whether sampling stopped.
type fakeDevice struct {
	fixes    []location.Fix
	interval time.Duration
	watchErr error
	// hold keeps the stream open after the last fix until cancelled.
	hold bool

	current    location.Fix
	currentErr error
	maxAge     time.Duration

	watching     atomic.Int32
	currentCalls atomic.Int32
}

func (d *fakeDevice) Watch(ctx context.Context) (<-chan location.Fix, error) {
	if d.watchErr != nil {
		return nil, d.watchErr
	}

	ch := make(chan location.Fix)
	d.watching.Add(1)
	go func() {
		defer func() {
			d.watching.Add(-1)
			close(ch)
		}()
		for _, f := range d.fixes {
			if d.interval > 0 {
				select {
				case <-time.After(d.interval):
				case <-ctx.Done():
					return
				}
			}
			select {
			case ch <- f:
			case <-ctx.Done():
				return
			}
		}
		if d.hold {
			<-ctx.Done()
		}
	}()
	return ch, nil
}

func (d *fakeDevice) Current(ctx context.Context, maxAge time.Duration) (location.Fix, error) {
	d.currentCalls.Add(1)
	d.maxAge = maxAge
	if d.currentErr != nil {
		return location.Fix{}, d.currentErr
	}
	return d.current, nil
}

func fixWithAccuracy(acc float64) location.Fix {
	return location.Fix{Coordinate: geo.Coordinate{Lat: 19.07, Lon: 72.87}, AccuracyM: acc}
}

func newDeviceResolver(d location.DeviceSource, wait time.Duration) *location.Resolver {
	return location.NewResolver(location.ResolverConfig{
		Device:           d,
		HighAccuracyWait: wait,
		StandardTimeout:  200 * time.Millisecond,
		Logger:           zerolog.Nop(),
	})
}

func TestCurrentDeviceLocation_StopsAtTargetAccuracy(t *testing.T) {
	device := &fakeDevice{
		fixes: []location.Fix{fixWithAccuracy(120), fixWithAccuracy(25), fixWithAccuracy(5)},
		hold:  true,
	}
	resolver := newDeviceResolver(device, 5*time.Second)

	start := time.Now()
	fix, err := resolver.CurrentDeviceLocation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 25.0, fix.AccuracyM, "first fix at or under target is returned")
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(0), device.watching.Load(), "watch released before return")
	assert.Equal(t, int32(0), device.currentCalls.Load())
}

func TestCurrentDeviceLocation_ReturnsBestWhenWaitExpires(t *testing.T) {
	device := &fakeDevice{
		fixes: []location.Fix{fixWithAccuracy(300), fixWithAccuracy(80), fixWithAccuracy(150)},
		hold:  true,
	}
	resolver := newDeviceResolver(device, 100*time.Millisecond)

	fix, err := resolver.CurrentDeviceLocation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 80.0, fix.AccuracyM)
	assert.Equal(t, int32(0), device.watching.Load())
}

func TestCurrentDeviceLocation_ReturnsBestWhenStreamEnds(t *testing.T) {
	device := &fakeDevice{fixes: []location.Fix{fixWithAccuracy(90), fixWithAccuracy(60)}}
	resolver := newDeviceResolver(device, 5*time.Second)

	fix, err := resolver.CurrentDeviceLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60.0, fix.AccuracyM)
}

func TestCurrentDeviceLocation_FallsBackToStandardRequest(t *testing.T) {
	device := &fakeDevice{hold: true, current: fixWithAccuracy(500)}
	resolver := newDeviceResolver(device, 50*time.Millisecond)

	fix, err := resolver.CurrentDeviceLocation(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500.0, fix.AccuracyM)
	assert.Equal(t, int32(1), device.currentCalls.Load())
	assert.Equal(t, 5*time.Minute, device.maxAge)
	assert.Equal(t, int32(0), device.watching.Load())
}

func TestCurrentDeviceLocation_WatchErrorFallsBack(t *testing.T) {
	device := &fakeDevice{watchErr: errors.New("watch unsupported"), current: fixWithAccuracy(40)}
	resolver := newDeviceResolver(device, time.Second)

	fix, err := resolver.CurrentDeviceLocation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 40.0, fix.AccuracyM)
}

func TestCurrentDeviceLocation_Failures(t *testing.T) {
	tests := []struct {
		name   string
		device location.DeviceSource
		target error
	}{
		{name: "no device", device: nil, target: location.ErrNoCapability},
		{
			name:   "permission denied",
			device: &fakeDevice{watchErr: location.ErrPermissionDenied, currentErr: location.ErrPermissionDenied},
			target: location.ErrPermissionDenied,
		},
		{
			name:   "standard request times out",
			device: &fakeDevice{hold: true, currentErr: context.DeadlineExceeded},
			target: location.ErrTimeout,
		},
		{
			name:   "unknown device error",
			device: &fakeDevice{watchErr: errors.New("boom"), currentErr: errors.New("io error")},
			target: location.ErrNoCapability,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newDeviceResolver(tt.device, 20*time.Millisecond)

			_, err := resolver.CurrentDeviceLocation(context.Background())
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCurrentDeviceLocation_DisabledByGate(t *testing.T) {
	device := &fakeDevice{current: fixWithAccuracy(10)}
	resolver := location.NewResolver(location.ResolverConfig{
		Device:        device,
		DeviceEnabled: off,
		Logger:        zerolog.Nop(),
	})

	_, err := resolver.CurrentDeviceLocation(context.Background())
	assert.ErrorIs(t, err, location.ErrNoCapability)
	assert.Equal(t, int32(0), device.currentCalls.Load())
}

func TestCurrentDeviceLocation_HighAccuracyDeadlineUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	device := &fakeDevice{fixes: []location.Fix{fixWithAccuracy(200)}, hold: true}
	resolver := location.NewResolver(location.ResolverConfig{
		Device: device,
		Clock:  clock,
		Logger: zerolog.Nop(),
	})

	type result struct {
		fix location.Fix
		err error
	}
	done := make(chan result, 1)
	go func() {
		fix, err := resolver.CurrentDeviceLocation(context.Background())
		done <- result{fix, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	select {
	case <-done:
		t.Fatal("returned before the sampling window closed")
	case <-time.After(20 * time.Millisecond):
	}

	clock.Advance(8 * time.Second)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, 200.0, res.fix.AccuracyM)
	case <-time.After(2 * time.Second):
		t.Fatal("sampling did not stop after the wait elapsed")
	}
}
