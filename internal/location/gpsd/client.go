// Package gpsd reads device positions from a gpsd daemon over its JSON
// socket protocol.
package gpsd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/pkg/geo"
)

const (
	// DefaultAddr is gpsd's standard listen address.
	DefaultAddr = "localhost:2947"

	// SourceName labels fixes produced by this package.
	SourceName = "gpsd"

	// NoEstimateAccuracyM is reported when gpsd gives no error estimate.
	NoEstimateAccuracyM = 5_000

	watchCommand = `?WATCH={"enable":true,"json":true};` + "\n"
	pollCommand  = "?POLL;\n"
)

// Config holds configuration for the gpsd client.
type Config struct {
	// Addr is the gpsd host:port (default: DefaultAddr).
	Addr string

	// Consent must be true before any position is read.
	Consent bool

	// DialTimeout bounds connecting to the daemon (default: 2s).
	DialTimeout time.Duration

	Logger zerolog.Logger
	Clock  clockwork.Clock
}

// Client is a location.DeviceSource backed by gpsd.
type Client struct {
	addr        string
	consent     bool
	dialTimeout time.Duration
	logger      zerolog.Logger
	clock       clockwork.Clock
}

var _ location.DeviceSource = (*Client)(nil)

// NewClient creates a gpsd client.
func NewClient(cfg Config) *Client {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Client{
		addr:        cfg.Addr,
		consent:     cfg.Consent,
		dialTimeout: cfg.DialTimeout,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
	}
}

// tpv is a gpsd time-position-velocity report.
type tpv struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Time  string   `json:"time"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	Eph   float64  `json:"eph"`
	Epx   float64  `json:"epx"`
	Epy   float64  `json:"epy"`
}

// report is any line gpsd sends. POLL responses carry their fixes in TPV.
type report struct {
	tpv
	TPV []tpv `json:"tpv"`
}

// Watch streams fixes until ctx is cancelled, then closes the connection and
// the channel.
func (c *Client) Watch(ctx context.Context) (<-chan location.Fix, error) {
	conn, err := c.open(ctx, watchCommand)
	if err != nil {
		return nil, err
	}

	fixes := make(chan location.Fix)
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	go func() {
		defer close(fixes)
		defer stop()
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			for _, fix := range c.parse(scanner.Bytes()) {
				select {
				case fixes <- fix:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.logger.Warn().Err(err).Str("provider", SourceName).Msg("gpsd watch ended")
		}
	}()

	return fixes, nil
}

// Current polls gpsd once and returns the first fix no older than maxAge.
func (c *Client) Current(ctx context.Context, maxAge time.Duration) (location.Fix, error) {
	conn, err := c.open(ctx, watchCommand+pollCommand)
	if err != nil {
		return location.Fix{}, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		for _, fix := range c.parse(scanner.Bytes()) {
			if maxAge > 0 && c.clock.Since(fix.Timestamp) > maxAge {
				continue
			}
			return fix, nil
		}
	}

	if ctx.Err() != nil {
		return location.Fix{}, fmt.Errorf("%w: %w", location.ErrTimeout, ctx.Err())
	}
	if err := scanner.Err(); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return location.Fix{}, fmt.Errorf("%w: %w", location.ErrTimeout, err)
		}
		return location.Fix{}, fmt.Errorf("%w: gpsd read: %w", location.ErrNoCapability, err)
	}
	return location.Fix{}, fmt.Errorf("%w: gpsd closed without a fix", location.ErrTimeout)
}

func (c *Client) open(ctx context.Context, command string) (net.Conn, error) {
	if !c.consent {
		return nil, location.ErrPermissionDenied
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", location.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: dial gpsd %s: %w", location.ErrNoCapability, c.addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write([]byte(command)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: write gpsd command: %w", location.ErrNoCapability, err)
	}
	return conn, nil
}

// parse extracts usable fixes from one protocol line. Reports without a 2D
// fix are skipped.
func (c *Client) parse(line []byte) []location.Fix {
	var r report
	if err := json.Unmarshal(line, &r); err != nil {
		c.logger.Debug().Err(err).Msg("skipping malformed gpsd line")
		return nil
	}

	var reports []tpv
	switch r.Class {
	case "TPV":
		reports = []tpv{r.tpv}
	case "POLL":
		reports = r.TPV
	default:
		return nil
	}

	var fixes []location.Fix
	for _, t := range reports {
		if fix, ok := c.toFix(t); ok {
			fixes = append(fixes, fix)
		}
	}
	return fixes
}

func (c *Client) toFix(t tpv) (location.Fix, bool) {
	if t.Mode < 2 || t.Lat == nil || t.Lon == nil {
		return location.Fix{}, false
	}

	coord, err := geo.NewCoordinate(*t.Lat, *t.Lon)
	if err != nil {
		return location.Fix{}, false
	}

	ts := c.clock.Now()
	if t.Time != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, t.Time); err == nil {
			ts = parsed
		}
	}

	return location.Fix{
		Coordinate: coord,
		AccuracyM:  accuracy(t),
		Timestamp:  ts,
		Source:     SourceName,
	}, true
}

// accuracy is the larger horizontal error axis, else the combined estimate.
func accuracy(t tpv) float64 {
	if t.Epx > 0 || t.Epy > 0 {
		return math.Max(t.Epx, t.Epy)
	}
	if t.Eph > 0 {
		return t.Eph
	}
	return NoEstimateAccuracyM
}
