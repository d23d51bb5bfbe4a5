package gpsd_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location"
	"github.com/SaniyaPatil13/local-air-guardian-now/internal/location/gpsd"
)

// fakeDaemon accepts one connection, records the commands it reads and then
// writes lines. With hold set it keeps the connection open until closed.
type fakeDaemon struct {
	ln       net.Listener
	commands chan string
}

func newFakeDaemon(t *testing.T, lines []string, hold bool) *fakeDaemon {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	d := &fakeDaemon{ln: ln, commands: make(chan string, 4)}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		first, _ := reader.ReadString('\n')
		d.commands <- strings.TrimSpace(first)

		w := bufio.NewWriter(conn)
		w.WriteString(`{"class":"VERSION","release":"3.25","proto_major":3,"proto_minor":15}` + "\n")
		for _, l := range lines {
			w.WriteString(l + "\n")
		}
		w.Flush()

		if hold {
			_, _ = reader.ReadString(0)
		}
	}()
	return d
}

func (d *fakeDaemon) addr() string { return d.ln.Addr().String() }

var fixedNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newClient(addr string) *gpsd.Client {
	return gpsd.NewClient(gpsd.Config{
		Addr:    addr,
		Consent: true,
		Logger:  zerolog.Nop(),
		Clock:   clockwork.NewFakeClockAt(fixedNow),
	})
}

func TestClient_CurrentFromPoll(t *testing.T) {
	d := newFakeDaemon(t, []string{
		`{"class":"DEVICES","devices":[]}`,
		`{"class":"WATCH","enable":true,"json":true}`,
		`{"class":"POLL","time":"2026-10-17T08:59:58.000Z","active":1,"tpv":[{"class":"TPV","mode":3,"time":"2026-10-17T08:59:58.000Z","lat":19.0596,"lon":72.8295,"epx":12.5,"epy":18.0}]}`,
	}, false)

	fix, err := newClient(d.addr()).Current(context.Background(), 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, `?WATCH={"enable":true,"json":true};`, <-d.commands)
	assert.InDelta(t, 19.0596, fix.Coordinate.Lat, 1e-9)
	assert.InDelta(t, 72.8295, fix.Coordinate.Lon, 1e-9)
	assert.Equal(t, 18.0, fix.AccuracyM)
	assert.Equal(t, gpsd.SourceName, fix.Source)
	assert.True(t, fix.Timestamp.Equal(time.Date(2026, 10, 17, 8, 59, 58, 0, time.UTC)))
}

func TestClient_CurrentSkipsStaleAndNoFix(t *testing.T) {
	d := newFakeDaemon(t, []string{
		`{"class":"TPV","mode":1}`,
		`{"class":"TPV","mode":2,"time":"2026-10-17T08:00:00.000Z","lat":28.61,"lon":77.20,"eph":40}`,
		`not json`,
		`{"class":"TPV","mode":2,"time":"2026-10-17T08:58:00.000Z","lat":28.62,"lon":77.21,"eph":40}`,
	}, false)

	fix, err := newClient(d.addr()).Current(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	assert.InDelta(t, 28.62, fix.Coordinate.Lat, 1e-9)
	assert.Equal(t, 40.0, fix.AccuracyM)
}

func TestClient_CurrentClosedWithoutFix(t *testing.T) {
	d := newFakeDaemon(t, []string{`{"class":"TPV","mode":1}`}, false)

	_, err := newClient(d.addr()).Current(context.Background(), time.Minute)
	assert.ErrorIs(t, err, location.ErrTimeout)
}

func TestClient_CurrentDeadline(t *testing.T) {
	d := newFakeDaemon(t, nil, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newClient(d.addr()).Current(ctx, time.Minute)
	assert.ErrorIs(t, err, location.ErrTimeout)
}

func TestClient_NoConsent(t *testing.T) {
	c := gpsd.NewClient(gpsd.Config{Addr: "127.0.0.1:1", Consent: false})

	_, err := c.Current(context.Background(), time.Minute)
	assert.ErrorIs(t, err, location.ErrPermissionDenied)

	_, err = c.Watch(context.Background())
	assert.ErrorIs(t, err, location.ErrPermissionDenied)
}

func TestClient_NoDaemon(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = newClient(addr).Current(context.Background(), time.Minute)
	assert.ErrorIs(t, err, location.ErrNoCapability)
}

func TestClient_WatchStreamsUntilCancelled(t *testing.T) {
	d := newFakeDaemon(t, []string{
		`{"class":"TPV","mode":2,"lat":19.1197,"lon":72.8464,"eph":120}`,
		`{"class":"SKY","satellites":[]}`,
		`{"class":"TPV","mode":3,"lat":19.1198,"lon":72.8465,"epx":9,"epy":7}`,
	}, true)

	ctx, cancel := context.WithCancel(context.Background())
	fixes, err := newClient(d.addr()).Watch(ctx)
	require.NoError(t, err)

	first := <-fixes
	second := <-fixes
	assert.Equal(t, 120.0, first.AccuracyM)
	assert.Equal(t, 9.0, second.AccuracyM)
	assert.True(t, first.Timestamp.Equal(fixedNow))

	cancel()
	select {
	case _, ok := <-fixes:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed after cancel")
	}
}

func TestClient_NoEstimateAccuracy(t *testing.T) {
	d := newFakeDaemon(t, []string{`{"class":"TPV","mode":2,"lat":12.91,"lon":77.61}`}, false)

	fix, err := newClient(d.addr()).Current(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, float64(gpsd.NoEstimateAccuracyM), fix.AccuracyM)
}
