package node

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadcell-project/quadcell-go/pkg/lorastack"
	"github.com/quadcell-project/quadcell-go/pkg/lorastack/simstack"
	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
	"github.com/quadcell-project/quadcell-go/pkg/nvstore"
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
	"github.com/quadcell-project/quadcell-go/pkg/retained"
	"github.com/quadcell-project/quadcell-go/pkg/sensor"
	"github.com/quadcell-project/quadcell-go/pkg/session"
	"github.com/quadcell-project/quadcell-go/pkg/uplink"
)

// eventRecorder captures radio events for assertions.
type eventRecorder struct {
	events []radiolog.Event
}

func (r *eventRecorder) Log(e radiolog.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) byCategory(c radiolog.Category) []radiolog.Event {
	var out []radiolog.Event
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}

// fixture wires a Node to a simulated stack and sensor over real file
// stores in a temp dir, modeling one powered-on lifetime of the firmware.
type fixture struct {
	t *testing.T

	stack  *simstack.Stack
	reader *sensor.SimReader
	kv     *nvstore.Store
	codec  *session.Codec
	cfg    *nodecfg.Config
	region *retained.Region
	path   string
	events *eventRecorder
	pauses []time.Duration
	node   *Node
}

func newFixture(t *testing.T, stackOpts simstack.Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{t: t, path: filepath.Join(dir, "retained.cbor")}
	f.kv = nvstore.NewStore(filepath.Join(dir, "store.json"))
	f.rebuild(simstack.New(stackOpts), retained.Load(f.path))
	return f
}

// rebuild assembles a fresh Node around the given stack and region,
// sharing the fixture's persistent store. Used both for initial setup and
// to model a wake (fresh stack, retained region survives) or a cold boot
// (fresh stack, zero region).
func (f *fixture) rebuild(stack *simstack.Stack, region *retained.Region) {
	f.t.Helper()
	f.stack = stack
	f.region = region
	f.codec = session.NewCodec(f.kv)
	f.reader = sensor.NewSimReader(sensor.Readings{1000, 2000, 3000, 4000})
	f.reader.Settle = func(time.Duration) {}
	cfg := nodecfg.Default()
	f.cfg = &cfg
	f.events = &eventRecorder{}
	f.pauses = nil

	n, err := New(Options{
		Stack:        f.stack,
		Sensor:       f.reader,
		Codec:        f.codec,
		Config:       f.cfg,
		ConfigStore:  nodecfg.NewStore(f.kv),
		Retained:     f.region,
		RetainedPath: f.path,
		Events:       f.events,
		Pause:        func(d time.Duration) { f.pauses = append(f.pauses, d) },
	})
	require.NoError(f.t, err)
	f.node = n
}

// wake models a timed wake after deep sleep: the stack loses its state,
// the retained region is reloaded from its backing file.
func (f *fixture) wake(stackOpts simstack.Options) {
	f.t.Helper()
	f.rebuild(simstack.New(stackOpts), retained.Load(f.path))
}

func (f *fixture) run() CycleResult {
	f.t.Helper()
	result, err := f.node.RunCycle(context.Background())
	require.NoError(f.t, err)
	return result
}

func (f *fixture) persistedDevNonce() uint16 {
	f.t.Helper()
	nonces, err := f.codec.RestoreNonces()
	require.NoError(f.t, err)
	return binary.BigEndian.Uint16(nonces[:2])
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, ErrMissingDependency)
}

func TestColdBootJoinsAndTransmits(t *testing.T) {
	f := newFixture(t, simstack.Options{})

	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.True(t, result.DataSent)
	assert.True(t, result.StatusSent, "first established session reports status immediately")
	assert.Equal(t, uint32(1), f.region.BootCount)
	assert.True(t, f.region.SessionValid)
	assert.Equal(t, uint16(1), f.stack.DevNonce())
	assert.Equal(t, uint16(1), f.persistedDevNonce())

	require.Len(t, f.stack.Uplinks, 2)
	assert.Equal(t, uint8(uplink.DataPort), f.stack.Uplinks[0].Port)
	assert.Len(t, f.stack.Uplinks[0].Payload, uplink.FrameLen)
	assert.Equal(t, uint8(uplink.StatusPort), f.stack.Uplinks[1].Port)

	// Fresh join settles before the first frame.
	assert.Contains(t, f.pauses, JoinSettleDelay)
}

func TestSecondWakeResumesSession(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	f.node.PrepareSleep()

	f.wake(simstack.Options{})
	result := f.run()

	assert.Equal(t, PhaseResumeOK, result.Phase)
	assert.True(t, result.DataSent)
	assert.Equal(t, uint16(1), f.stack.DevNonce(), "resume consumes no dev nonce")
	assert.Contains(t, f.pauses, ResumeSettleDelay)
	assert.NotContains(t, f.pauses, JoinSettleDelay)

	// Frame counters continue from the previous lifetime.
	require.NotEmpty(t, f.stack.Uplinks)
	assert.Greater(t, f.stack.Uplinks[0].FCnt, uint32(2))
}

func TestFailedResumeFallsBackToJoinSameCycle(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	f.node.PrepareSleep()

	f.wake(simstack.Options{ResumeFailures: 1})
	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.True(t, result.DataSent)
	assert.Equal(t, uint16(2), f.stack.DevNonce(), "fallback join consumes the next nonce")
	assert.True(t, f.region.SessionValid)

	resumes := f.events.byCategory(radiolog.CategoryResume)
	require.Len(t, resumes, 1)
	assert.NotEmpty(t, resumes[0].Error)
}

func TestJoinRetriesThenGivesUp(t *testing.T) {
	f := newFixture(t, simstack.Options{JoinFailures: JoinMaxAttempts})

	result := f.run()

	assert.Equal(t, PhaseJoinFailed, result.Phase)
	assert.False(t, result.DataSent)
	assert.False(t, f.region.SessionValid)
	assert.Empty(t, f.stack.Uplinks)

	// Backoff between attempts, not after the last one.
	backoffs := 0
	for _, d := range f.pauses {
		if d == JoinRetryBackoff {
			backoffs++
		}
	}
	assert.Equal(t, JoinMaxAttempts-1, backoffs)

	joins := f.events.byCategory(radiolog.CategoryJoin)
	require.Len(t, joins, JoinMaxAttempts)
	assert.Equal(t, 1, joins[0].Attempt)
	assert.Equal(t, JoinMaxAttempts, joins[len(joins)-1].Attempt)
}

func TestNonceHistorySurvivesPowerLoss(t *testing.T) {
	f := newFixture(t, simstack.Options{JoinFailures: JoinMaxAttempts})
	f.run()

	// Every failed handshake consumed a nonce and flushed it.
	assert.Equal(t, uint16(JoinMaxAttempts), f.persistedDevNonce())

	// Cold power loss: retained file never written, stack state gone.
	// Only the persistent store survives.
	f.rebuild(simstack.New(simstack.Options{}), retained.Load(filepath.Join(t.TempDir(), "absent.cbor")))
	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.Equal(t, uint16(JoinMaxAttempts+1), f.stack.DevNonce(),
		"join resumes nonce history from the persistent store, never reuses a value")
}

func TestSkippedSleepThenFailedResumeAdvancesNonces(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	f.node.PrepareSleep() // retained image holds dev nonce 1

	// A failed resume falls back to a join, consuming dev nonce 2 and
	// flushing it. The cycle ends without a sleep snapshot (restart
	// command, mid-cycle power loss), leaving the retained image behind
	// the persistent store.
	f.wake(simstack.Options{ResumeFailures: 1})
	f.run()
	require.Equal(t, uint16(2), f.persistedDevNonce())

	// The next wake resumes from the stale retained image. When that
	// resume fails, the fallback join must continue from the persisted
	// history rather than reuse a value the stale image reports as free.
	f.wake(simstack.Options{ResumeFailures: 1})
	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.Equal(t, uint16(3), f.stack.DevNonce())
	assert.Equal(t, uint16(3), f.persistedDevNonce())
}

func TestPeriodicNonceFlush(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	persistedAfterJoin := f.persistedDevNonce()

	// Advance to one transmission short of the flush cadence. The data
	// frame of the next cycle lands exactly on the boundary.
	f.region.TxCount = NonceFlushInterval - 1
	f.run()

	assert.Equal(t, uint32(NonceFlushInterval), f.region.TxCount)
	assert.Equal(t, f.stack.DevNonce(), f.persistedDevNonce())
	assert.Equal(t, persistedAfterJoin, f.persistedDevNonce())
}

func TestStatusCadence(t *testing.T) {
	f := newFixture(t, simstack.Options{})

	first := f.run()
	require.True(t, first.StatusSent, "sentinel marker forces the first report")
	marker := f.region.LastStatusMinute
	assert.NotZero(t, marker, "marker must leave the never-sent sentinel")

	second := f.run()
	assert.False(t, second.StatusSent, "interval not elapsed")
	assert.Equal(t, marker, f.region.LastStatusMinute)

	// Advance logical time past the reporting interval. With the default
	// interval each boot is five logical minutes.
	f.region.BootCount += StatusIntervalMinutes / 5
	third := f.run()
	assert.True(t, third.StatusSent)
	assert.Greater(t, f.region.LastStatusMinute, marker)
}

func TestStatusRequestDownlink(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	require.NotZero(t, f.region.LastStatusMinute)

	// Not due by time, but the server asks for one.
	f.stack.QueueDownlink([]byte{0x30})
	result := f.run()

	assert.True(t, result.StatusSent)
	statusFrames := 0
	for _, u := range f.stack.Uplinks {
		if u.Port == uplink.StatusPort {
			statusFrames++
		}
	}
	assert.Equal(t, 2, statusFrames)
}

func TestConfigDownlinkAppliesAndPersists(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()

	f.stack.QueueDownlink([]byte{0x20, 0x00, 0x3C}) // interval 60s
	f.run()

	assert.Equal(t, uint16(60), f.cfg.TxIntervalSeconds)
	assert.Equal(t, 60*time.Second, f.node.WakeInterval())

	stored, err := nodecfg.NewStore(f.kv).Load()
	require.NoError(t, err)
	assert.Equal(t, uint16(60), stored.TxIntervalSeconds)
}

func TestRestartDownlinkShortCircuitsCycle(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	f.node.PrepareSleep()

	f.wake(simstack.Options{})
	f.stack.QueueDownlink([]byte{0xFF})
	result := f.run()

	assert.True(t, result.Restart)
	assert.False(t, result.StatusSent, "restart skips the rest of the cycle")
}

func TestRadioInitFailureSkipsCycle(t *testing.T) {
	f := newFixture(t, simstack.Options{InitFailures: 1})

	result, err := f.node.RunCycle(context.Background())

	require.ErrorIs(t, err, lorastack.ErrInitFailed)
	assert.Equal(t, PhaseColdStart, result.Phase)
	assert.False(t, result.DataSent)
	assert.Equal(t, uint32(1), f.region.BootCount, "wake still counts")
}

// notJoinedStack reports a live session at establishment time but fails
// delivery as if the network dropped the device in between.
type notJoinedStack struct {
	*simstack.Stack
}

func (s *notJoinedStack) Send(uint8, []byte) (lorastack.SendResult, []byte, error) {
	return lorastack.SendFailed, nil, lorastack.ErrNotJoined
}

func TestNotJoinedSendInvalidatesSession(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	inner := simstack.New(simstack.Options{})
	f.rebuild(inner, retained.Load(f.path))
	f.node.stack = &notJoinedStack{Stack: inner}

	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.False(t, result.DataSent)
	assert.False(t, f.region.SessionValid,
		"a not-joined report means the next resume is doomed")
}

// silentFailStack reports delivery failure without an error value, as a
// driver is allowed to.
type silentFailStack struct {
	*simstack.Stack
}

func (s *silentFailStack) Send(uint8, []byte) (lorastack.SendResult, []byte, error) {
	return lorastack.SendFailed, nil, nil
}

func TestSendFailureWithoutErrorValue(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	inner := simstack.New(simstack.Options{})
	f.rebuild(inner, retained.Load(f.path))
	f.node.stack = &silentFailStack{Stack: inner}

	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.False(t, result.DataSent)
	assert.False(t, result.StatusSent)
	assert.True(t, f.region.SessionValid, "a plain send failure keeps the session")

	uplinks := f.events.byCategory(radiolog.CategoryUplink)
	require.Len(t, uplinks, 2)
	for _, e := range uplinks {
		assert.NotEmpty(t, e.Error)
	}
}

func TestSensorFailureStillReportsStatus(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.node.sensor = failingReader{}

	result := f.run()

	assert.Equal(t, PhaseJoinOK, result.Phase)
	assert.False(t, result.DataSent)
	assert.True(t, result.StatusSent, "status path is independent of acquisition")
}

type failingReader struct{}

func (failingReader) ReadAll(context.Context, time.Duration) (sensor.Readings, error) {
	return sensor.Readings{}, sensor.ErrPoweredDown
}
func (failingReader) PowerDown() error { return nil }
func (failingReader) PowerUp() error   { return nil }

func TestPrepareSleepSnapshotsAndPowersDown(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()

	f.node.PrepareSleep()

	assert.True(t, f.reader.PoweredDown())

	reloaded := retained.Load(f.path)
	assert.Equal(t, f.region.BootCount, reloaded.BootCount)
	assert.True(t, reloaded.SessionValid)
	assert.False(t, reloaded.Nonces.IsZero())
	assert.False(t, reloaded.Session.IsZero())

	sleeps := f.events.byCategory(radiolog.CategorySleep)
	assert.Len(t, sleeps, 1)
}

func TestPrepareSleepRespectsPowerControlSetting(t *testing.T) {
	f := newFixture(t, simstack.Options{})
	f.run()
	f.cfg.SensorPowerControl = false

	f.node.PrepareSleep()

	assert.False(t, f.reader.PoweredDown())
}
