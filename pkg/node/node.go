package node

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quadcell-project/quadcell-go/pkg/downlink"
	"github.com/quadcell-project/quadcell-go/pkg/lorastack"
	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
	"github.com/quadcell-project/quadcell-go/pkg/retained"
	"github.com/quadcell-project/quadcell-go/pkg/sensor"
	"github.com/quadcell-project/quadcell-go/pkg/session"
)

// ErrMissingDependency is returned by New when a required collaborator is
// absent.
var ErrMissingDependency = errors.New("missing node dependency")

// Options assembles a Node from its collaborators.
type Options struct {
	// Stack is the network stack. Required.
	Stack lorastack.Stack

	// Sensor acquires load-cell data. Required.
	Sensor sensor.Reader

	// Codec persists credential buffers. Required.
	Codec *session.Codec

	// Config is the runtime configuration, shared with the downlink
	// processor. Required.
	Config *nodecfg.Config

	// ConfigStore persists accepted configuration mutations. Required.
	ConfigStore *nodecfg.Store

	// Retained is the retained state region. Required.
	Retained *retained.Region

	// RetainedPath is the region's backing file. Required.
	RetainedPath string

	// Events receives radio events. Optional; nil disables event logging.
	Events radiolog.Logger

	// Logger receives application logs. Optional.
	Logger *slog.Logger

	// Pause implements the fixed blocking delays (join backoff, settle
	// time). Optional; defaults to time.Sleep. Tests inject a recorder.
	Pause func(time.Duration)
}

// Node drives one wake cycle at a time. Not safe for concurrent use; the
// single thread of control owns every collaborator by construction.
type Node struct {
	stack    lorastack.Stack
	sensor   sensor.Reader
	codec    *session.Codec
	cfg      *nodecfg.Config
	cfgStore *nodecfg.Store
	region   *retained.Region
	path     string
	events   radiolog.Logger
	logger   *slog.Logger
	pause    func(time.Duration)
	commands *downlink.Processor

	cycleID string
}

// New creates a Node, validating that every required collaborator is set.
func New(opts Options) (*Node, error) {
	switch {
	case opts.Stack == nil:
		return nil, fmt.Errorf("%w: stack", ErrMissingDependency)
	case opts.Sensor == nil:
		return nil, fmt.Errorf("%w: sensor", ErrMissingDependency)
	case opts.Codec == nil:
		return nil, fmt.Errorf("%w: session codec", ErrMissingDependency)
	case opts.Config == nil:
		return nil, fmt.Errorf("%w: config", ErrMissingDependency)
	case opts.ConfigStore == nil:
		return nil, fmt.Errorf("%w: config store", ErrMissingDependency)
	case opts.Retained == nil:
		return nil, fmt.Errorf("%w: retained region", ErrMissingDependency)
	case opts.RetainedPath == "":
		return nil, fmt.Errorf("%w: retained path", ErrMissingDependency)
	}

	events := opts.Events
	if events == nil {
		events = radiolog.NoopLogger{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pause := opts.Pause
	if pause == nil {
		pause = time.Sleep
	}

	return &Node{
		stack:    opts.Stack,
		sensor:   opts.Sensor,
		codec:    opts.Codec,
		cfg:      opts.Config,
		cfgStore: opts.ConfigStore,
		region:   opts.Retained,
		path:     opts.RetainedPath,
		events:   events,
		logger:   logger,
		pause:    pause,
		commands: downlink.NewProcessor(opts.Config, opts.ConfigStore, logger),
	}, nil
}

// Retained exposes the retained region, primarily for the shell and tests.
func (n *Node) Retained() *retained.Region {
	return n.region
}

// Config exposes the runtime configuration.
func (n *Node) Config() *nodecfg.Config {
	return n.cfg
}

// WakeInterval returns the sleep duration until the next timed wake.
func (n *Node) WakeInterval() time.Duration {
	return time.Duration(n.cfg.TxIntervalSeconds) * time.Second
}

// newCycleID assigns the correlation ID carried by every radio event of
// the cycle.
func (n *Node) newCycleID() {
	n.cycleID = uuid.NewString()
}

// event emits a radio event stamped with the cycle ID.
func (n *Node) event(e radiolog.Event) {
	e.Timestamp = time.Now()
	e.CycleID = n.cycleID
	n.events.Log(e)
}

// logicalMinutes is the node's monotonic clock: minutes since first boot,
// derived from the wake counter and the transmission interval. Coarse, but
// it survives sleep for free and matches the cadence status reports need.
func logicalMinutes(bootCount uint32, intervalSeconds uint16) uint32 {
	return bootCount * uint32(intervalSeconds) / 60
}
