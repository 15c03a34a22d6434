package node

import (
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
)

// PrepareSleep snapshots session and nonce state into the retained region,
// powers the sensor front end down when configured to, and writes the
// region to its backing file. It is the last thing a cycle does before the
// caller halts; a restart command skips it entirely so the relaunch sees
// the pre-cycle state.
//
// A region write failure is logged and swallowed: the node still sleeps,
// and the next wake falls back to a fresh join from persisted nonces.
func (n *Node) PrepareSleep() {
	if n.stack.Joined() {
		// Nonces first. A session snapshot is only coherent relative
		// to nonce history at least as new as its own.
		n.region.Nonces = n.stack.CaptureNonces()
		n.region.Session = n.stack.CaptureSession()
		n.region.SessionValid = true
	}

	if n.cfg.SensorPowerControl {
		if err := n.sensor.PowerDown(); err != nil {
			n.logger.Warn("sensor power-down failed", "error", err)
		}
	}

	if err := n.region.Save(n.path); err != nil {
		n.event(radiolog.Event{Category: radiolog.CategoryError, Error: err.Error()})
		n.logger.Error("retained region write failed", "error", err)
	}

	n.event(radiolog.Event{Category: radiolog.CategorySleep})
	if s, ok := n.events.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			n.logger.Warn("event log sync failed", "error", err)
		}
	}
	n.logger.Info("entering sleep", "wake_in", n.WakeInterval())
}
