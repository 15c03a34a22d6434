package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quadcell-project/quadcell-go/pkg/downlink"
	"github.com/quadcell-project/quadcell-go/pkg/lorastack"
	"github.com/quadcell-project/quadcell-go/pkg/radiolog"
	"github.com/quadcell-project/quadcell-go/pkg/uplink"
)

// CycleResult summarizes one wake cycle.
type CycleResult struct {
	// Phase is the terminal controller phase.
	Phase Phase

	// DataSent reports whether the primary data frame was delivered.
	DataSent bool

	// StatusSent reports whether a status report was delivered.
	StatusSent bool

	// Restart reports that a restart command was received. The caller
	// must restart without running the end-of-cycle persistence path.
	Restart bool
}

// RunCycle executes one full wake cycle: boot accounting, session
// establishment, acquisition, transmission and downlink processing. The
// caller runs PrepareSleep afterwards unless Restart is set; RunCycle
// itself never sleeps beyond its fixed settle and backoff delays.
//
// The returned error is non-nil only for a radio init failure, which is
// fatal for the cycle: the caller proceeds straight to sleep and the next
// timed wake retries from scratch.
func (n *Node) RunCycle(ctx context.Context) (CycleResult, error) {
	n.newCycleID()
	n.region.BootCount++

	var result CycleResult

	if err := n.stack.Init(n.cfg.Plan, n.cfg.SubBand, n.cfg.DwellEnforced); err != nil {
		n.event(radiolog.Event{Category: radiolog.CategoryError, Error: err.Error()})
		n.logger.Error("radio init failed", "error", err)
		return result, fmt.Errorf("radio init: %w", err)
	}

	result.Phase = n.EstablishSession()
	if !result.Phase.Established() {
		return result, nil
	}

	// A fresh join has just spent airtime on the handshake; pace the
	// first data frame accordingly. A warm resume needs only a short
	// settle.
	if result.Phase == PhaseJoinOK {
		n.pause(JoinSettleDelay)
	} else {
		n.pause(ResumeSettleDelay)
	}

	restart := n.transmitData(ctx, &result)
	if restart {
		result.Restart = true
		return result, nil
	}

	n.flushNoncesAtCadence()
	n.sendStatusIfDue(&result, false)
	return result, nil
}

// transmitData acquires sensor data and sends the primary frame, handing
// any reply to the downlink processor. Returns true when a restart command
// was received.
func (n *Node) transmitData(ctx context.Context, result *CycleResult) bool {
	readings, err := n.sensor.ReadAll(ctx, n.StabilizationDelay())
	if err != nil {
		// Transient for this cycle; the status path may still run.
		n.event(radiolog.Event{Category: radiolog.CategoryError, Error: err.Error()})
		n.logger.Error("sensor acquisition failed", "error", err)
		return false
	}

	frame := uplink.EncodeReadings(readings)
	sendResult, reply, err := n.stack.Send(uplink.DataPort, frame)
	n.region.TxCount++

	switch sendResult {
	case lorastack.SendFailed:
		n.event(radiolog.Event{
			Category:  radiolog.CategoryUplink,
			Direction: radiolog.DirectionOut,
			Port:      uplink.DataPort,
			Size:      len(frame),
			Error:     sendErrText(err),
		})
		if errors.Is(err, lorastack.ErrNotJoined) {
			// The session is gone; a resume next wake is doomed.
			// Invalidate now so the next cycle joins fresh.
			n.region.Invalidate()
			n.logger.Warn("send reported not joined, session invalidated", "error", err)
		} else {
			n.logger.Warn("data transmission failed", "error", err)
		}
		return false

	case lorastack.SendOK, lorastack.SendOKWithReply:
		result.DataSent = true
		n.event(radiolog.Event{
			Category:  radiolog.CategoryUplink,
			Direction: radiolog.DirectionOut,
			Port:      uplink.DataPort,
			Size:      len(frame),
			DevAddr:   n.stack.DeviceAddr().String(),
		})
		n.logger.Info("data frame sent", "readings", readings, "fcnt_port", uplink.DataPort)
	}

	if sendResult != lorastack.SendOKWithReply {
		return false
	}

	n.event(radiolog.Event{
		Category:  radiolog.CategoryDownlink,
		Direction: radiolog.DirectionIn,
		Port:      uplink.DataPort,
		Size:      len(reply),
	})
	switch action := n.commands.Process(reply); action {
	case downlink.ActionStatusReport:
		n.sendStatusIfDue(result, true)
	case downlink.ActionRestart:
		return true
	}
	return false
}

// flushNoncesAtCadence writes nonce state to the persistent store every
// NonceFlushInterval-th transmission. Join events flush immediately
// elsewhere; this cadence only covers steady-state counter drift while
// bounding storage wear.
func (n *Node) flushNoncesAtCadence() {
	if n.region.TxCount == 0 || n.region.TxCount%NonceFlushInterval != 0 {
		return
	}
	n.region.Nonces = n.stack.CaptureNonces()
	if err := n.codec.PersistNonces(n.region.Nonces); err != nil {
		n.logger.Error("periodic nonce flush failed", "error", err)
		return
	}
	n.logger.Debug("periodic nonce flush", "tx_count", n.region.TxCount)
}

// sendStatusIfDue transmits the status report when forced, when the
// periodic interval has elapsed, or when one was never sent (sentinel
// marker). A status failure never affects the primary data path.
func (n *Node) sendStatusIfDue(result *CycleResult, force bool) {
	now := logicalMinutes(n.region.BootCount, n.cfg.TxIntervalSeconds)
	last := n.region.LastStatusMinute

	due := force ||
		last == 0 || // sentinel: never sent, fire right after first join
		(now > last && now-last >= StatusIntervalMinutes)
	if !due {
		return
	}

	frame := uplink.EncodeStatus(uplink.StatusFromConfig(*n.cfg))
	sendResult, _, err := n.stack.Send(uplink.StatusPort, frame)
	n.region.TxCount++
	if sendResult == lorastack.SendFailed {
		n.event(radiolog.Event{
			Category:  radiolog.CategoryUplink,
			Direction: radiolog.DirectionOut,
			Port:      uplink.StatusPort,
			Size:      len(frame),
			Error:     sendErrText(err),
		})
		n.logger.Warn("status report failed", "error", err)
		return
	}

	// Advance the marker, keeping clear of the sentinel so an early
	// first report is not re-fired forever.
	if now == 0 {
		now = 1
	}
	n.region.LastStatusMinute = now

	result.StatusSent = true
	n.event(radiolog.Event{
		Category:  radiolog.CategoryUplink,
		Direction: radiolog.DirectionOut,
		Port:      uplink.StatusPort,
		Size:      len(frame),
	})
	n.logger.Info("status report sent", "logical_minute", now)
}

// sendErrText renders a send failure for the event log. A Stack may report
// SendFailed without an error value.
func sendErrText(err error) string {
	if err == nil {
		return "send failed"
	}
	return err.Error()
}

// StabilizationDelay returns the configured post-wake stabilization delay.
func (n *Node) StabilizationDelay() time.Duration {
	return time.Duration(n.cfg.StabilizationMillis) * time.Millisecond
}
