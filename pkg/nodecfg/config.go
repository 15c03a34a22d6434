package nodecfg

import (
	"errors"
	"fmt"

	"github.com/quadcell-project/quadcell-go/pkg/region"
)

// Validated field ranges.
const (
	// MinTxIntervalSeconds is the shortest allowed transmission interval.
	MinTxIntervalSeconds = 10

	// MaxTxIntervalSeconds is the longest allowed transmission interval.
	MaxTxIntervalSeconds = 65535

	// MinStabilizationMillis is the shortest allowed post-wake
	// stabilization delay.
	MinStabilizationMillis = 100

	// MaxStabilizationMillis is the longest allowed post-wake
	// stabilization delay.
	MaxStabilizationMillis = 10000

	// MaxSubBand is the highest sub-band selector (0 = all sub-bands).
	MaxSubBand = 8
)

// Defaults for a first boot.
const (
	// DefaultTxIntervalSeconds is the default transmission interval.
	DefaultTxIntervalSeconds = 300

	// DefaultStabilizationMillis is the default stabilization delay.
	DefaultStabilizationMillis = 2000
)

// ErrOutOfRange is returned when a configuration value falls outside its
// documented valid range. Callers fed by external input treat it as a
// silent no-op; the local shell surfaces it to the operator.
var ErrOutOfRange = errors.New("configuration value out of range")

// Config is the node's runtime configuration.
type Config struct {
	// TxIntervalSeconds is the sleep interval between transmissions.
	TxIntervalSeconds uint16

	// StabilizationMillis is the post-wake sensor stabilization delay.
	StabilizationMillis uint16

	// Plan is the regional channel plan.
	Plan region.Plan

	// SubBand is the fixed sub-band selector (0 = all sub-bands).
	SubBand uint8

	// DwellEnforced enables regulatory dwell-time enforcement in the stack.
	DwellEnforced bool

	// SensorPowerControl powers the sensor chain down between cycles.
	SensorPowerControl bool

	// Diagnostics enables verbose diagnostic output.
	Diagnostics bool
}

// Default returns the first-boot configuration. The dwell default follows
// the plan: plans with a regulatory dwell limit enforce it out of the box.
func Default() Config {
	plan := region.PlanAU915
	params := plan.Params()
	return Config{
		TxIntervalSeconds:   DefaultTxIntervalSeconds,
		StabilizationMillis: DefaultStabilizationMillis,
		Plan:                plan,
		SubBand:             params.DefaultSubBand,
		DwellEnforced:       params.DwellTimeLimited,
		SensorPowerControl:  true,
		Diagnostics:         false,
	}
}

// SetTxInterval validates and applies a new transmission interval.
func (c *Config) SetTxInterval(seconds uint16) error {
	if seconds < MinTxIntervalSeconds {
		return fmt.Errorf("%w: tx interval %ds (valid %d-%d)", ErrOutOfRange, seconds, MinTxIntervalSeconds, MaxTxIntervalSeconds)
	}
	c.TxIntervalSeconds = seconds
	return nil
}

// SetStabilization validates and applies a new stabilization delay.
func (c *Config) SetStabilization(millis uint16) error {
	if millis < MinStabilizationMillis || millis > MaxStabilizationMillis {
		return fmt.Errorf("%w: stabilization delay %dms (valid %d-%d)", ErrOutOfRange, millis, MinStabilizationMillis, MaxStabilizationMillis)
	}
	c.StabilizationMillis = millis
	return nil
}

// SetPlan validates and applies a new regional plan selector.
// The sub-band and dwell settings are left untouched; a peer changing plans
// is expected to follow up with matching sub-band and dwell commands.
func (c *Config) SetPlan(selector uint8) error {
	plan, ok := region.FromSelector(selector)
	if !ok {
		return fmt.Errorf("%w: plan selector %d (valid 0-3)", ErrOutOfRange, selector)
	}
	c.Plan = plan
	return nil
}

// SetSubBand validates and applies a new sub-band selector.
func (c *Config) SetSubBand(subBand uint8) error {
	if subBand > MaxSubBand {
		return fmt.Errorf("%w: sub-band %d (valid 0-%d)", ErrOutOfRange, subBand, MaxSubBand)
	}
	c.SubBand = subBand
	return nil
}

// SetDwellEnforced validates and applies the dwell-enforcement flag from a
// wire operand (0 or 1).
func (c *Config) SetDwellEnforced(operand uint8) error {
	v, err := boolOperand(operand, "dwell enforcement")
	if err != nil {
		return err
	}
	c.DwellEnforced = v
	return nil
}

// SetSensorPowerControl validates and applies the sensor-power-control flag
// from a wire operand (0 or 1).
func (c *Config) SetSensorPowerControl(operand uint8) error {
	v, err := boolOperand(operand, "sensor power control")
	if err != nil {
		return err
	}
	c.SensorPowerControl = v
	return nil
}

// SetDiagnostics validates and applies the diagnostics flag from a wire
// operand (0 or 1).
func (c *Config) SetDiagnostics(operand uint8) error {
	v, err := boolOperand(operand, "diagnostics")
	if err != nil {
		return err
	}
	c.Diagnostics = v
	return nil
}

func boolOperand(operand uint8, field string) (bool, error) {
	switch operand {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s operand %d (valid 0/1)", ErrOutOfRange, field, operand)
	}
}
