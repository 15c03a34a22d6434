package uplink

import (
	"encoding/binary"
	"fmt"

	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
	"github.com/quadcell-project/quadcell-go/pkg/region"
	"github.com/quadcell-project/quadcell-go/pkg/sensor"
	"github.com/quadcell-project/quadcell-go/pkg/version"
)

// Logical ports.
const (
	// DataPort carries the primary data frame.
	DataPort = 1

	// StatusPort carries the periodic status report.
	StatusPort = 2
)

// FrameLen is the length of both uplink frame types.
const FrameLen = 12

// Reading range. Values outside are clamped, never wrapped.
const (
	MaxReading = 8388607
	MinReading = -8388607
)

// StatusFormatVersion is the first byte of every status report.
const StatusFormatVersion = 1

// Status flags bitfield.
const (
	flagDwell       = 1 << 0
	flagSensorPower = 1 << 1
	flagDiagnostics = 1 << 2
)

// EncodeReadings packs four raw counts as signed 24-bit big-endian values.
func EncodeReadings(r sensor.Readings) []byte {
	frame := make([]byte, FrameLen)
	for ch, v := range r {
		if v > MaxReading {
			v = MaxReading
		}
		if v < MinReading {
			v = MinReading
		}
		u := uint32(v) & 0xFFFFFF
		frame[ch*3] = byte(u >> 16)
		frame[ch*3+1] = byte(u >> 8)
		frame[ch*3+2] = byte(u)
	}
	return frame
}

// DecodeReadings unpacks a data frame. Used by tests and diagnostic tools;
// the node itself only encodes.
func DecodeReadings(frame []byte) (sensor.Readings, error) {
	var r sensor.Readings
	if len(frame) != FrameLen {
		return r, fmt.Errorf("data frame is %d bytes, want %d", len(frame), FrameLen)
	}
	for ch := range r {
		u := uint32(frame[ch*3])<<16 | uint32(frame[ch*3+1])<<8 | uint32(frame[ch*3+2])
		if u&0x800000 != 0 {
			u |= 0xFF000000 // sign-extend
		}
		r[ch] = int32(u)
	}
	return r, nil
}

// Status is the decoded form of a status report.
type Status struct {
	TxIntervalSeconds   uint16
	StabilizationMillis uint16
	Plan                region.Plan
	SubBand             uint8
	DwellEnforced       bool
	SensorPowerControl  bool
	Diagnostics         bool
	Firmware            [4]byte
}

// StatusFromConfig builds a status report for the current configuration.
func StatusFromConfig(cfg nodecfg.Config) Status {
	return Status{
		TxIntervalSeconds:   cfg.TxIntervalSeconds,
		StabilizationMillis: cfg.StabilizationMillis,
		Plan:                cfg.Plan,
		SubBand:             cfg.SubBand,
		DwellEnforced:       cfg.DwellEnforced,
		SensorPowerControl:  cfg.SensorPowerControl,
		Diagnostics:         cfg.Diagnostics,
		Firmware:            version.WireTag(),
	}
}

// EncodeStatus packs a status report.
//
//	offset 0    format version
//	offset 1-2  tx interval, seconds (u16 BE)
//	offset 3-4  stabilization delay, ms (u16 BE)
//	offset 5    regional plan selector
//	offset 6    sub-band selector
//	offset 7    flags (bit0 dwell, bit1 sensor power, bit2 diagnostics)
//	offset 8-11 firmware tag, 4 ASCII chars
func EncodeStatus(s Status) []byte {
	frame := make([]byte, FrameLen)
	frame[0] = StatusFormatVersion
	binary.BigEndian.PutUint16(frame[1:3], s.TxIntervalSeconds)
	binary.BigEndian.PutUint16(frame[3:5], s.StabilizationMillis)
	frame[5] = s.Plan.Selector()
	frame[6] = s.SubBand

	var flags byte
	if s.DwellEnforced {
		flags |= flagDwell
	}
	if s.SensorPowerControl {
		flags |= flagSensorPower
	}
	if s.Diagnostics {
		flags |= flagDiagnostics
	}
	frame[7] = flags

	copy(frame[8:12], s.Firmware[:])
	return frame
}

// DecodeStatus unpacks a status report.
func DecodeStatus(frame []byte) (Status, error) {
	var s Status
	if len(frame) != FrameLen {
		return s, fmt.Errorf("status frame is %d bytes, want %d", len(frame), FrameLen)
	}
	if frame[0] != StatusFormatVersion {
		return s, fmt.Errorf("status format version %d, want %d", frame[0], StatusFormatVersion)
	}

	plan, ok := region.FromSelector(frame[5])
	if !ok {
		return s, fmt.Errorf("status carries unknown plan selector %d", frame[5])
	}

	s.TxIntervalSeconds = binary.BigEndian.Uint16(frame[1:3])
	s.StabilizationMillis = binary.BigEndian.Uint16(frame[3:5])
	s.Plan = plan
	s.SubBand = frame[6]
	s.DwellEnforced = frame[7]&flagDwell != 0
	s.SensorPowerControl = frame[7]&flagSensorPower != 0
	s.Diagnostics = frame[7]&flagDiagnostics != 0
	copy(s.Firmware[:], frame[8:12])
	return s, nil
}
