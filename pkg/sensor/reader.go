package sensor

import (
	"context"
	"time"
)

// ChannelCount is the number of multiplexed load-cell channels.
const ChannelCount = 4

// MuxSettleDelay is the settle time observed between channel switches.
const MuxSettleDelay = 50 * time.Millisecond

// Readings holds one raw, uncalibrated count per channel.
// Values are in the signed 24-bit ADC range.
type Readings [ChannelCount]int32

// Reader acquires load-cell data.
type Reader interface {
	// ReadAll samples every channel in order, waiting the given
	// stabilization delay first. Blocks until all channels are read or
	// the context is done.
	ReadAll(ctx context.Context, stabilization time.Duration) (Readings, error)

	// PowerDown puts the analog chain into its low-power state.
	PowerDown() error

	// PowerUp restores the analog chain. Implicit in ReadAll for drivers
	// that cannot sample while powered down.
	PowerUp() error
}
