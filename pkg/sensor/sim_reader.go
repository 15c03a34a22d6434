package sensor

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrPoweredDown is returned when sampling is attempted while the analog
// chain is powered down and the reader does not auto-power-up.
var ErrPoweredDown = errors.New("sensor chain powered down")

// SimReader produces plausible slowly drifting load-cell counts.
// Useful for development and for exercising the full acquire path in tests.
type SimReader struct {
	// Base is the resting count per channel.
	Base Readings

	// Jitter is the maximum random deviation per sample.
	Jitter int32

	// Settle is called for the stabilization and inter-channel delays.
	// Defaults to time.Sleep; tests inject a no-op.
	Settle func(time.Duration)

	poweredDown bool
	drift       [ChannelCount]int32
}

// NewSimReader creates a simulated reader with a small default jitter.
func NewSimReader(base Readings) *SimReader {
	return &SimReader{Base: base, Jitter: 200}
}

// ReadAll implements Reader. The simulated chain powers itself back up
// if needed, as the real front end does on its first conversion request.
func (r *SimReader) ReadAll(ctx context.Context, stabilization time.Duration) (Readings, error) {
	var out Readings

	if err := ctx.Err(); err != nil {
		return out, err
	}
	r.poweredDown = false
	r.settle(stabilization)

	for ch := 0; ch < ChannelCount; ch++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if ch > 0 {
			r.settle(MuxSettleDelay)
		}
		// Random walk keeps consecutive cycles correlated, like a real
		// load slowly shifting.
		r.drift[ch] += rand.Int31n(2*r.Jitter+1) - r.Jitter
		out[ch] = r.Base[ch] + r.drift[ch]
	}
	return out, nil
}

// PowerDown implements Reader.
func (r *SimReader) PowerDown() error {
	r.poweredDown = true
	return nil
}

// PowerUp implements Reader.
func (r *SimReader) PowerUp() error {
	r.poweredDown = false
	return nil
}

// PoweredDown reports the simulated power state for tests.
func (r *SimReader) PoweredDown() bool {
	return r.poweredDown
}

func (r *SimReader) settle(d time.Duration) {
	if d <= 0 {
		return
	}
	if r.Settle != nil {
		r.Settle(d)
		return
	}
	time.Sleep(d)
}

// Compile-time interface satisfaction check.
var _ Reader = (*SimReader)(nil)
