package retained

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"github.com/quadcell-project/quadcell-go/pkg/session"
)

// Region format constants.
const (
	// regionMagic marks a file as a retained region image.
	regionMagic = 0x51434E52 // "QCNR"

	// RegionVersion is the current region image format version.
	RegionVersion = 1
)

// DefaultPath is the default backing file location. /run is tmpfs on the
// target systems, giving the required survives-sleep-not-cold-boot
// semantics without any special handling.
const DefaultPath = "/run/quadcell/retained.cbor"

// encMode is the CBOR encoder mode for region images.
// Configured for deterministic encoding with integer keys.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for region images.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeUnix,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Region is the retained state block. Fields mirror what the reference
// hardware keeps in RTC memory: three counters, the validity flag and the
// two opaque credential buffers.
type Region struct {
	// Magic identifies a valid region image. Set on Save.
	Magic uint32 `cbor:"1,keyasint"`

	// Version is the region image format version. Set on Save.
	Version uint8 `cbor:"2,keyasint"`

	// BootCount counts timed wakes since the last cold boot.
	// Incremented exactly once per wake, never reset otherwise.
	BootCount uint32 `cbor:"3,keyasint"`

	// LastStatusMinute is the logical minute (since first boot) at which the
	// last periodic status report was sent. Zero is the sentinel for "never".
	LastStatusMinute uint32 `cbor:"4,keyasint"`

	// TxCount counts transmissions since the last cold boot. Drives the
	// every-Nth-transmission nonce flush that bounds persistent-store wear.
	TxCount uint32 `cbor:"5,keyasint"`

	// SessionValid reports whether Session was captured from a live session
	// and may be offered for resumption. Session content is only meaningful
	// when this flag is set and Nonces were restored first.
	SessionValid bool `cbor:"6,keyasint"`

	// Nonces is the captured nonce-state buffer.
	Nonces session.NonceState `cbor:"7,keyasint"`

	// Session is the captured session-state buffer.
	Session session.SessionState `cbor:"8,keyasint"`
}

// Load reads the region from its backing file. Any failure — missing file,
// short read, bad magic, unknown version, decode error — yields the zero
// region, which reads as a cold boot.
func Load(path string) *Region {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &Region{}
	}

	r := &Region{}
	if err := decMode.Unmarshal(raw, r); err != nil {
		return &Region{}
	}
	if r.Magic != regionMagic || r.Version != RegionVersion {
		return &Region{}
	}
	return r
}

// Save writes the region image atomically (temp file + rename). The region
// in memory is always authoritative; a failed Save costs at worst one
// sleep/wake round trip of counters, never a torn image.
func (r *Region) Save(path string) error {
	r.Magic = regionMagic
	r.Version = RegionVersion

	raw, err := encMode.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding retained region: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating retained region directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".retained-*")
	if err != nil {
		return fmt.Errorf("writing retained region: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing retained region: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing retained region: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing retained region: %w", err)
	}
	return nil
}

// Invalidate clears the session validity flag. The buffers are left in
// place; only the flag decides whether resumption may be attempted.
func (r *Region) Invalidate() {
	r.SessionValid = false
}
