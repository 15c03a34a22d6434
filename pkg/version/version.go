// Package version carries the firmware version constants, including the
// fixed-width tag embedded in status report frames.
package version

// Version is the full semantic firmware version.
const Version = "1.4.0"

// wireTag is the 4-character tag carried in status reports. Kept to exactly
// four ASCII bytes; the frame layout allots no more.
const wireTag = "1.4a"

// WireTag returns the status-frame firmware tag.
func WireTag() [4]byte {
	var t [4]byte
	copy(t[:], wireTag)
	return t
}
