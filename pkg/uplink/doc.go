// Package uplink encodes the node's two uplink frame types.
//
// Port 1 carries the primary data frame: four signed 24-bit big-endian raw
// load-cell counts in 12 bytes. Port 2 carries the periodic status report:
// the current runtime configuration and firmware tag, also in 12 bytes.
// Layouts are fixed octet formats shared with the receiving application
// server, so encoding is hand-packed rather than run through a
// serialization library.
package uplink
