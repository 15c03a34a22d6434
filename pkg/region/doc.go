// Package region defines the closed set of regional channel plans the node
// can be configured for and the per-plan parameters the core needs.
//
// The wire-level channel tables live in the network stack; this package only
// carries what the scheduler and configuration layers must know — sub-band
// shape, dwell-time applicability and the wire selector used in status
// reports and downlink commands.
package region
