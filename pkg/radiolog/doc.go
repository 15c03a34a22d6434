// Package radiolog captures structured radio activity events: join and
// resume attempts, uplinks, downlinks, phase changes and sleep transitions.
//
// Events are written through the Logger interface. The file logger encodes
// CBOR for compact post-hoc analysis of a deployment's radio behavior; the
// slog adapter mirrors events into the application log for development; the
// multi logger fans out to both. Logging must never disrupt the node, so
// implementations swallow their own errors.
package radiolog
