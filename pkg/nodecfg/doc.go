// Package nodecfg holds the node's runtime configuration: every value a
// downlink command or the local shell can change, together with the
// documented valid range of each field.
//
// Configuration is loaded from the persistent store at boot (field-wise,
// with defaults for anything missing or out of range) and written back
// immediately after every accepted mutation. Validation lives here so the
// downlink processor and the shell reject the same inputs.
package nodecfg
