// Package sensor defines the acquisition surface for the four multiplexed
// load-cell channels and a simulated reader for development and tests.
//
// The electrical details — multiplexer select sequencing, ADC polling and
// averaging — belong to the driver behind the Reader interface. The core
// only needs the four raw counts and coarse power control for the analog
// chain.
package sensor
