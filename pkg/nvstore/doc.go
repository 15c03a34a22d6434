// Package nvstore provides the slow persistent key-value store backing
// configuration and credential state.
//
// This package handles the JSON serialization of values that must survive a
// full cold boot (the retained region does not). Values are grouped into
// namespaces so credential material lives apart from runtime configuration.
// The store performs no write rate limiting of its own; callers that flush
// frequently updated values (nonce state in particular) are responsible for
// bounding write wear.
package nvstore
