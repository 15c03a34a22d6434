// Package retained implements the retained state region: the small block of
// state that must survive a sleep/wake cycle but is expected to vanish on a
// cold (power-loss) boot.
//
// On the reference hardware this is power-domain-isolated RTC memory. Here
// the region is backed by a file on a volatile filesystem (tmpfs by
// default): a timed wake re-reads it, a cold host boot clears it. The region
// holds the wake counters, the session validity flag and the two opaque
// credential buffers captured from the network stack.
//
// Load never fails. A missing, truncated or corrupt file is
// indistinguishable from a cold boot and yields the well-defined zero
// region, which downstream logic must treat as "no session".
package retained
