// Package chat implements the room coordination core of the NeonChat server:
// the shared room registry with bounded per-room history, broadcast fan-out
// over atomic membership snapshots, and the per-connection session protocol
// that maps inbound events onto registry operations.
//
// The package has no network dependencies. The transport layer feeds decoded
// events into a Session and drains the outbound payloads the core produces,
// so the whole protocol is testable against in-memory stubs.
package chat
