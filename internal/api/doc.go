// Package api defines the transport-friendly payload types served by the
// daemon HTTP endpoints and the read services that assemble them.
package api
