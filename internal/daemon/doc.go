// Package daemon hosts the long-running murmurd process: it enforces
// single-instance execution, runs the processing pipeline and the
// reconciliation sweep, and serves the HTTP API the CLI talks to.
package daemon
