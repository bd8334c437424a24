// Package main hosts the murmur CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the murmurd API: entry submission and inspection, dead-letter
// maintenance, daemon status, and configuration scaffolding. It centralizes
// configuration resolution and API address discovery so subcommands can focus
// on user experience instead of wiring.
package main
