// Package notify pushes processing outcomes to an ntfy topic when one is
// configured.
package notify
