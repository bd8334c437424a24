// Package reconcile runs the scheduled sweep that reclaims expired dispatch
// leases, recovers processing entries orphaned by dead workers, and
// re-dispatches pending entries whose queue message was lost.
package reconcile
