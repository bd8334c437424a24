// Package dispatch implements the durable work queue between entry creation
// and the processing pipeline. Messages are delivered at least once under a
// visibility lease; expired leases return to the queue and messages that
// exhaust their attempt budget park in a dead letter state for operator
// review.
package dispatch
