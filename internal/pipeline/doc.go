// Package pipeline coordinates asynchronous entry processing: a worker pool
// drains the dispatch queue, claims entries with a conditional status update,
// runs the transcribe stage followed by concurrent summarize and emotion
// stages, and settles each delivery by ack, redelivery, or dead letter.
package pipeline
