// Package ai defines the stage adapter interfaces the processing pipeline
// consumes, the emotion label vocabulary, and deterministic mock adapters for
// development and tests. Live adapters live in services/openai.
package ai
