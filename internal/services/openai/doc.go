// Package openai implements the live stage adapters on top of the OpenAI
// API: Whisper-style transcription plus chat completions for summaries and
// emotion labels. Transient API failures are retried with exponential backoff
// before the error is surfaced to the pipeline.
package openai
