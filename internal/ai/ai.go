package ai

import "context"

// Transcriber converts recorded audio into text.
type Transcriber interface {
	// Transcribe returns the transcript for the given audio bytes. The ref is
	// the storage reference of the recording, used for format hints and logs.
	Transcribe(ctx context.Context, audio []byte, ref string) (string, error)
}

// Summarizer produces a short summary of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// EmotionClassifier labels the dominant emotional tone of a transcript.
type EmotionClassifier interface {
	Classify(ctx context.Context, transcript string) (string, error)
}

// Suite bundles the three stage adapters the pipeline needs.
type Suite struct {
	Transcriber Transcriber
	Summarizer  Summarizer
	Classifier  EmotionClassifier
}
