package ai

import (
	"context"
	"hash/fnv"
	"strings"
)

// Mock adapters back the default development mode. They are deterministic on
// their inputs so repeated processing of the same entry produces the same
// results.

var mockTranscripts = []string{
	"Today was a challenging day at work. I had several meetings that ran over time, " +
		"but I managed to complete the project proposal. I'm feeling a bit tired but accomplished.",
	"I've been thinking a lot about my goals lately. I want to focus more on personal growth " +
		"and spend quality time with family. Small steps every day make a big difference.",
	"Had a wonderful morning walk in the park. The weather was perfect and I saw some beautiful birds. " +
		"These quiet moments really help me stay centered and grateful.",
	"Feeling a bit anxious about the upcoming presentation. I've prepared well, " +
		"but there's always that nervous energy. Taking deep breaths and staying positive.",
	"Reflected on the past week. There were ups and downs, but overall I'm grateful " +
		"for the support of friends and the progress I've made on my personal projects.",
}

var mockSummaryPrefixes = []string{
	"Today's reflection: ",
	"Key theme: ",
	"Main thought: ",
}

// Keyword table checked in order; the first match wins.
var emotionKeywords = []struct {
	emotion  string
	keywords []string
}{
	{"grateful", []string{"grateful", "thankful", "appreciate", "blessed", "wonderful"}},
	{"anxious", []string{"anxious", "worried", "nervous", "stress", "overwhelm"}},
	{"hopeful", []string{"hope", "excited", "looking forward", "positive", "optimistic"}},
	{"reflective", []string{"thinking", "reflect", "consider", "ponder", "realize"}},
	{"accomplished", []string{"accomplished", "achieved", "completed", "proud", "success"}},
	{"peaceful", []string{"calm", "peaceful", "serene", "quiet", "centered"}},
	{"tired", []string{"tired", "exhausted", "drained", "fatigue", "sleepy"}},
	{"happy", []string{"happy", "joy", "delighted", "pleased", "content"}},
}

// pick reduces the hash before converting so the index stays in range even
// where int is 32 bits.
func pick(input string, count int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(input))
	return int(h.Sum32() % uint32(count))
}

// MockTranscriber returns a canned transcript selected by the audio reference.
type MockTranscriber struct{}

func (MockTranscriber) Transcribe(ctx context.Context, audio []byte, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return mockTranscripts[pick(ref, len(mockTranscripts))], nil
}

// MockSummarizer prefixes the first sentence of the transcript.
type MockSummarizer struct{}

func (MockSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	firstSentence, _, _ := strings.Cut(transcript, ".")
	prefix := mockSummaryPrefixes[pick(transcript, len(mockSummaryPrefixes))]
	return prefix + strings.TrimSpace(firstSentence) + ".", nil
}

// MockClassifier matches keywords against the transcript, falling back to
// neutral.
type MockClassifier struct{}

func (MockClassifier) Classify(ctx context.Context, transcript string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lower := strings.ToLower(transcript)
	for _, group := range emotionKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lower, keyword) {
				return group.emotion, nil
			}
		}
	}
	return EmotionNeutral, nil
}

// MockSuite bundles the three mock adapters.
func MockSuite() Suite {
	return Suite{
		Transcriber: MockTranscriber{},
		Summarizer:  MockSummarizer{},
		Classifier:  MockClassifier{},
	}
}
