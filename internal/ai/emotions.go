package ai

import "strings"

// EmotionNeutral is the fallback label when classification produces nothing
// usable.
const EmotionNeutral = "neutral"

var knownEmotions = []string{
	"grateful",
	"anxious",
	"hopeful",
	"reflective",
	"accomplished",
	"peaceful",
	"tired",
	"happy",
	"sad",
	"frustrated",
	EmotionNeutral,
}

var emotionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(knownEmotions))
	for _, emotion := range knownEmotions {
		set[emotion] = struct{}{}
	}
	return set
}()

// Emotions returns the ordered label vocabulary.
func Emotions() []string {
	cp := make([]string, len(knownEmotions))
	copy(cp, knownEmotions)
	return cp
}

// IsKnownEmotion reports whether a label belongs to the vocabulary.
func IsKnownEmotion(label string) bool {
	_, ok := emotionSet[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// NormalizeEmotion lowercases and trims a label, mapping anything outside the
// vocabulary to neutral. Model output occasionally arrives with punctuation or
// prose around the label, so a leading known word is accepted too.
func NormalizeEmotion(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	normalized = strings.Trim(normalized, ".!\"' ")
	if _, ok := emotionSet[normalized]; ok {
		return normalized
	}
	if fields := strings.Fields(normalized); len(fields) > 0 {
		first := strings.Trim(fields[0], ".!\"' ")
		if _, ok := emotionSet[first]; ok {
			return first
		}
	}
	return EmotionNeutral
}
