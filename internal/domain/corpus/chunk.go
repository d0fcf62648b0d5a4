package corpus

import (
	"strings"
	"unicode"
)

// DefaultChunkSize is the largest chunk, in runes, sent to a Proofreader in one call.
const DefaultChunkSize = 480

// sentenceEnders are the runes after which whitespace separates two sentences.
const sentenceEnders = ".?!다까요"

// SplitChunks breaks text into chunks of at most maxRunes runes. Every line becomes at least
// one chunk; blank lines become empty chunks so paragraph breaks survive a round trip through
// strings.Join(chunks, "\n"). Sentences are packed greedily and over-long sentences are cut.
func SplitChunks(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultChunkSize
	}

	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		paragraph := strings.TrimSpace(line)
		if paragraph == "" {
			chunks = append(chunks, "")
			continue
		}

		current := []rune{}
		for _, sentence := range splitSentences(paragraph) {
			s := []rune(sentence)
			if len(current)+len(s)+1 > maxRunes {
				if len(current) > 0 {
					chunks = append(chunks, string(current))
				}
				for len(s) > maxRunes {
					chunks = append(chunks, string(s[:maxRunes]))
					s = s[maxRunes:]
				}
				current = s
				continue
			}

			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, s...)
		}

		if len(current) > 0 {
			chunks = append(chunks, string(current))
		}
	}

	return chunks
}

func splitSentences(paragraph string) []string {
	runes := []rune(paragraph)

	var (
		sentences []string
		start     int
	)

	for idx := 0; idx < len(runes); idx++ {
		if !strings.ContainsRune(sentenceEnders, runes[idx]) {
			continue
		}

		end := idx + 1
		next := end
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		if next == end || next == len(runes) {
			continue
		}

		sentences = append(sentences, string(runes[start:end]))
		start = next
		idx = next - 1
	}

	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}

	return sentences
}
