package narration

import (
	"strings"
	"unicode"
)

// SanitizeForSpeech strips emoji, pictographic symbols and quote characters
// from narration text before it is sent to speech synthesis. Speech engines
// tend to mispronounce or reject these glyphs; the on-screen text keeps them.
func SanitizeForSpeech(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		if isSpeechUnsafe(r) {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

func isSpeechUnsafe(r rune) bool {
	switch r {
	// ASCII apostrophes stay: they are almost always contractions, and
	// stripping them changes pronunciation.
	case '"', '`', '“', '”', '‘', '’':
		return true
	case '‍', '️': // zero-width joiner, emoji variation selector
		return true
	}

	// Emoji and pictographs live in the supplementary symbol planes.
	if r >= 0x1F000 && r <= 0x1FAFF {
		return true
	}

	return unicode.Is(unicode.So, r) || unicode.Is(unicode.Sk, r)
}
