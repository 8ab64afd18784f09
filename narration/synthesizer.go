package narration

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// TextGenerator produces the specific narration sentence for a predicted
// label. Implemented by the Gemini client.
type TextGenerator interface {
	GenerateNarrationText(ctx context.Context, label string) (string, error)
}

// SpeechSynthesizer converts narration text into playable audio bytes.
// Implemented by the Google TTS client.
type SpeechSynthesizer interface {
	SynthesizeText(ctx context.Context, text string) ([]byte, error)
}

// TextResetDelay is the pause between the empty and the real subtitle
// notification. The consuming UI restarts its text-appearance animation when
// the subtitle is cleared; both notifications, in this order, are part of the
// contract.
const TextResetDelay = 50 * time.Millisecond

const audioMIME = "audio/mpeg"

// Narration couples the on-screen sentence with its audio clip.
type Narration struct {
	Text  string
	Audio Audio
}

// Synthesizer produces narration audio via one of two paths: a specific
// sentence generated for a confident label, or a generic filler sentence from
// a fixed template pool. Both consult the narration cache before calling
// speech synthesis. The two paths use different cache key schemes (label vs
// resolved text) and never share entries.
type Synthesizer struct {
	textGen TextGenerator
	speech  SpeechSynthesizer
	cache   *Cache

	resetDelay time.Duration
	pick       func(n int) int
}

// NewSynthesizer builds a synthesizer. textGen may be nil, in which case the
// specific path always uses its fallback sentence.
func NewSynthesizer(textGen TextGenerator, speech SpeechSynthesizer, cache *Cache) *Synthesizer {
	return &Synthesizer{
		textGen:    textGen,
		speech:     speech,
		cache:      cache,
		resetDelay: TextResetDelay,
		pick:       rand.Intn,
	}
}

// SynthesizeSpecific narrates a confidently predicted label. The sentence
// comes from the text generator, falling back to a stock phrase when the
// generator errors or returns nothing. Audio is cached under the label; a
// cache hit replays the stored clip without a new subtitle (the sentence is
// not retained alongside the audio).
func (s *Synthesizer) SynthesizeSpecific(ctx context.Context, label string, notify func(text string)) (Narration, error) {
	if cached, ok := s.cache.Get(label); ok {
		return Narration{Audio: cached}, nil
	}

	text := ""
	if s.textGen != nil {
		generated, err := s.textGen.GenerateNarrationText(ctx, label)
		if err == nil {
			text = strings.TrimSpace(generated)
		}
	}
	if text == "" {
		text = fmt.Sprintf("That looks like a %s!", label)
	}

	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return Narration{}, err
	}

	s.cache.Set(label, audio)
	s.announce(notify, text)
	return Narration{Text: text, Audio: audio}, nil
}

// SynthesizeGeneric narrates a filler sentence drawn from the template pool.
// Audio is cached under the resolved sentence itself, keeping generic entries
// apart from the label-keyed specific ones.
func (s *Synthesizer) SynthesizeGeneric(ctx context.Context, label string, notify func(text string)) (Narration, error) {
	text := s.pickGenericText(label)

	if cached, ok := s.cache.Get(text); ok {
		s.announce(notify, text)
		return Narration{Text: text, Audio: cached}, nil
	}

	audio, err := s.synthesize(ctx, text)
	if err != nil {
		return Narration{}, err
	}

	s.cache.Set(text, audio)
	s.announce(notify, text)
	return Narration{Text: text, Audio: audio}, nil
}

func (s *Synthesizer) synthesize(ctx context.Context, text string) (Audio, error) {
	if s.speech == nil {
		return Audio{}, fmt.Errorf("no speech synthesizer configured")
	}

	data, err := s.speech.SynthesizeText(ctx, SanitizeForSpeech(text))
	if err != nil {
		return Audio{}, err
	}

	return Audio{Bytes: data, MIME: audioMIME}, nil
}

// pickGenericText draws a random template and substitutes the label. With no
// label available, draws are retried a bounded number of times until a
// label-free template comes up.
func (s *Synthesizer) pickGenericText(label string) string {
	for i := 0; i < maxTemplateTries; i++ {
		template := genericTemplates[s.pick(len(genericTemplates))]

		if label == "" && strings.Contains(template, labelPlaceholder) {
			continue
		}

		return strings.ReplaceAll(template, labelPlaceholder, label)
	}

	return fallbackGenericText
}

// announce drives the subtitle callback: clear first, then the real sentence
// after a short delay.
func (s *Synthesizer) announce(notify func(text string), text string) {
	if notify == nil {
		return
	}

	notify("")
	time.AfterFunc(s.resetDelay, func() {
		notify(text)
	})
}
