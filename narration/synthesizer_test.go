package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeTextGen struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakeTextGen) GenerateNarrationText(_ context.Context, label string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return fmt.Sprintf("What a lovely %s you made! 🎨", label), nil
}

func (f *fakeTextGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSpeech struct {
	err error

	mu    sync.Mutex
	calls []string
}

func (f *fakeSpeech) SynthesizeText(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

func (f *fakeSpeech) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSpeech) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func newTestSynthesizer(textGen TextGenerator, speech SpeechSynthesizer) *Synthesizer {
	s := NewSynthesizer(textGen, speech, NewCache())
	s.resetDelay = time.Millisecond
	return s
}

// collectNotifications returns a notify callback and a function that waits for
// the expected number of invocations.
func collectNotifications(t *testing.T, expected int) (func(string), func() []string) {
	t.Helper()

	ch := make(chan string, expected)
	notify := func(text string) { ch <- text }

	wait := func() []string {
		var got []string
		for i := 0; i < expected; i++ {
			select {
			case text := <-ch:
				got = append(got, text)
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for notification %d of %d", i+1, expected)
			}
		}
		return got
	}

	return notify, wait
}

func TestSynthesizeSpecificGeneratesAndCaches(t *testing.T) {
	t.Parallel()

	textGen := &fakeTextGen{}
	speech := &fakeSpeech{}
	synth := newTestSynthesizer(textGen, speech)

	notify, wait := collectNotifications(t, 2)
	result, err := synth.SynthesizeSpecific(context.Background(), "cat", notify)
	if err != nil {
		t.Fatalf("SynthesizeSpecific returned error: %v", err)
	}

	if !strings.Contains(result.Text, "cat") {
		t.Fatalf("expected narration text to mention the label, got %q", result.Text)
	}
	if len(result.Audio.Bytes) == 0 {
		t.Fatal("expected audio bytes")
	}
	if speech.lastCall() != SanitizeForSpeech(result.Text) {
		t.Fatalf("speech synthesis received %q, want sanitized %q", speech.lastCall(), SanitizeForSpeech(result.Text))
	}

	// Subtitle contract: empty string first, real text second.
	notifications := wait()
	if notifications[0] != "" {
		t.Fatalf("first notification must be empty, got %q", notifications[0])
	}
	if notifications[1] != result.Text {
		t.Fatalf("second notification must carry the text, got %q", notifications[1])
	}

	// Second call for the same label: cache hit, no collaborator calls.
	cached, err := synth.SynthesizeSpecific(context.Background(), "cat", nil)
	if err != nil {
		t.Fatalf("cached SynthesizeSpecific returned error: %v", err)
	}
	if string(cached.Audio.Bytes) != string(result.Audio.Bytes) {
		t.Fatal("cache returned different audio")
	}
	if textGen.callCount() != 1 || speech.callCount() != 1 {
		t.Fatalf("cache hit still called collaborators: textGen=%d speech=%d", textGen.callCount(), speech.callCount())
	}
}

func TestSynthesizeSpecificFallsBackOnTextGenFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		textGen TextGenerator
	}{
		{"generator error", &fakeTextGen{err: errors.New("quota exceeded")}},
		{"empty text", &fakeTextGen{text: "   "}},
		{"no generator", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			speech := &fakeSpeech{}
			synth := newTestSynthesizer(tc.textGen, speech)

			result, err := synth.SynthesizeSpecific(context.Background(), "duck", nil)
			if err != nil {
				t.Fatalf("SynthesizeSpecific returned error: %v", err)
			}
			if result.Text != "That looks like a duck!" {
				t.Fatalf("expected fallback sentence, got %q", result.Text)
			}
		})
	}
}

func TestSynthesizeSpecificPropagatesSpeechFailure(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(&fakeTextGen{}, &fakeSpeech{err: errors.New("tts down")})

	if _, err := synth.SynthesizeSpecific(context.Background(), "cat", nil); err == nil {
		t.Fatal("expected error from speech failure")
	}
	if synth.cache.Len() != 0 {
		t.Fatal("failed synthesis must not populate the cache")
	}
}

func TestSynthesizeGenericSubstitutesLabel(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{}
	synth := newTestSynthesizer(nil, speech)
	synth.pick = func(int) int { return 10 } // "That looks like a {label}! 👀"

	result, err := synth.SynthesizeGeneric(context.Background(), "boat", nil)
	if err != nil {
		t.Fatalf("SynthesizeGeneric returned error: %v", err)
	}
	if result.Text != "That looks like a boat! 👀" {
		t.Fatalf("unexpected resolved text %q", result.Text)
	}
	if strings.Contains(speech.lastCall(), "👀") {
		t.Fatalf("emoji leaked into speech synthesis: %q", speech.lastCall())
	}
}

func TestSynthesizeGenericSkipsLabelTemplatesWithoutLabel(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(nil, &fakeSpeech{})

	// Force a label template on the first draws, then a label-free one.
	draws := []int{10, 11, 12, 3}
	i := 0
	synth.pick = func(int) int {
		idx := draws[i%len(draws)]
		i++
		return idx
	}

	result, err := synth.SynthesizeGeneric(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("SynthesizeGeneric returned error: %v", err)
	}
	if result.Text != "Nice lines! ✏️" {
		t.Fatalf("expected the first label-free template, got %q", result.Text)
	}
}

func TestSynthesizeGenericFallsBackAfterBoundedTries(t *testing.T) {
	t.Parallel()

	synth := newTestSynthesizer(nil, &fakeSpeech{})
	synth.pick = func(int) int { return 13 } // always a label template

	result, err := synth.SynthesizeGeneric(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("SynthesizeGeneric returned error: %v", err)
	}
	if result.Text != fallbackGenericText {
		t.Fatalf("expected fallback sentence, got %q", result.Text)
	}
}

func TestCacheKeySchemesDoNotCollide(t *testing.T) {
	t.Parallel()

	speech := &fakeSpeech{}
	cache := NewCache()
	synth := NewSynthesizer(&fakeTextGen{text: "cat"}, speech, cache)
	synth.resetDelay = time.Millisecond
	synth.pick = func(int) int { return 0 }

	// Specific path caches under the label "cat".
	if _, err := synth.SynthesizeSpecific(context.Background(), "cat", nil); err != nil {
		t.Fatalf("SynthesizeSpecific returned error: %v", err)
	}

	// A generic narration whose resolved text happens to be "cat" must not
	// see the specific entry: the key spaces are disjoint by construction,
	// because the generic path stores the sentence after its own synthesis.
	if _, ok := cache.Get("You're doing great! 🎉"); ok {
		t.Fatal("generic key present before any generic narration")
	}

	before := speech.callCount()
	if _, err := synth.SynthesizeGeneric(context.Background(), "cat", nil); err != nil {
		t.Fatalf("SynthesizeGeneric returned error: %v", err)
	}
	if speech.callCount() != before+1 {
		t.Fatal("generic path must synthesize its own audio, not reuse the label entry")
	}
}
