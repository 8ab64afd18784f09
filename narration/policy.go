package narration

// Narration policy
//
// Every finished gesture produces a prediction, but narrating each one would
// be unbearable: the same label would repeat back-to-back and low-confidence
// filler would fire on every stroke. The policy is a two-state machine
// (Idle/Narrating) that picks one of three outcomes per prediction:
//
//   Specific   - confident, new label: narrate it by name
//   Generic    - encouragement filler, rate-limited by a cooldown counter
//   Suppressed - say nothing (overlapping narration, repeat, or cooling down)
//
// While a narration is in flight the policy stays in Narrating and suppresses
// everything; it returns to Idle exactly once per episode, when playback
// completes or fails, whichever comes first.

import (
	"strconv"
	"sync"
	"time"
)

// Path is the outcome of one Decide call.
type Path int

const (
	PathSuppressed Path = iota
	PathSpecific
	PathGeneric
)

func (p Path) String() string {
	switch p {
	case PathSpecific:
		return "specific"
	case PathGeneric:
		return "generic"
	default:
		return "suppressed"
	}
}

const (
	// DefaultConfidenceThreshold gates the specific narration path. Observed
	// deployments run this at 0.65 or 0.70.
	DefaultConfidenceThreshold = 0.65

	// DefaultGenericCooldownLimit is how many predictions must pass between
	// two generic narrations.
	DefaultGenericCooldownLimit = 2

	// DefaultWatchdog bounds how long a Narrating episode may stay open when
	// the playback-completion event never arrives (hung request, vanished
	// client). Zero disables the guard.
	DefaultWatchdog = 30 * time.Second
)

// PolicyConfig carries the tunables of the narration policy.
type PolicyConfig struct {
	ConfidenceThreshold  float64
	GenericCooldownLimit int
	Watchdog             time.Duration
}

// DefaultPolicyConfig returns the stock thresholds.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		ConfidenceThreshold:  DefaultConfidenceThreshold,
		GenericCooldownLimit: DefaultGenericCooldownLimit,
		Watchdog:             DefaultWatchdog,
	}
}

// Policy is the per-session narration state machine. Safe for concurrent use.
type Policy struct {
	cfg PolicyConfig

	mu        sync.Mutex
	lastLabel string
	cooldown  int
	narrating bool
	episode   uint64
	watchdog  *time.Timer
}

// NewPolicy creates an Idle policy with the given configuration.
func NewPolicy(cfg PolicyConfig) *Policy {
	if cfg.GenericCooldownLimit < 0 {
		cfg.GenericCooldownLimit = 0
	}
	return &Policy{cfg: cfg}
}

// Decide picks the narration path for a prediction and, for Specific and
// Generic outcomes, transitions the policy to Narrating before returning, so
// a rapid follow-up gesture is suppressed even while the first narration's
// network calls are still pending. The caller must invoke Complete when the
// chosen narration finishes playing or fails.
func (p *Policy) Decide(label string, confidence float64) Path {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.narrating {
		return PathSuppressed
	}

	if confidence >= p.cfg.ConfidenceThreshold && label != p.lastLabel {
		p.lastLabel = label
		p.cooldown = p.cfg.GenericCooldownLimit
		p.beginEpisode()
		return PathSpecific
	}

	if p.cooldown <= 0 {
		p.cooldown = p.cfg.GenericCooldownLimit
		p.beginEpisode()
		return PathGeneric
	}

	p.cooldown--
	return PathSuppressed
}

// beginEpisode marks the policy Narrating and arms the watchdog.
// Caller holds p.mu.
func (p *Policy) beginEpisode() {
	p.narrating = true
	p.episode++

	if p.cfg.Watchdog > 0 {
		episode := p.episode
		p.watchdog = time.AfterFunc(p.cfg.Watchdog, func() {
			p.endEpisode(episode)
		})
	}
}

// Complete returns the policy to Idle. Idempotent within an episode: the
// playback-completion event, a playback error and the watchdog may all fire,
// but only the first one transitions the state.
func (p *Policy) Complete() {
	p.mu.Lock()
	episode := p.episode
	p.mu.Unlock()

	p.endEpisode(episode)
}

func (p *Policy) endEpisode(episode uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.narrating || episode != p.episode {
		return
	}

	p.narrating = false
	if p.watchdog != nil {
		p.watchdog.Stop()
		p.watchdog = nil
	}
}

// Narrating reports whether a narration episode is in flight.
func (p *Policy) Narrating() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.narrating
}

// Config returns the policy's tunables.
func (p *Policy) Config() PolicyConfig {
	return p.cfg
}

// ParsePolicyConfig builds a PolicyConfig from string settings, falling back
// to defaults for values that are missing or unparseable.
func ParsePolicyConfig(threshold, cooldown, watchdog string) PolicyConfig {
	cfg := DefaultPolicyConfig()

	if threshold != "" {
		if v, err := strconv.ParseFloat(threshold, 64); err == nil {
			cfg.ConfidenceThreshold = v
		}
	}
	if cooldown != "" {
		if v, err := strconv.Atoi(cooldown); err == nil {
			cfg.GenericCooldownLimit = v
		}
	}
	if watchdog != "" {
		if v, err := time.ParseDuration(watchdog); err == nil {
			cfg.Watchdog = v
		}
	}

	return cfg
}
