package narration

import "sync"

// Audio is a synthesized narration clip.
type Audio struct {
	Bytes []byte
	MIME  string
}

// Cache maps narration keys to previously synthesized audio so the same
// sentence is never sent to speech synthesis twice. Keys are compared by
// exact string equality; the specific path keys on the label while the
// generic path keys on the resolved sentence, so the two never collide.
// Entries live for the lifetime of the process.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Audio
}

// NewCache creates an empty narration cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Audio)}
}

// Get returns the cached audio for a key, if present.
func (c *Cache) Get(key string) (Audio, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	audio, ok := c.entries[key]
	return audio, ok
}

// Set stores audio under a key, replacing any previous entry.
func (c *Cache) Set(key string, audio Audio) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = audio
}

// Len returns the number of cached clips.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
