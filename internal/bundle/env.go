package bundle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/SadnessofAtlantis/kibana/internal/domain"
	"github.com/SadnessofAtlantis/kibana/internal/uiexports"
)

// Recognized build context entries.
const (
	EntryEnv         = "env"
	EntryURLBasePath = "urlBasePath"
	EntrySourceMaps  = "sourceMaps"
	EntryVersion     = "kbnVersion"
	EntryBuildNum    = "buildNum"
)

// Env is the build context. It implements domain.BuildEnv and is registered
// as a consumer of the contribution registry so contributing plugins become
// part of the fingerprint.
type Env struct {
	workingDir string

	mu      sync.RWMutex
	entries map[string]any
	plugins map[string]struct{}
}

var (
	_ domain.BuildEnv    = (*Env)(nil)
	_ uiexports.Consumer = (*Env)(nil)
)

func NewEnv(workingDir string) *Env {
	return &Env{
		workingDir: workingDir,
		entries:    make(map[string]any),
		plugins:    make(map[string]struct{}),
	}
}

func (e *Env) WorkingDir() string { return e.workingDir }

// SetEntry records a build fact. Values should be strings, bools or numbers.
func (e *Env) SetEntry(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[name] = value
}

func (e *Env) Entry(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.entries[name]
	return v, ok
}

// Entries returns a copy of all build facts.
func (e *Env) Entries() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.entries)
}

func (e *Env) ConsumeContribution(pluginID string, _ uiexports.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plugins[pluginID] = struct{}{}
}

// CacheKey is the fingerprint of the current entries and contributing
// plugins. Any change to either yields a different key.
func (e *Env) CacheKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h := sha256.New()
	for _, name := range slices.Sorted(maps.Keys(e.entries)) {
		encoded, err := json.Marshal(e.entries[name])
		if err != nil {
			encoded = []byte("!")
		}
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(encoded)
		h.Write([]byte{0})
	}
	h.Write([]byte{1})
	for _, id := range slices.Sorted(maps.Keys(e.plugins)) {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
