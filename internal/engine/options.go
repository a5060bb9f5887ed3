package engine

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

// OptionsStore holds the router configuration. Reads always return a
// copy. While locked only the runtime-safe keys may be replaced; the
// lifecycle locks the store once the router is started and unlocks it on
// stop.
type OptionsStore struct {
	mu     sync.RWMutex
	opts   types.Options
	locked bool
}

// runtimeSafeKeys may be replaced while the store is locked.
var runtimeSafeKeys = map[string]bool{
	types.OptDefaultRoute:  true,
	types.OptDefaultParams: true,
	types.OptAllowNotFound: true,
}

// NewOptionsStore creates a store seeded with the given options.
func NewOptionsStore(opts types.Options) *OptionsStore {
	return &OptionsStore{opts: opts.Copy()}
}

// Get returns a snapshot of the current options.
func (s *OptionsStore) Get() types.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts.Copy()
}

// Set replaces one option by key. Unknown keys and locked keys fail.
func (s *OptionsStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked && !runtimeSafeKeys[key] {
		return fmt.Errorf("option %q is locked while the router is started", key)
	}

	switch key {
	case types.OptDefaultRoute:
		v, ok := value.(string)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.DefaultRoute = v
	case types.OptDefaultParams:
		v, ok := value.(map[string]string)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.DefaultParams = v
	case types.OptAllowNotFound:
		v, ok := value.(bool)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.AllowNotFound = v
	case types.OptAutoCleanUp:
		v, ok := value.(bool)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.AutoCleanUp = v
	case types.OptIgnoreQueryParams:
		v, ok := value.(bool)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.IgnoreQueryParams = v
	case types.OptCaseSensitive:
		v, ok := value.(bool)
		if !ok {
			return badOptionType(key, value)
		}
		s.opts.CaseSensitive = v
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

// Lock freezes all but the runtime-safe keys.
func (s *OptionsStore) Lock() {
	s.mu.Lock()
	s.locked = true
	s.mu.Unlock()
}

// Unlock lifts the freeze.
func (s *OptionsStore) Unlock() {
	s.mu.Lock()
	s.locked = false
	s.mu.Unlock()
}

// Locked reports whether the store is currently frozen.
func (s *OptionsStore) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

func badOptionType(key string, value any) error {
	return fmt.Errorf("option %q: unsupported value type %T", key, value)
}
