// Package executors holds the capability registry and the simulated
// executor. Real platform executors register themselves here the same way;
// the core only ever sees domain.Capability.
package executors

import (
	"fmt"
	"sync"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"
)

type Factory func(tokens auth.Store) (domain.Capability, error)

var (
	mu       sync.RWMutex
	registry = map[string]Factory{}
)

// Register adds a capability factory for a platform. Registering twice or
// with bad arguments is a wiring bug and panics.
func Register(platform string, factory Factory) {
	normalized := util.NormalizeKey(platform)
	if normalized == "" {
		panic("executors: empty platform name")
	}
	if factory == nil {
		panic("executors: nil factory")
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[normalized]; exists {
		panic(fmt.Sprintf("executors: platform %q already registered", platform))
	}

	registry[normalized] = factory
}

// Get constructs the capability registered for a platform.
func Get(platform string, tokens auth.Store) (domain.Capability, error) {
	normalized := util.NormalizeKey(platform)
	mu.RLock()
	factory, ok := registry[normalized]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("executors: unknown platform %q", platform)
	}

	capability, err := factory(tokens)
	if err != nil {
		return nil, err
	}

	return capability, nil
}

// Registered reports whether a platform has a capability factory.
func Registered(platform string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[util.NormalizeKey(platform)]
	return ok
}

// Reset clears the registry. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = map[string]Factory{}
}

func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
