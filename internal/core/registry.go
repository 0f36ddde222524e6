package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]ViewDefinition)
	registryMu sync.RWMutex
)

// Register adds a view definition to the registry.
// Panics if a view with the same key is already registered or if a filter
// references a column the view does not have.
func Register(def ViewDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("view already registered: %s", def.Info.Key))
	}

	// Populate Columns from FieldSpecs if not set
	if len(def.Info.Columns) == 0 && len(def.FieldSpecs) > 0 {
		def.Info.Columns = make([]string, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			def.Info.Columns[i] = spec.Name
		}
	}
	if def.Info.Table == "" {
		def.Info.Table = def.Info.Key
	}
	if def.Info.IDColumn == "" {
		def.Info.IDColumn = "id"
	}

	for _, f := range def.Filters {
		if _, ok := def.Field(f.Column); !ok {
			panic(fmt.Sprintf("view %s: filter on unknown column %q", def.Info.Key, f.Column))
		}
	}

	registry[def.Info.Key] = def
}

// Get returns a view definition by key.
// Returns false if not found.
func Get(key string) (ViewDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// Lookup is Get with an error suitable for returning to callers.
func Lookup(key string) (ViewDefinition, error) {
	def, ok := Get(key)
	if !ok {
		return ViewDefinition{}, fmt.Errorf("%w: %s", ErrUnknownView, key)
	}
	return def, nil
}

// All returns all registered view definitions.
// Sorted by group then by key for consistent ordering.
func All() []ViewDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]ViewDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all view definitions for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []ViewDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []ViewDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// ViewCount returns the number of registered views.
func ViewCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered views.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]ViewDefinition)
}
