package importer

// registry.go holds the closed set of ledger module definitions. Modules
// are registered at init time; the engine dispatches on the operator's
// --module choice.

import (
	"fmt"
	"sort"
	"sync"
)

// ModuleDefinition contains everything needed to import one ledger module.
type ModuleDefinition struct {
	Module Module

	// Columns are the known long-form headers, in template order.
	Columns []string

	// HeaderKey is the column whose presence identifies the header row when
	// scanning past template preamble.
	HeaderKey string

	// NoteColumn is the template note column, dropped before classification.
	NoteColumn string

	// KeyFields are the identifier columns used by the comment-row
	// heuristic: a row with a note but no key-field values is a template
	// comment, not data.
	KeyFields []string

	// New builds the module's importer over the injected repositories.
	New func(Repos) Importer
}

var (
	registry   = make(map[Module]ModuleDefinition)
	registryMu sync.RWMutex
)

// RegisterModule adds a module definition to the registry.
// Panics if the module is already registered.
func RegisterModule(def ModuleDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Module]; exists {
		panic(fmt.Sprintf("module already registered: %s", def.Module))
	}
	registry[def.Module] = def
}

// Definition returns a module definition by name.
// Returns false if not found.
func Definition(m Module) (ModuleDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[m]
	return def, ok
}

// Modules returns all registered module names, sorted for stable output.
func Modules() []Module {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]Module, 0, len(registry))
	for m := range registry {
		names = append(names, m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
