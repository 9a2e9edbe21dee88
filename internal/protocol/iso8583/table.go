package iso8583

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// providerKey canonicalizes provider names: lookups and registrations are
// case-insensitive, stored upper case.
func providerKey(provider string) string {
	return strings.ToUpper(strings.TrimSpace(provider))
}

// FieldTable is an immutable set of field definitions for one provider
// ("FISC", "ATM", ...). Tables are built by the loaders or NewFieldTable and
// never mutated afterwards, so they are safe to share across connections;
// Reload on the registry swaps in a fresh table instead of editing one.
type FieldTable struct {
	provider string
	defs     map[int]*FieldDef
}

// NewFieldTable builds a table from definitions. Later duplicates win, as
// they do in file sources. Definitions are validated and padding defaults
// applied.
func NewFieldTable(provider string, defs []*FieldDef) (*FieldTable, error) {
	t := &FieldTable{provider: providerKey(provider), defs: make(map[int]*FieldDef, len(defs))}
	for _, d := range defs {
		cp := *d
		cp.applyPaddingDefaults()
		if err := cp.Validate(); err != nil {
			return nil, &TableError{Provider: provider, Err: err}
		}
		t.defs[cp.Number] = &cp
	}
	return t, nil
}

// Provider returns the name this table was registered under.
func (t *FieldTable) Provider() string { return t.provider }

// Get returns the definition for field n.
func (t *FieldTable) Get(n int) (*FieldDef, bool) {
	d, ok := t.defs[n]
	return d, ok
}

// Len returns the number of definitions.
func (t *FieldTable) Len() int { return len(t.defs) }

// Fields returns the defined field numbers in ascending order.
func (t *FieldTable) Fields() []int {
	out := make([]int, 0, len(t.defs))
	for n := range t.defs {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// All returns a copy of the definition map. Mutating the copy does not
// affect the table.
func (t *FieldTable) All() map[int]*FieldDef {
	out := make(map[int]*FieldDef, len(t.defs))
	for n, d := range t.defs {
		cp := *d
		out[n] = &cp
	}
	return out
}

// TableRegistry holds the named providers and their file sources. Provider
// names are case-insensitive. The first Table call for a provider loads it;
// later calls return the cached table. Reload parses the source again and
// swaps the cached table atomically, so codecs built before a reload keep
// the table they were born with.
type TableRegistry struct {
	mu      sync.RWMutex
	sources map[string]string
	tables  map[string]*FieldTable
}

// NewTableRegistry builds an empty registry.
func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		sources: make(map[string]string),
		tables:  make(map[string]*FieldTable),
	}
}

// Register associates a provider name with a definition file. The file is
// not read until the provider is first used. Registering over an existing
// provider replaces its source and drops the cached table.
func (r *TableRegistry) Register(provider, path string) {
	key := providerKey(provider)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[key] = path
	delete(r.tables, key)
}

// RegisterTable installs an already built table, bypassing file loading.
// Used for the built-in default layout and by tests.
func (r *TableRegistry) RegisterTable(t *FieldTable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[t.Provider()] = t
}

// Table returns the provider's table, loading it on first use.
func (r *TableRegistry) Table(provider string) (*FieldTable, error) {
	key := providerKey(provider)
	r.mu.RLock()
	if t, ok := r.tables[key]; ok {
		r.mu.RUnlock()
		return t, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[key]; ok {
		return t, nil
	}
	path, ok := r.sources[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	t, err := LoadTableFile(key, path)
	if err != nil {
		return nil, err
	}
	r.tables[key] = t
	return t, nil
}

// Reload parses the provider's source again and swaps the cached table. On
// parse failure the previous table stays in place and the error is returned.
func (r *TableRegistry) Reload(provider string) error {
	key := providerKey(provider)
	r.mu.RLock()
	path, ok := r.sources[key]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	t, err := LoadTableFile(key, path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.tables[key] = t
	r.mu.Unlock()
	return nil
}

// Source returns the file path registered for provider, if any.
func (r *TableRegistry) Source(provider string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.sources[providerKey(provider)]
	return p, ok
}

// Providers returns the known provider names, sorted.
func (r *TableRegistry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{}, len(r.sources)+len(r.tables))
	for p := range r.sources {
		seen[p] = struct{}{}
	}
	for p := range r.tables {
		seen[p] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Clear drops every cached table and source.
func (r *TableRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = make(map[string]string)
	r.tables = make(map[string]*FieldTable)
}
