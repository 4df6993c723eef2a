// Package registry holds the flat namespace of data type definitions read
// from a schema, keyed case-insensitively by name and alias. It performs no
// reference resolution of its own; resolving name references into direct
// Definition handles, and detecting cycles in the resulting ownership
// graph, is the schema reader's job.
package registry

import (
	"strings"

	"dtfabric/definitions"
	"dtfabric/dterr"
)

// Registry is the case-insensitive name/alias namespace for one schema
// reading session.
type Registry struct {
	byName map[string]definitions.Definition
	order  []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{byName: make(map[string]definitions.Definition)}
}

func fold(name string) string { return strings.ToLower(name) }

// Register adds def under its name and every declared alias. It reports
// DuplicateName if the name or any alias is already claimed, case-
// insensitively, by a previously registered definition.
func (r *Registry) Register(def definitions.Definition) error {
	keys := append([]string{def.Name()}, def.Aliases()...)

	for _, key := range keys {
		if existing, ok := r.byName[fold(key)]; ok {
			return dterr.New(dterr.KindDuplicateName, def.Name(), "",
				"name or alias %q is already registered for %q", key, existing.Name())
		}
	}

	for _, key := range keys {
		r.byName[fold(key)] = def
	}

	r.order = append(r.order, def.Name())

	return nil
}

// Lookup returns the definition registered under name (or one of its
// aliases), case-insensitively, and whether it was found.
func (r *Registry) Lookup(name string) (definitions.Definition, bool) {
	def, ok := r.byName[fold(name)]
	return def, ok
}

// Resolve is Lookup with an UnresolvedReference error in place of a bool.
func (r *Registry) Resolve(name string) (definitions.Definition, error) {
	def, ok := r.Lookup(name)
	if !ok {
		return nil, dterr.New(dterr.KindUnresolvedReference, name, "",
			"no data type definition named %q", name)
	}

	return def, nil
}

// Names returns the registered top-level definition names in registration
// order, for deterministic iteration (e.g. by a reader computing a
// resolution order or a CLI listing a schema's contents).
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)

	return out
}

// Len reports how many definitions are registered.
func (r *Registry) Len() int { return len(r.order) }
