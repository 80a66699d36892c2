package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/tabledesk/internal/compiler"
	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/ir"
)

// LoadProfiles returns the built-in profiles plus those found in dir.
// A profile in dir replaces a built-in profile of the same name. An empty
// dir loads only the built-ins. Every profile is validated; all problems
// are reported together.
func LoadProfiles(dir string) ([]ir.EntityProfile, error) {
	builtin, err := compiler.Builtin()
	if err != nil {
		return nil, fmt.Errorf("builtin profiles: %w", err)
	}

	byName := make(map[string]ir.EntityProfile, len(builtin))
	order := make([]string, 0, len(builtin))
	for _, p := range builtin {
		byName[p.Name] = p
		order = append(order, p.Name)
	}

	if dir != "" {
		res, errs := compiler.LoadProfiles(dir, compiler.LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		for _, p := range res.Profiles {
			if _, ok := byName[p.Name]; !ok {
				order = append(order, p.Name)
			}
			byName[p.Name] = p
		}
	}

	var errs []error
	profiles := make([]ir.EntityProfile, 0, len(order))
	for _, name := range order {
		p := byName[name]
		for _, verr := range compiler.Validate(&p) {
			errs = append(errs, fmt.Errorf("profile %s: %w", name, verr))
		}
		profiles = append(profiles, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return profiles, nil
}

// Registry holds the entities known to one engine, by profile name.
type Registry struct {
	entities map[string]*Entity
}

// NewRegistry creates an entity for every profile.
func NewRegistry(eng *engine.Engine, profiles []ir.EntityProfile, opts ...Option) *Registry {
	r := &Registry{entities: make(map[string]*Entity, len(profiles))}
	for _, p := range profiles {
		r.entities[p.Name] = New(eng, p, opts...)
	}
	return r
}

// Get returns the entity for a profile name.
func (r *Registry) Get(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Names returns the profile names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for n := range r.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
