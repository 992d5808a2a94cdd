package engine

import (
	"fmt"
	"sort"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tplcheck/pkg/filters"
)

// custom tracks every filter name an engine has placed in pongo2's global
// table. Guarded by pongoMu.
var custom = map[string]bool{}

func init() {
	// Reserve the site filter names so that an engine built before any
	// registry was installed can still ban them.
	pongoMu.Lock()
	defer pongoMu.Unlock()
	for _, name := range filters.Default().Names() {
		if pongo2.FilterExists(name) {
			continue
		}
		_ = pongo2.RegisterFilter(name, notInstalled(name))
		custom[name] = true
	}
}

func notInstalled(name string) pongo2.FilterFunction {
	return func(_ *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		return nil, &pongo2.Error{
			Sender:    "filter:" + name,
			OrigError: fmt.Errorf("filter %q is not installed on this engine", name),
		}
	}
}

// banForeignFilters bans on set every custom filter in pongo2's table that
// reg does not carry. Callers hold pongoMu.
func banForeignFilters(set *pongo2.TemplateSet, reg *filters.Registry) error {
	have := map[string]bool{}
	if reg != nil {
		for _, name := range reg.Names() {
			have[name] = true
		}
	}

	banned := make([]string, 0, len(custom))
	for name := range custom {
		if !have[name] {
			banned = append(banned, name)
		}
	}
	sort.Strings(banned)
	for _, name := range banned {
		if err := set.BanFilter(name); err != nil {
			return err
		}
	}
	return nil
}

// publish writes reg's functions into the global table. Callers hold pongoMu.
// pongo2 binds filter functions while parsing, so every Load publishes its
// engine's registry again before compiling.
func publish(reg *filters.Registry) error {
	if reg == nil {
		return nil
	}
	for _, name := range reg.Names() {
		fn, _ := reg.Lookup(name)
		if pongo2.FilterExists(name) {
			if !custom[name] {
				return fmt.Errorf("filter %q shadows a pongo2 builtin", name)
			}
			if err := pongo2.ReplaceFilter(name, fn); err != nil {
				return err
			}
			continue
		}
		if err := pongo2.RegisterFilter(name, fn); err != nil {
			return err
		}
		custom[name] = true
	}
	return nil
}
