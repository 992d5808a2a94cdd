package engine

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
)

const (
	// ExtI18n enables {% trans %} blocks and the gettext globals.
	ExtI18n = "i18n"
	// ExtClientSideInclude enables {% csi %} blocks.
	ExtClientSideInclude = "csi"
)

type extension struct {
	name    string
	tags    []string
	globals func(*config) pongo2.Context
}

var extensions = []extension{
	{name: ExtI18n, tags: []string{transTag}, globals: i18nGlobals},
	{name: ExtClientSideInclude, tags: []string{csiTag}},
}

// extension names used by the site's Jinja configuration
var extensionAliases = map[string]string{
	"jinja2.ext.i18n": ExtI18n,
	"warehouse.utils.html.ClientSideIncludeExtension": ExtClientSideInclude,
}

func init() {
	pongoMu.Lock()
	defer pongoMu.Unlock()
	if err := pongo2.RegisterTag(transTag, parseTrans); err != nil {
		panic(err)
	}
	if err := pongo2.RegisterTag(csiTag, parseCSI); err != nil {
		panic(err)
	}
}

func resolveExtensions(names []string) ([]extension, error) {
	seen := map[string]bool{}
	var enabled []extension
	for _, raw := range names {
		name := raw
		if alias, ok := extensionAliases[raw]; ok {
			name = alias
		}
		ext, ok := lookupExtension(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, raw)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		enabled = append(enabled, ext)
	}
	return enabled, nil
}

func lookupExtension(name string) (extension, bool) {
	for _, ext := range extensions {
		if ext.name == name {
			return ext, true
		}
	}
	return extension{}, false
}

func banDisabledTags(set *pongo2.TemplateSet, enabled []extension) error {
	on := map[string]bool{}
	for _, ext := range enabled {
		on[ext.name] = true
	}
	for _, ext := range extensions {
		if on[ext.name] {
			continue
		}
		for _, tag := range ext.tags {
			if err := set.BanTag(tag); err != nil {
				return err
			}
		}
	}
	return nil
}
