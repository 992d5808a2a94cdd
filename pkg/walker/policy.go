package walker

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is a named set of exclusion rules.
type Policy struct {
	Name string `yaml:"name,omitempty"`
	// ExcludeDirs skips the files of any directory whose "/"-prefixed relative
	// path contains one of these substrings.
	ExcludeDirs     []string `yaml:"exclude_dirs,omitempty"`
	ExcludeSuffixes []string `yaml:"exclude_suffixes,omitempty"`
	// RequireSuffixes, when non-empty, admits only names ending in one of them.
	RequireSuffixes []string `yaml:"require_suffixes,omitempty"`
}

// TitlePolicy selects page-level templates: partials, API, legacy and email
// body templates are skipped, as are client-side include fragments.
//
// "/email/" carries a trailing slash, so files directly under email/ are
// still checked while files in its subdirectories are not.
func TitlePolicy() Policy {
	return Policy{
		Name:            "titles",
		ExcludeDirs:     []string{"/includes", "/api", "/legacy", "/email/"},
		ExcludeSuffixes: []string{".csi.html"},
		RequireSuffixes: []string{".html"},
	}
}

// RenderPolicy selects every HTML template.
func RenderPolicy() Policy {
	return Policy{
		Name:            "render",
		RequireSuffixes: []string{".html"},
	}
}

// SkipDir reports whether files directly inside relDir are excluded. relDir
// is slash-separated and relative to the root, "" for the root.
func (p Policy) SkipDir(relDir string) bool {
	key := ""
	if relDir != "" && relDir != "." {
		key = "/" + strings.Trim(relDir, "/")
	}
	for _, sub := range p.ExcludeDirs {
		if sub != "" && strings.Contains(key, sub) {
			return true
		}
	}
	return false
}

// Include reports whether a file called name is a candidate.
func (p Policy) Include(name string) bool {
	for _, suffix := range p.ExcludeSuffixes {
		if strings.HasSuffix(name, suffix) {
			return false
		}
	}
	if len(p.RequireSuffixes) == 0 {
		return true
	}
	for _, suffix := range p.RequireSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// ParsePolicy decodes a YAML policy document.
func ParsePolicy(data []byte) (Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("walker: parse policy: %w", err)
	}
	return p, nil
}

// LoadPolicy reads a YAML policy document from fsys.
func LoadPolicy(fsys fs.FS, name string) (Policy, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Policy{}, fmt.Errorf("walker: read policy %q: %w", name, err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return Policy{}, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	return p, nil
}
