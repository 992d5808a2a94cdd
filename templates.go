package tplcheck

import (
	"embed"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-tplcheck/pkg/engine"
)

//go:embed templates
var embeddedTemplates embed.FS

// TemplatesFS exposes the template tree shipped with the module, rooted so
// that "base.html" names templates/base.html.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Root opens an on-disk template root. An empty dir selects the shipped
// templates. A missing directory fails with engine.ErrMissingRoot.
func Root(dir string) (fs.FS, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return TemplatesFS(), nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &RootError{Dir: dir, Err: engine.ErrMissingRoot}
	}
	return os.DirFS(dir), nil
}

// RootError reports an unusable template root.
type RootError struct {
	Dir string
	Err error
}

func (e *RootError) Error() string {
	return "tplcheck: template root " + e.Dir + ": " + e.Err.Error()
}

func (e *RootError) Unwrap() error {
	return e.Err
}
