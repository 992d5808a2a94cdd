package engine

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"strings"
)

// rootLoader resolves every template name against the template root, the
// way the site addresses {% extends %} and {% include %} targets. pongo2's
// own loaders resolve relative to the including file instead.
type rootLoader struct {
	fsys fs.FS
}

func (l *rootLoader) Abs(_ string, name string) string {
	return cleanName(name)
}

func (l *rootLoader) Get(name string) (io.Reader, error) {
	f, err := l.fsys.Open(cleanName(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func cleanName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
