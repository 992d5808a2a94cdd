// Package walker enumerates candidate templates under a template root.
//
// The walker performs no assertions. A Policy decides which directories have
// their files skipped and which file names are candidates.
package walker

import (
	"io/fs"
	"iter"
	"path"
)

// Entry describes one discovered file.
type Entry struct {
	// Dir is the fs.FS directory holding the file, "." for the root.
	Dir string
	// RelDir is Dir relative to the root, "" for the root itself.
	RelDir string
	Name   string
}

// Path returns the slash-separated template path relative to the root.
func (e Entry) Path() string {
	if e.RelDir == "" {
		return e.Name
	}
	return path.Join(e.RelDir, e.Name)
}

// Walk yields every file under fsys that p admits, in the order fsys lists
// directory entries. Directory read errors are yielded with a zero Entry
// carrying only Dir. The walk stops as soon as the consumer stops.
func Walk(fsys fs.FS, p Policy) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		_ = fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				if !yield(Entry{Dir: name, RelDir: relDir(name)}, err) {
					return fs.SkipAll
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			dir := path.Dir(name)
			rel := relDir(dir)
			if p.SkipDir(rel) || !p.Include(d.Name()) {
				return nil
			}
			if !yield(Entry{Dir: dir, RelDir: rel, Name: d.Name()}, nil) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

func relDir(dir string) string {
	if dir == "." {
		return ""
	}
	return dir
}
