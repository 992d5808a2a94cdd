// Package check runs the template suite checks over a template root.
//
// Titles stops at the first page template without a title block and aborts
// on the first compile error. Render compiles every candidate and reports all
// failures together.
package check

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-tplcheck/pkg/engine"
	"github.com/goliatone/go-tplcheck/pkg/walker"
)

const (
	TitleBlock     = "title"
	TitleBaseBlock = "title_base"
)

// Loader compiles a template by root-relative path.
type Loader interface {
	Load(name string) (*engine.Template, error)
}

// Option configures a check run.
type Option func(*options)

type options struct {
	logger logrus.FieldLogger
}

// WithLogger sets the logger used for per-template progress.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		o.logger = logger
	}
	return o
}

// Titles verifies that every template admitted by policy declares a title
// or title_base block. It returns a *MissingTitleError for the first
// template that does not, and a *CompileError as soon as one fails to load.
func Titles(ctx context.Context, loader Loader, fsys fs.FS, policy walker.Policy, opts ...Option) error {
	o := newOptions(opts)
	log := o.logger.WithField("check", "titles")

	checked := 0
	for entry, err := range walker.Walk(fsys, policy) {
		if err != nil {
			return fmt.Errorf("check: walk %s: %w", entry.Dir, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Path()
		tmpl, err := loader.Load(name)
		if err != nil {
			return &CompileError{Template: name, Err: err}
		}
		if !tmpl.HasBlock(TitleBlock) && !tmpl.HasBlock(TitleBaseBlock) {
			log.WithField("template", name).Debug("title block missing")
			return &MissingTitleError{Template: name}
		}
		checked++
		log.WithField("template", name).Debug("title block found")
	}

	log.WithField("templates", checked).Info("title check passed")
	return nil
}

// Render compiles every template admitted by policy. Compile failures are
// collected and returned together as *RenderErrors.
func Render(ctx context.Context, loader Loader, fsys fs.FS, policy walker.Policy, opts ...Option) error {
	o := newOptions(opts)
	log := o.logger.WithField("check", "render")

	var failures []*CompileError
	checked := 0
	for entry, err := range walker.Walk(fsys, policy) {
		if err != nil {
			return fmt.Errorf("check: walk %s: %w", entry.Dir, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Path()
		checked++
		if _, err := loader.Load(name); err != nil {
			log.WithField("template", name).WithError(err).Warn("template failed to compile")
			failures = append(failures, &CompileError{Template: name, Err: err})
			continue
		}
		log.WithField("template", name).Debug("template compiled")
	}

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool {
			return failures[i].Template < failures[j].Template
		})
		return &RenderErrors{Failures: failures}
	}

	log.WithField("templates", checked).Info("render check passed")
	return nil
}
