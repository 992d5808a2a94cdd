// Package tplcheck checks a template tree against the site's template
// conventions: page templates must declare a title block, and every template
// must compile with the production engine configuration.
package tplcheck

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-tplcheck/pkg/check"
	"github.com/goliatone/go-tplcheck/pkg/engine"
	"github.com/goliatone/go-tplcheck/pkg/filters"
	"github.com/goliatone/go-tplcheck/pkg/walker"
)

// Extensions lists the engine extensions the site enables.
var Extensions = []string{engine.ExtI18n, engine.ExtClientSideInclude}

// Option configures a check run.
type Option func(*settings)

type settings struct {
	logger       logrus.FieldLogger
	filters      *filters.Registry
	translator   engine.Translator
	titlePolicy  walker.Policy
	renderPolicy walker.Policy
	globals      map[string]any
}

// WithLogger sets the logger shared by the engine and the checks.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFilters replaces the default filter registry.
func WithFilters(reg *filters.Registry) Option {
	return func(s *settings) {
		if reg != nil {
			s.filters = reg
		}
	}
}

// WithTranslator sets the translator installed by the i18n extension.
func WithTranslator(t engine.Translator) Option {
	return func(s *settings) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithTitlePolicy overrides the exclusion rules of the title check.
func WithTitlePolicy(p walker.Policy) Option {
	return func(s *settings) {
		s.titlePolicy = p
	}
}

// WithRenderPolicy overrides the exclusion rules of the render check.
func WithRenderPolicy(p walker.Policy) Option {
	return func(s *settings) {
		s.renderPolicy = p
	}
}

// WithGlobals seeds values every template sees when rendered, such as the
// request a page would receive in production. Render data overrides them.
func WithGlobals(data map[string]any) Option {
	return func(s *settings) {
		for key, value := range data {
			if s.globals == nil {
				s.globals = make(map[string]any, len(data))
			}
			s.globals[key] = value
		}
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		titlePolicy:  walker.TitlePolicy(),
		renderPolicy: walker.RenderPolicy(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		s.logger = logger
	}
	if s.filters == nil {
		s.filters = filters.Default()
	}
	return s
}

// NewEngine builds an engine configured the way the site configures it:
// both extensions, the full filter registry, and no template cache.
func NewEngine(fsys fs.FS, opts ...Option) (*engine.Engine, error) {
	return newEngine(fsys, newSettings(opts))
}

func newEngine(fsys fs.FS, s *settings) (*engine.Engine, error) {
	options := []engine.Option{
		engine.WithFS(fsys),
		engine.WithExtensions(Extensions...),
		engine.WithFilters(s.filters),
		engine.WithCacheSize(0),
		engine.WithLogger(s.logger),
	}
	if s.translator != nil {
		options = append(options, engine.WithTranslator(s.translator))
	}
	if len(s.globals) > 0 {
		options = append(options, engine.WithGlobals(s.globals))
	}
	return engine.New(options...)
}

// CheckTitles runs the title check over fsys with a fresh engine.
func CheckTitles(ctx context.Context, fsys fs.FS, opts ...Option) error {
	s := newSettings(opts)
	eng, err := newEngine(fsys, s)
	if err != nil {
		return err
	}
	return check.Titles(ctx, eng, fsys, s.titlePolicy, check.WithLogger(s.logger))
}

// CheckRender runs the render check over fsys with a fresh engine.
func CheckRender(ctx context.Context, fsys fs.FS, opts ...Option) error {
	s := newSettings(opts)
	eng, err := newEngine(fsys, s)
	if err != nil {
		return err
	}
	return check.Render(ctx, eng, fsys, s.renderPolicy, check.WithLogger(s.logger))
}

// CheckAll runs both checks and joins their failures.
func CheckAll(ctx context.Context, fsys fs.FS, opts ...Option) error {
	return errors.Join(
		CheckTitles(ctx, fsys, opts...),
		CheckRender(ctx, fsys, opts...),
	)
}
