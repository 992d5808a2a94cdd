package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-tplcheck/pkg/filters"
)

var (
	// ErrMissingRoot is returned when the template root directory is absent.
	ErrMissingRoot = errors.New("engine: template root not found")
	// ErrUnknownExtension is returned for extension names the engine cannot load.
	ErrUnknownExtension = errors.New("engine: unknown extension")
	// ErrCacheUnsupported is returned for a non-zero cache size.
	ErrCacheUnsupported = errors.New("engine: compiled template cache is not supported")
)

// pongoMu guards pongo2's global filter table against concurrent parsing.
var pongoMu sync.Mutex

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir    string
	templates  fs.FS
	extensions []string
	filters    *filters.Registry
	cacheSize  int
	logger     logrus.FieldLogger
	translator Translator
	globals    map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtensions enables extensions by name, see ExtI18n and
// ExtClientSideInclude.
func WithExtensions(names ...string) Option {
	return func(cfg *config) {
		for _, name := range names {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				cfg.extensions = append(cfg.extensions, trimmed)
			}
		}
	}
}

// WithFilters installs the registry on the engine.
func WithFilters(reg *filters.Registry) Option {
	return func(cfg *config) {
		cfg.filters = reg
	}
}

// WithCacheSize sets the compiled template cache size. Only zero is accepted:
// every Load reads the filesystem.
func WithCacheSize(size int) Option {
	return func(cfg *config) {
		cfg.cacheSize = size
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithTranslator sets the translator used by the i18n extension.
func WithTranslator(t Translator) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.translator = t
		}
	}
}

// WithGlobals seeds values available to every template at render time.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine holds the configuration of a pongo2 template set. Each Load builds
// a fresh set from it.
type Engine struct {
	templates  fs.FS
	enabled    []extension
	extensions []string
	filters    []string
	registry   *filters.Registry
	globals    pongo2.Context
	logger     logrus.FieldLogger
}

// New constructs an Engine using the provided options.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		translator: NullTranslator{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = discardLogger()
	}

	if cfg.cacheSize != 0 {
		return nil, fmt.Errorf("%w: size %d", ErrCacheUnsupported, cfg.cacheSize)
	}
	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("engine: need to provide either base dir or fs.FS")
	}

	templates := cfg.templates
	if cfg.baseDir != "" {
		info, err := os.Stat(cfg.baseDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrMissingRoot, cfg.baseDir)
		}
		templates = os.DirFS(cfg.baseDir)
	}

	enabled, err := resolveExtensions(cfg.extensions)
	if err != nil {
		return nil, err
	}

	globals := pongo2.Context{}
	names := make([]string, 0, len(enabled))
	for _, ext := range enabled {
		names = append(names, ext.name)
		if ext.globals != nil {
			globals.Update(ext.globals(cfg))
		}
	}
	for key, value := range cfg.globals {
		globals[key] = value
	}

	var installed []string
	if cfg.filters != nil {
		installed = cfg.filters.Names()
	}

	e := &Engine{
		templates:  templates,
		enabled:    enabled,
		extensions: names,
		filters:    installed,
		registry:   cfg.filters,
		globals:    globals,
		logger:     cfg.logger,
	}

	// registry conflicts fail construction
	pongoMu.Lock()
	_, err = e.newSet()
	pongoMu.Unlock()
	if err != nil {
		return nil, err
	}

	cfg.logger.WithFields(logrus.Fields{
		"extensions": names,
		"filters":    len(installed),
	}).Debug("template engine configured")

	return e, nil
}

// Extensions returns the enabled extension names.
func (e *Engine) Extensions() []string {
	return append([]string(nil), e.extensions...)
}

// Filters returns the filter names installed by this engine.
func (e *Engine) Filters() []string {
	return append([]string(nil), e.filters...)
}

// Load compiles the template at name, a path relative to the template root.
// Nothing is cached: every call parses the current file contents with a set
// scoped to the filters installed in pongo2 at that moment.
func (e *Engine) Load(name string) (*Template, error) {
	if e == nil || e.templates == nil {
		return nil, errors.New("engine: engine is nil")
	}
	clean := cleanName(name)

	pongoMu.Lock()
	tpl, err := e.compile(clean)
	pongoMu.Unlock()
	if err != nil {
		e.logger.WithField("template", clean).WithError(err).Debug("template failed to compile")
		return nil, fmt.Errorf("engine: load template %q: %w", clean, err)
	}

	src, err := fs.ReadFile(e.templates, clean)
	if err != nil {
		return nil, fmt.Errorf("engine: read template %q: %w", clean, err)
	}

	e.logger.WithField("template", clean).Debug("template compiled")
	return &Template{
		Name:   clean,
		tpl:    tpl,
		blocks: scanBlocks(string(src)),
	}, nil
}

func (e *Engine) compile(name string) (*pongo2.Template, error) {
	set, err := e.newSet()
	if err != nil {
		return nil, err
	}
	return set.FromFile(name)
}

// newSet publishes the registry and returns a set that bans every extension
// tag and custom filter this engine was not configured with. Callers hold
// pongoMu.
func (e *Engine) newSet() (*pongo2.TemplateSet, error) {
	if err := publish(e.registry); err != nil {
		return nil, fmt.Errorf("engine: install filters: %w", err)
	}

	set := pongo2.NewSet("templates", &rootLoader{fsys: e.templates})
	if err := banDisabledTags(set, e.enabled); err != nil {
		return nil, fmt.Errorf("engine: configure extensions: %w", err)
	}
	if err := banForeignFilters(set, e.registry); err != nil {
		return nil, fmt.Errorf("engine: install filters: %w", err)
	}
	set.Globals.Update(e.globals)
	return set, nil
}

// Render compiles and executes the template at name with data.
func (e *Engine) Render(name string, data map[string]any, out ...io.Writer) (string, error) {
	tmpl, err := e.Load(name)
	if err != nil {
		return "", err
	}
	return tmpl.Execute(data, out...)
}

// Template is a compiled template plus the blocks it declares.
type Template struct {
	Name   string
	tpl    *pongo2.Template
	blocks []string
}

// Blocks returns the names of the blocks declared by this template, excluding
// blocks only inherited from a parent, in sorted order.
func (t *Template) Blocks() []string {
	return append([]string(nil), t.blocks...)
}

// HasBlock reports whether the template declares a block called name.
func (t *Template) HasBlock(name string) bool {
	for _, block := range t.blocks {
		if block == name {
			return true
		}
	}
	return false
}

// Execute renders the template with data.
func (t *Template) Execute(data map[string]any, out ...io.Writer) (string, error) {
	var buf bytes.Buffer

	if err := t.tpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", fmt.Errorf("engine: execute template %q: %w", t.Name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
