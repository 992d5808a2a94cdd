package filters

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/language"
)

// Filter names exposed by Default.
const (
	FormatDate           = "format_date"
	FormatDatetime       = "format_datetime"
	FormatRFC822Datetime = "format_rfc822_datetime"
	FormatNumber         = "format_number"
	FormatClassifiers    = "format_classifiers"
	ClassifierID         = "classifier_id"
	FormatTags           = "format_tags"
	JSON                 = "json"
	Camoify              = "camoify"
	ShortenNumber        = "shorten_number"
	URLParse             = "urlparse"
	ContainsValidURIs    = "contains_valid_uris"
	FormatPackageType    = "format_package_type"
	ParseVersion         = "parse_version"
	LocalizeDatetime     = "localize_datetime"
	CanonicalizeName     = "canonicalize_name"
)

var (
	// ErrDuplicateFilter is returned when a name is registered twice.
	ErrDuplicateFilter = errors.New("filters: duplicate filter name")
	// ErrInvalidFilter is returned for empty names or nil functions.
	ErrInvalidFilter = errors.New("filters: filter name and function required")
)

// Option configures the filters built by Default.
type Option func(*config)

type config struct {
	locale  language.Tag
	camoURL string
	camoKey string
}

// WithLocale sets the locale used by the number formatting filters.
func WithLocale(tag language.Tag) Option {
	return func(cfg *config) {
		cfg.locale = tag
	}
}

// WithCamo configures the image proxy used by camoify.
func WithCamo(url, key string) Option {
	return func(cfg *config) {
		cfg.camoURL = strings.TrimSpace(url)
		cfg.camoKey = key
	}
}

// Registry maps filter names to pongo2 filter functions. Names are unique.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]pongo2.FilterFunction
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]pongo2.FilterFunction)}
}

// Default returns the production filter set.
func Default(options ...Option) *Registry {
	cfg := &config{
		locale:  language.English,
		camoURL: "https://camo.pypi.org/",
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	reg := NewRegistry()
	for name, fn := range map[string]pongo2.FilterFunction{
		FormatDate:           filterFormatDate,
		FormatDatetime:       filterFormatDatetime,
		FormatRFC822Datetime: filterFormatRFC822Datetime,
		FormatNumber:         numberFilter(cfg.locale),
		FormatClassifiers:    filterFormatClassifiers,
		ClassifierID:         filterClassifierID,
		FormatTags:           filterFormatTags,
		JSON:                 filterJSON,
		Camoify:              camoFilter(cfg.camoURL, cfg.camoKey),
		ShortenNumber:        filterShortenNumber,
		URLParse:             filterURLParse,
		ContainsValidURIs:    filterContainsValidURIs,
		FormatPackageType:    filterFormatPackageType,
		ParseVersion:         filterParseVersion,
		LocalizeDatetime:     filterLocalizeDatetime,
		CanonicalizeName:     filterCanonicalizeName,
	} {
		// names are literal constants, a failure here is a programming error
		if err := reg.Register(name, fn); err != nil {
			panic(err)
		}
	}
	return reg
}

// Register adds a filter under name.
func (r *Registry) Register(name string, fn pongo2.FilterFunction) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return ErrInvalidFilter
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[trimmed]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateFilter, trimmed)
	}
	r.filters[trimmed] = fn
	return nil
}

// Lookup returns the filter registered under name.
func (r *Registry) Lookup(name string) (pongo2.FilterFunction, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.filters[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.filters))
	for name := range r.filters {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len reports the number of registered filters.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}

// Without returns a copy of the registry minus the given names.
func (r *Registry) Without(names ...string) *Registry {
	out := NewRegistry()
	if r == nil {
		return out
	}
	skip := make(map[string]struct{}, len(names))
	for _, name := range names {
		skip[name] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, fn := range r.filters {
		if _, ok := skip[name]; ok {
			continue
		}
		out.filters[name] = fn
	}
	return out
}

func filterError(name string, err error) *pongo2.Error {
	return &pongo2.Error{Sender: "filter:" + name, OrigError: err}
}
