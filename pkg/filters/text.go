package filters

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
)

// ClassifierGroup is one "Topic :: ..." group produced by format_classifiers.
type ClassifierGroup struct {
	Name   string
	Values []string
}

var (
	canonicalNameRe = regexp.MustCompile(`[-_.]+`)
	tagCommaRe      = regexp.MustCompile(`\s*,\s*`)
	tagSemicolonRe  = regexp.MustCompile(`\s*;\s*`)
	tagSpaceRe      = regexp.MustCompile(`\s+`)
	tagTrimRe       = regexp.MustCompile(`^["'\s]+|["'\s]+$`)
)

var packageTypes = map[string]string{
	"bdist_dmg":     "OSX Disk Image",
	"bdist_dumb":    "Dumb Binary",
	"bdist_egg":     "Egg",
	"bdist_msi":     "Windows MSI Installer",
	"bdist_rpm":     "RPM",
	"bdist_wheel":   "Wheel",
	"bdist_wininst": "Windows Installer",
	"sdist":         "Source",
}

var magnitudes = []string{"K", "M", "B"}

func filterFormatClassifiers(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(GroupClassifiers(stringList(in.Interface()))), nil
}

// GroupClassifiers splits "Key :: Rest" classifiers into groups keyed by the
// first segment. Groups keep first-seen order, values are sorted. Classifiers
// without a separator are dropped.
func GroupClassifiers(classifiers []string) []ClassifierGroup {
	var groups []ClassifierGroup
	index := make(map[string]int)
	for _, classifier := range classifiers {
		key, value, ok := strings.Cut(classifier, " :: ")
		if !ok {
			continue
		}
		idx, seen := index[key]
		if !seen {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, ClassifierGroup{Name: key})
		}
		groups[idx].Values = append(groups[idx].Values, value)
	}
	for i := range groups {
		sort.Strings(groups[i].Values)
	}
	return groups
}

func filterClassifierID(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	id := strings.ReplaceAll(in.String(), " ", "_")
	return pongo2.AsValue(strings.ReplaceAll(id, "::", ".")), nil
}

func filterFormatTags(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(SplitTags(in.String())), nil
}

// SplitTags splits a keywords string on commas, else semicolons, else
// whitespace, trimming quotes and dropping empty entries.
func SplitTags(tags string) []string {
	var parts []string
	switch {
	case strings.Contains(tags, ","):
		parts = tagCommaRe.Split(tags, -1)
	case strings.Contains(tags, ";"):
		parts = tagSemicolonRe.Split(tags, -1)
	default:
		parts = tagSpaceRe.Split(tags, -1)
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if cleaned := tagTrimRe.ReplaceAllString(part, ""); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func filterJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	b, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, filterError(JSON, err)
	}
	// json.Marshal already escapes <, > and &
	return pongo2.AsSafeValue(strings.ReplaceAll(string(b), "'", "\\u0027")), nil
}

func filterShortenNumber(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if !in.IsNumber() {
		return pongo2.AsValue(in.String()), nil
	}
	return pongo2.AsValue(FormatShortNumber(in.Float())), nil
}

// FormatShortNumber renders value with a K, M or B suffix and three significant
// digits once it reaches a thousand.
func FormatShortNumber(value float64) string {
	for i, symbol := range magnitudes {
		magnitude := value / math.Pow(1000, float64(i+1))
		if magnitude >= 1 && magnitude < 1000 {
			return strconv.FormatFloat(magnitude, 'g', 3, 64) + symbol
		}
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func filterURLParse(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	parts, err := ParseURL(in.String())
	if err != nil {
		return nil, filterError(URLParse, err)
	}
	return pongo2.AsValue(parts), nil
}

// ParseURL splits raw into the six named components templates read:
// scheme, netloc, path, params, query and fragment.
func ParseURL(raw string) (map[string]string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	netloc := u.Host
	if u.User != nil {
		netloc = u.User.String() + "@" + u.Host
	}
	path, params := u.Path, ""
	if idx := strings.LastIndex(path, ";"); idx >= 0 && idx > strings.LastIndex(path, "/") {
		path, params = path[:idx], path[idx+1:]
	}
	return map[string]string{
		"scheme":   u.Scheme,
		"netloc":   netloc,
		"path":     path,
		"params":   params,
		"query":    u.RawQuery,
		"fragment": u.Fragment,
	}, nil
}

func filterContainsValidURIs(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	for _, candidate := range uriCandidates(in.Interface()) {
		if IsValidURI(candidate) {
			return pongo2.AsValue(true), nil
		}
	}
	return pongo2.AsValue(false), nil
}

// IsValidURI reports whether raw is an absolute http or https URI with a host.
func IsValidURI(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func filterFormatPackageType(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	raw := in.String()
	if label, ok := packageTypes[raw]; ok {
		return pongo2.AsValue(label), nil
	}
	return pongo2.AsValue(raw), nil
}

func filterCanonicalizeName(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(Canonicalize(in.String())), nil
}

// Canonicalize normalises a project name: runs of -, _ and . collapse to
// a single dash and the result is lower-cased.
func Canonicalize(name string) string {
	return strings.ToLower(canonicalNameRe.ReplaceAllString(name, "-"))
}

func stringList(v any) []string {
	switch items := v.(type) {
	case nil:
		return nil
	case []string:
		return items
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, fmt.Sprint(rv.Index(i).Interface()))
	}
	return out
}

// uriCandidates accepts plain strings or (label, url) pairs.
func uriCandidates(v any) []string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil
	}
	out := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := reflect.ValueOf(rv.Index(i).Interface())
		switch item.Kind() {
		case reflect.String:
			out = append(out, item.String())
		case reflect.Slice, reflect.Array:
			if item.Len() >= 2 {
				out = append(out, fmt.Sprint(item.Index(1).Interface()))
			}
		}
	}
	return out
}
