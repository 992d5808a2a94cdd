package filters_test

import (
	"strings"
	"testing"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplcheck/pkg/filters"
)

func apply(t *testing.T, reg *filters.Registry, name string, in any, param any) *pongo2.Value {
	t.Helper()

	fn, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("filter %q not registered", name)
	}
	var p *pongo2.Value
	if param != nil {
		p = pongo2.AsValue(param)
	}
	out, err := fn(pongo2.AsValue(in), p)
	if err != nil {
		t.Fatalf("apply %s: %v", name, err)
	}
	return out
}

func TestDateFilters(t *testing.T) {
	reg := filters.Default()
	ts := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	cases := []struct {
		name   string
		filter string
		param  any
		want   string
	}{
		{"date default", filters.FormatDate, nil, "Mar 5, 2024"},
		{"date short", filters.FormatDate, "short", "3/5/24"},
		{"date full", filters.FormatDate, "full", "Tuesday, March 5, 2024"},
		{"datetime default", filters.FormatDatetime, nil, "Mar 5, 2024, 2:07:09 PM"},
		{"rfc822", filters.FormatRFC822Datetime, nil, "Tue, 05 Mar 2024 14:07:09 GMT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := apply(t, reg, tc.filter, ts, tc.param).String()
			if got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestLocalizeDatetime(t *testing.T) {
	reg := filters.Default()
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2024, time.March, 5, 16, 0, 0, 0, loc)

	got := apply(t, reg, filters.LocalizeDatetime, in, nil).Time()
	if got.Location() != time.UTC || got.Hour() != 14 {
		t.Fatalf("expected 14:00 UTC, got %v", got)
	}
}

func TestFormatNumber(t *testing.T) {
	reg := filters.Default()
	if got := apply(t, reg, filters.FormatNumber, 1234567, nil).String(); got != "1,234,567" {
		t.Fatalf("want 1,234,567, got %q", got)
	}
	if got := apply(t, reg, filters.FormatNumber, nil, nil).String(); got != "" {
		t.Fatalf("nil input should render empty, got %q", got)
	}
}

func TestShortenNumber(t *testing.T) {
	cases := map[float64]string{
		12:        "12",
		999:       "999",
		1234:      "1.23K",
		1500000:   "1.5M",
		2.5e9:     "2.5B",
		123456789: "123M",
	}
	for in, want := range cases {
		if got := filters.FormatShortNumber(in); got != want {
			t.Fatalf("FormatShortNumber(%v) = %q, want %q", in, got, want)
		}
	}
	if got := apply(t, filters.Default(), filters.ShortenNumber, 1234, nil).String(); got != "1.23K" {
		t.Fatalf("%s filter = %q, want 1.23K", filters.ShortenNumber, got)
	}
}

func TestGroupClassifiers(t *testing.T) {
	got := filters.GroupClassifiers([]string{
		"Topic :: Utilities",
		"License :: OSI Approved :: MIT License",
		"Topic :: Internet",
		"Private",
	})
	want := []filters.ClassifierGroup{
		{Name: "Topic", Values: []string{"Internet", "Utilities"}},
		{Name: "License", Values: []string{"OSI Approved :: MIT License"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("classifier groups mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifierID(t *testing.T) {
	reg := filters.Default()
	got := apply(t, reg, filters.ClassifierID, "Topic :: Software Development", nil).String()
	if got != "Topic_._Software_Development" {
		t.Fatalf("unexpected classifier id %q", got)
	}
}

func TestSplitTags(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"foo, bar,baz", []string{"foo", "bar", "baz"}},
		{`"a";'b'`, []string{"a", "b"}},
		{"x  y", []string{"x", "y"}},
		{" ", []string{}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, filters.SplitTags(tc.in)); diff != "" {
			t.Fatalf("SplitTags(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestJSON_EscapesHTML(t *testing.T) {
	reg := filters.Default()
	got := apply(t, reg, filters.JSON, map[string]string{"k": "<b>'x'</b>"}, nil).String()
	if strings.ContainsAny(got, "<>'") {
		t.Fatalf("json output not escaped: %s", got)
	}
}

func TestParseURL(t *testing.T) {
	got, err := filters.ParseURL("https://user@example.com/a/b;type=x?q=1#frag")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]string{
		"scheme":   "https",
		"netloc":   "user@example.com",
		"path":     "/a/b",
		"params":   "type=x",
		"query":    "q=1",
		"fragment": "frag",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("url parts mismatch (-want +got):\n%s", diff)
	}
}

func TestContainsValidURIs(t *testing.T) {
	reg := filters.Default()
	if !apply(t, reg, filters.ContainsValidURIs, []string{"nope", "https://pypi.org"}, nil).Bool() {
		t.Fatalf("expected a valid uri")
	}
	pairs := [][]string{{"Homepage", "ftp://example.com"}, {"Docs", "http://docs.example.com"}}
	if !apply(t, reg, filters.ContainsValidURIs, pairs, nil).Bool() {
		t.Fatalf("expected a valid uri in pairs")
	}
	if apply(t, reg, filters.ContainsValidURIs, []string{"mailto:a@b.c", "/relative"}, nil).Bool() {
		t.Fatalf("expected no valid uri")
	}
}

func TestFormatPackageType(t *testing.T) {
	reg := filters.Default()
	if got := apply(t, reg, filters.FormatPackageType, "bdist_wheel", nil).String(); got != "Wheel" {
		t.Fatalf("want Wheel, got %q", got)
	}
	if got := apply(t, reg, filters.FormatPackageType, "bdist_unknown", nil).String(); got != "bdist_unknown" {
		t.Fatalf("unknown types pass through, got %q", got)
	}
}

func TestCanonicalizeName(t *testing.T) {
	if got := filters.Canonicalize("Django_REST.framework--Extras"); got != "django-rest-framework-extras" {
		t.Fatalf("unexpected canonical name %q", got)
	}
	if got := apply(t, filters.Default(), filters.CanonicalizeName, "Zope.Interface", nil).String(); got != "zope-interface" {
		t.Fatalf("%s filter = %q", filters.CanonicalizeName, got)
	}
}

func TestParseVersionString(t *testing.T) {
	cases := []struct {
		in         string
		public     string
		prerelease bool
		local      string
	}{
		{"1.0", "1.0", false, ""},
		{"1.0a1", "1.0a1", true, ""},
		{"1.0alpha", "1.0a0", true, ""},
		{"1.0-1", "1.0.post1", false, ""},
		{"v2.1.dev3", "2.1.dev3", true, ""},
		{"2!1.0.post2.dev3+Local_1", "2!1.0.post2.dev3", true, "local.1"},
	}
	for _, tc := range cases {
		v, err := filters.ParseVersionString(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if v.Public() != tc.public {
			t.Fatalf("%q public = %q, want %q", tc.in, v.Public(), tc.public)
		}
		if v.IsPrerelease() != tc.prerelease {
			t.Fatalf("%q prerelease = %v", tc.in, v.IsPrerelease())
		}
		if v.Local != tc.local {
			t.Fatalf("%q local = %q, want %q", tc.in, v.Local, tc.local)
		}
	}
	if _, err := filters.ParseVersionString("not a version"); err == nil {
		t.Fatalf("expected error for invalid version")
	}
}

func TestParseVersionFilter_LegacyPassthrough(t *testing.T) {
	reg := filters.Default()
	if got := apply(t, reg, filters.ParseVersion, "banana", nil).String(); got != "banana" {
		t.Fatalf("legacy versions should pass through, got %q", got)
	}
}

func TestCamoify(t *testing.T) {
	const (
		base = "https://camo.example.org/"
		key  = "secret"
	)
	reg := filters.Default(filters.WithCamo(base, key))

	in := `<p>hi</p><img src="http://example.com/a.png"><script>alert(1)</script>`
	got := apply(t, reg, filters.Camoify, in, nil).String()

	proxied := filters.CamoURL(base, key, "http://example.com/a.png")
	if !strings.Contains(got, `src="`+proxied+`"`) {
		t.Fatalf("image not proxied through camo: %s", got)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("script not sanitized: %s", got)
	}
	if !strings.HasPrefix(proxied, "https://camo.example.org/") || !strings.HasSuffix(proxied, "/687474703a2f2f6578616d706c652e636f6d2f612e706e67") {
		t.Fatalf("unexpected camo url layout: %s", proxied)
	}
}
