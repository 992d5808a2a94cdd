package filters_test

import (
	"errors"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplcheck/pkg/filters"
)

func TestDefault_Names(t *testing.T) {
	reg := filters.Default()

	want := []string{
		"camoify",
		"canonicalize_name",
		"classifier_id",
		"contains_valid_uris",
		"format_classifiers",
		"format_date",
		"format_datetime",
		"format_number",
		"format_package_type",
		"format_rfc822_datetime",
		"format_tags",
		"json",
		"localize_datetime",
		"parse_version",
		"shorten_number",
		"urlparse",
	}
	if diff := cmp.Diff(want, reg.Names()); diff != "" {
		t.Fatalf("default filter names mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != 16 {
		t.Fatalf("expected 16 filters, got %d", reg.Len())
	}
}

func TestRegistry_RegisterRejectsDuplicates(t *testing.T) {
	reg := filters.NewRegistry()
	noop := func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) { return in, nil }

	if err := reg.Register("noop", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := reg.Register("noop", noop)
	if !errors.Is(err, filters.ErrDuplicateFilter) {
		t.Fatalf("expected ErrDuplicateFilter, got %v", err)
	}
	if err := reg.Register("  ", noop); !errors.Is(err, filters.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for blank name, got %v", err)
	}
	if err := reg.Register("nil", nil); !errors.Is(err, filters.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for nil func, got %v", err)
	}
}

func TestRegistry_Without(t *testing.T) {
	reg := filters.Default()
	trimmed := reg.Without(filters.Camoify, filters.JSON)

	if trimmed.Len() != reg.Len()-2 {
		t.Fatalf("expected %d filters, got %d", reg.Len()-2, trimmed.Len())
	}
	if _, ok := trimmed.Lookup(filters.Camoify); ok {
		t.Fatalf("camoify should be removed")
	}
	if _, ok := reg.Lookup(filters.Camoify); !ok {
		t.Fatalf("source registry must not be modified")
	}
}
