package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-tplcheck/cmd/tplcheck/commands"
	"github.com/goliatone/go-tplcheck/pkg/testsupport"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := commands.NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestAll_ShippedTemplates(t *testing.T) {
	stdout, _, err := execute(t, "all", "--log-level", "warn")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", stdout)
}

func TestTitles_ReportsMissingTitle(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"page.html":     `{% block title %}Hello{% endblock %}`,
		"untitled.html": `<p>no title</p>`,
	})

	_, stderr, err := execute(t, "titles", "--root", root, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, stderr, `untitled.html: missing "title" or "title_base" block`)
}

func TestRender_ReportsEveryFailure(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"page.html":         `{% block title %}Hello{% endblock %}`,
		"broken.html":       `{% block title %}Oops`,
		"includes/bad.html": `{{ value|not_a_filter }}`,
	})

	_, stderr, err := execute(t, "render", "--root", root, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, stderr, "broken.html: ")
	assert.Contains(t, stderr, "includes/bad.html: ")
	assert.NotContains(t, stderr, "page.html")
}

func TestTitles_PolicyFile(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"page.html":            `{% block title %}Hello{% endblock %}`,
		"partials/widget.html": `<p>widget</p>`,
	})
	policy := filepath.Join(t.TempDir(), "titles.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("exclude_dirs: [\"/partials\"]\nrequire_suffixes: [\".html\"]\n"), 0o644))

	_, _, err := execute(t, "titles", "--root", root, "--log-level", "error")
	require.Error(t, err, "widget.html has no title without the policy")

	stdout, _, err := execute(t, "titles", "--root", root, "--title-policy", policy, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", stdout)
}

func TestMissingRoot(t *testing.T) {
	_, _, err := execute(t, "all", "--root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template root not found")
}

func TestPreview(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"hello.html": `{% trans who=name %}Hello {{ who }}{% endtrans %}, {{ total|format_number }}`,
	})
	data := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(data, []byte("name: Ada\ntotal: 1234567\n"), 0o644))

	stdout, _, err := execute(t, "preview", "hello.html", "--root", root, "--data", data, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, 1,234,567", stdout)
}

func TestPreview_Golden(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"page.html": "<html lang=\"{{ request.locale }}\">{% trans who=name %}Hello {{ who }}{% endtrans %}, {{ total|shorten_number }}</html>\n",
	})
	data := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(data, []byte("name: Ada\ntotal: 1234567\n"), 0o644))

	stdout, _, err := execute(t, "preview", "page.html", "--root", root, "--data", data, "--locale", "fr", "--log-level", "error")
	require.NoError(t, err)

	golden := filepath.Join("testdata", "preview.golden")
	if testsupport.WriteMaybeGolden(t, golden, []byte(stdout)) {
		return
	}
	assert.Equal(t, testsupport.MustReadGoldenString(t, golden), stdout)
}

func TestPreview_DataOverridesRequestDefault(t *testing.T) {
	root := testsupport.WriteTree(t, map[string]string{
		"page.html": `{{ request.locale }}`,
	})
	data := filepath.Join(t.TempDir(), "data.yaml")
	require.NoError(t, os.WriteFile(data, []byte("request:\n  locale: de\n"), 0o644))

	stdout, _, err := execute(t, "preview", "page.html", "--root", root, "--locale", "fr", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "fr", stdout)

	stdout, _, err = execute(t, "preview", "page.html", "--root", root, "--data", data, "--locale", "fr", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "de", stdout)
}

func TestInvalidFlag(t *testing.T) {
	_, _, err := execute(t, "all", "--log-level", "loud")
	require.Error(t, err)
}
