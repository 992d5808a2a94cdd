package commands

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-tplcheck"
	"github.com/goliatone/go-tplcheck/pkg/check"
)

type checkFunc func(ctx context.Context, fsys fs.FS, opts ...tplcheck.Option) error

func newTitlesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "Verify every page template declares a title or title_base block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, tplcheck.CheckTitles)
		},
	}
}

func newRenderCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Verify every template compiles, reporting all failures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, tplcheck.CheckRender)
		},
	}
}

func newAllCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the title and render checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.run(cmd, tplcheck.CheckAll)
		},
	}
}

func (rt *runtime) run(cmd *cobra.Command, fn checkFunc) error {
	err := fn(cmd.Context(), rt.fsys, rt.options...)
	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}

	lines := report(err)
	if len(lines) == 0 {
		// not a check outcome: configuration or walk failure
		return err
	}
	sort.Strings(lines)
	writeLines(cmd.ErrOrStderr(), lines)
	return ErrChecksFailed
}

// report flattens check outcomes into one line per template. It returns nil
// when err carries no check outcome.
func report(err error) []string {
	var lines []string
	var visit func(error)
	visit = func(err error) {
		switch e := err.(type) {
		case *check.MissingTitleError:
			lines = append(lines, fmt.Sprintf("%s: missing %q or %q block", e.Template, check.TitleBlock, check.TitleBaseBlock))
		case *check.CompileError:
			lines = append(lines, fmt.Sprintf("%s: %v", e.Template, e.Err))
		case *check.RenderErrors:
			for _, f := range e.Failures {
				visit(f)
			}
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				visit(inner)
			}
		case interface{ Unwrap() error }:
			visit(e.Unwrap())
		}
	}
	visit(err)
	return dedupe(lines)
}

func dedupe(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	out := lines[:0]
	for _, line := range lines {
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}

func writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
