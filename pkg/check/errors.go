package check

import (
	"fmt"
	"strings"
)

// MissingTitleError reports a page template that declares neither a title
// nor a title_base block.
type MissingTitleError struct {
	Template string
}

func (e *MissingTitleError) Error() string {
	return fmt.Sprintf("check: template %q defines neither a %q nor a %q block", e.Template, TitleBlock, TitleBaseBlock)
}

// CompileError wraps an engine failure for one template.
type CompileError struct {
	Template string
	Err      error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("check: compile %q: %v", e.Template, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// RenderErrors collects every template that failed to compile during one
// render check, ordered by template path.
type RenderErrors struct {
	Failures []*CompileError
}

func (e *RenderErrors) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "check: %d template(s) failed to compile", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  - %s: %v", f.Template, f.Err)
	}
	return b.String()
}

// Unwrap exposes each failure to errors.Is and errors.As.
func (e *RenderErrors) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}

// Templates returns the failing template paths.
func (e *RenderErrors) Templates() []string {
	out := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Template
	}
	return out
}
