// Package filters holds the template filters the package index templates rely
// on, collected into a Registry that the engine installs before compiling.
//
// The registry is a contract with the template tree: a template that uses a
// filter name missing from Default fails to compile, and the render check
// reports every template that references it. Adding a filter to a template
// therefore requires adding the matching entry to Default in the same change.
package filters
