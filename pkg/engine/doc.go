// Package engine configures a pongo2 template set the way the package index
// site does in production: templates addressed by root-relative paths, the
// i18n and client-side include extensions, no compiled template cache, and a
// filter registry installed before any template is parsed.
//
// pongo2 keeps filters and tags in process-wide tables shared by every
// Engine. Each Load therefore builds a fresh set that bans the custom filters
// and extension tags the engine was not configured with, as they stand in the
// table at that moment; parse-time name resolution then matches exactly the
// configuration of the engine doing the parsing.
package engine
