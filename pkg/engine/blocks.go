package engine

import (
	"sort"
	"strings"
)

// scanBlocks returns the sorted, distinct block names declared in src. It is
// only run on sources pongo2 has already compiled, so tag syntax is valid.
// Comments, variable tags, quoted strings and comment/verbatim bodies never
// declare blocks.
func scanBlocks(src string) []string {
	seen := map[string]bool{}
	var names []string
	skipUntil := ""

	for i := 0; i < len(src)-1; {
		if src[i] != '{' {
			i++
			continue
		}
		switch src[i+1] {
		case '#':
			if skipUntil != "" {
				i += 2
				continue
			}
			end := strings.Index(src[i+2:], "#}")
			if end < 0 {
				return sortedNames(names)
			}
			i += 2 + end + 2
		case '{':
			if skipUntil != "" {
				i += 2
				continue
			}
			end := closeIndex(src, i+2, "}}")
			if end < 0 {
				return sortedNames(names)
			}
			i = end + 2
		case '%':
			end := closeIndex(src, i+2, "%}")
			if end < 0 {
				return sortedNames(names)
			}
			fields := tagFields(src[i+2 : end])
			i = end + 2
			if len(fields) == 0 {
				continue
			}
			if skipUntil != "" {
				if fields[0] == skipUntil {
					skipUntil = ""
				}
				continue
			}
			switch fields[0] {
			case "block":
				if len(fields) > 1 && !seen[fields[1]] {
					seen[fields[1]] = true
					names = append(names, fields[1])
				}
			case "comment":
				skipUntil = "endcomment"
			case "verbatim":
				skipUntil = "endverbatim"
			}
		default:
			i++
		}
	}
	return sortedNames(names)
}

// closeIndex returns the offset of the first closer at or after from that is
// not inside a quoted string, or -1.
func closeIndex(src string, from int, closer string) int {
	var quote byte
	for k := from; k < len(src); k++ {
		c := src[k]
		switch {
		case quote != 0:
			if c == '\\' {
				k++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case strings.HasPrefix(src[k:], closer):
			return k
		}
	}
	return -1
}

func tagFields(body string) []string {
	body = strings.TrimSpace(body)
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(body, "-"), "-"))
	return strings.Fields(body)
}

func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}
