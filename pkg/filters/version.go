package filters

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
)

var versionRe = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?:(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?:[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

// Version is a parsed PEP 440 version. Post and Dev are -1 when absent.
type Version struct {
	Epoch   int
	Release []int
	Pre     string
	PreN    int
	Post    int
	Dev     int
	Local   string
}

// ParseVersionString parses raw as a PEP 440 version.
func ParseVersionString(raw string) (Version, error) {
	match := versionRe.FindStringSubmatch(raw)
	if match == nil {
		return Version{}, fmt.Errorf("invalid version %q", raw)
	}
	group := func(name string) string {
		return match[versionRe.SubexpIndex(name)]
	}

	v := Version{Post: -1, Dev: -1}
	if epoch := group("epoch"); epoch != "" {
		v.Epoch, _ = strconv.Atoi(epoch)
	}
	for _, part := range strings.Split(group("release"), ".") {
		n, _ := strconv.Atoi(part)
		v.Release = append(v.Release, n)
	}
	if pre := strings.ToLower(group("pre_l")); pre != "" {
		switch pre {
		case "alpha":
			pre = "a"
		case "beta":
			pre = "b"
		case "c", "pre", "preview":
			pre = "rc"
		}
		v.Pre = pre
		v.PreN, _ = strconv.Atoi(group("pre_n"))
	}
	switch {
	case group("post_n1") != "":
		v.Post, _ = strconv.Atoi(group("post_n1"))
	case group("post_l") != "":
		v.Post, _ = strconv.Atoi(group("post_n2"))
	}
	if group("dev_l") != "" {
		v.Dev, _ = strconv.Atoi(group("dev_n"))
	}
	v.Local = strings.ToLower(strings.NewReplacer("-", ".", "_", ".").Replace(group("local")))
	return v, nil
}

// BaseVersion is the epoch and release segment only.
func (v Version) BaseVersion() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Public is the normalised version without the local segment.
func (v Version) Public() string {
	var b strings.Builder
	b.WriteString(v.BaseVersion())
	if v.Pre != "" {
		fmt.Fprintf(&b, "%s%d", v.Pre, v.PreN)
	}
	if v.Post >= 0 {
		fmt.Fprintf(&b, ".post%d", v.Post)
	}
	if v.Dev >= 0 {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	return b.String()
}

func (v Version) String() string {
	if v.Local == "" {
		return v.Public()
	}
	return v.Public() + "+" + v.Local
}

// IsPrerelease reports alpha, beta, release candidate and dev versions.
func (v Version) IsPrerelease() bool {
	return v.Pre != "" || v.Dev >= 0
}

func filterParseVersion(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	v, err := ParseVersionString(in.String())
	if err != nil {
		// legacy versions render as given
		return pongo2.AsValue(in.String()), nil
	}
	return pongo2.AsValue(map[string]any{
		"public":         v.Public(),
		"base_version":   v.BaseVersion(),
		"release":        v.Release,
		"local":          v.Local,
		"is_prerelease":  v.IsPrerelease(),
		"is_postrelease": v.Post >= 0,
		"is_devrelease":  v.Dev >= 0,
		"string":         v.String(),
	}), nil
}
