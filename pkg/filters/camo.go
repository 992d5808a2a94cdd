package filters

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// CamoURL returns the proxied location of target: the HMAC-SHA1 digest of the
// target keyed by key, followed by the hex encoded target, under base.
func CamoURL(base, key, target string) string {
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(target))
	digest := hex.EncodeToString(mac.Sum(nil))
	return strings.TrimRight(base, "/") + "/" + digest + "/" + hex.EncodeToString([]byte(target))
}

func camoPolicy(base, key string) *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RewriteSrc(func(u *url.URL) {
		if u == nil {
			return
		}
		proxied, err := url.Parse(CamoURL(base, key, u.String()))
		if err != nil {
			return
		}
		*u = *proxied
	})
	return policy
}

func camoFilter(base, key string) pongo2.FilterFunction {
	policy := camoPolicy(base, key)
	return func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		raw := strings.TrimSpace(in.String())
		if raw == "" {
			return pongo2.AsSafeValue(""), nil
		}
		return pongo2.AsSafeValue(policy.Sanitize(raw)), nil
	}
}
