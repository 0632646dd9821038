package imagepkg

import (
	"net/url"
	"strings"
)

// Rewriter routes logos hosted on known CDNs through a relay endpoint,
// as <RelayURL>?<percent-encoded original>. Everything else, including
// data URLs, passes through untouched. An empty RelayURL disables it.
type Rewriter struct {
	RelayURL string
	Hosts    []string
}

var DefaultRewriter = Rewriter{
	RelayURL: "https://corsproxy.io/",
	Hosts:    []string{"cdn.pandascore.co"},
}

// ProxyURL rewrites raw with DefaultRewriter.
func ProxyURL(raw string) string {
	return DefaultRewriter.Rewrite(raw)
}

func (rw Rewriter) Rewrite(raw string) string {
	if raw == "" || rw.RelayURL == "" || strings.HasPrefix(raw, "data:") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range rw.Hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && (host == h || strings.HasSuffix(host, "."+h)) {
			return rw.RelayURL + "?" + encodeURIComponent(raw)
		}
	}
	return raw
}

// url.QueryEscape differs from encodeURIComponent on spaces and !'()*.
var componentFixer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return componentFixer.Replace(url.QueryEscape(s))
}
