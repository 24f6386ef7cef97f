package catalog

import (
	"net/url"
	"strings"
)

// ImageRewriter routes posters on the upstream image host through a
// passthrough image proxy, which serves them without the upstream's
// referer check.
type ImageRewriter struct {
	Host  string
	Proxy string
}

// Rewrite returns raw prefixed with the proxy when it points at Host or one
// of its subdomains. Anything else is returned unchanged.
func (r ImageRewriter) Rewrite(raw string) string {
	if raw == "" || r.Host == "" || r.Proxy == "" {
		return raw
	}
	if strings.HasPrefix(raw, r.Proxy) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := u.Hostname()
	if host != r.Host && !strings.HasSuffix(host, "."+r.Host) {
		return raw
	}
	return r.Proxy + raw
}
