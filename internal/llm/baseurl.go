package llm

import (
	"net/url"
	"strings"
)

// normalizeBaseURL defaults an empty or root path to "/v1" and strips any
// trailing slash. Some OpenAI-compatible providers 404 when "/v1" is
// omitted, so a bare host is never passed through unchanged.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimRight(raw, "/")
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		path = "/v1"
	}
	u.Path = path
	return strings.TrimRight(u.String(), "/")
}
