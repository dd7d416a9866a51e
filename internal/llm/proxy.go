package llm

import (
	"net/url"
	"os"
	"strconv"
	"strings"
)

// resolveProxyURL applies the precedence explicit config proxy -> environment
// (gated by NO_PROXY) -> none, and returns the normalized proxy URL plus a
// source label used only for debug logging.
func resolveProxyURL(explicit, baseURL string) (proxyURL, source string) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return normalizeProxyURL(explicit), "config"
	}
	if env := envProxyURL(baseURL); env != "" {
		return normalizeProxyURL(env), "env"
	}
	return "", "none"
}

// normalizeProxyURL rewrites the bare "socks://" scheme some tools export
// to "socks5://", which is what Go's SOCKS dialer expects.
func normalizeProxyURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.EqualFold(u.Scheme, "socks") {
		u.Scheme = "socks5"
	}
	return u.String()
}

func envProxyURL(baseURL string) string {
	target := strings.TrimSpace(baseURL)
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	host := strings.ToLower(u.Hostname())
	var port int
	if p := u.Port(); p != "" {
		port, _ = strconv.Atoi(p)
	}

	if host != "" && isNoProxyHost(host, port) {
		return ""
	}

	switch scheme {
	case "https":
		return firstEnv("HTTPS_PROXY", "https_proxy", "ALL_PROXY", "all_proxy")
	case "http":
		return firstEnv("HTTP_PROXY", "http_proxy", "ALL_PROXY", "all_proxy")
	default:
		return firstEnv("ALL_PROXY", "all_proxy", "HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// isNoProxyHost best-effort matches NO_PROXY entries: "*", exact host,
// domain-suffix ("example.com" or ".example.com" matches subdomains), and
// optional ":port" qualifiers.
func isNoProxyHost(host string, port int) bool {
	raw := firstEnv("NO_PROXY", "no_proxy")
	if raw == "" {
		return false
	}
	host = strings.ToLower(strings.Trim(host, "."))

	for _, entry := range strings.Split(raw, ",") {
		token := strings.TrimSpace(entry)
		if token == "" {
			continue
		}
		if token == "*" {
			return true
		}

		tokenHost := token
		tokenPort := -1
		if strings.Count(token, ":") == 1 {
			left, right := splitOnce(token, ":")
			if p, err := strconv.Atoi(right); err == nil {
				tokenHost = left
				tokenPort = p
			}
		}
		tokenHost = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tokenHost), "."))

		if tokenPort != -1 && port != 0 && tokenPort != port {
			continue
		}
		if host == tokenHost {
			return true
		}
		if tokenHost != "" && strings.HasSuffix(host, "."+tokenHost) {
			return true
		}
	}
	return false
}

func splitOnce(s, sep string) (string, string) {
	idx := strings.Index(s, sep)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+len(sep):]
}
