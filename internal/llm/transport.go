package llm

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// buildHTTPClient constructs an *http.Client appropriate for the resolved
// proxy scheme. trust_env is always effectively disabled: we never let the
// stdlib transport parse proxy environment variables itself (that happens
// once, explicitly, in resolveProxyURL), so an exotic scheme like
// ALL_PROXY=socks://... can never crash the transport.
func buildHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport := &http.Transport{}

	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(u.Scheme) {
		case "socks5", "socks5h", "socks4", "socks4a":
			dialer, err := newSOCKS5Dialer(proxyURL)
			if err != nil {
				return nil, err
			}
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			}
		default:
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
