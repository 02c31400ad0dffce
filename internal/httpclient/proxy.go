package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Publikey/runqy-go/internal/logging"
)

// ProxyModeEnv selects how outbound requests pick a proxy: "auto" (the
// default) follows the proxy environment but skips loopback proxies that are
// not accepting connections, "strict" always follows the environment, and
// "direct" disables proxying entirely.
const ProxyModeEnv = "RUNQY_PROXY_MODE"

const proxyProbeTimeout = 300 * time.Millisecond

type proxyMode uint8

const (
	proxyModeAuto proxyMode = iota
	proxyModeStrict
	proxyModeDirect
)

// proxyPolicy resolves the proxy for each outbound request. Probe results are
// remembered per policy, so a stale local proxy is dialed once per client
// rather than once per call.
type proxyPolicy struct {
	log    logging.Logger
	probes sync.Map // proxy URL -> bool, true when the proxy accepted a connection
	noted  sync.Map // proxy URL -> struct{}, bypass already logged
}

// proxyFunc returns the Transport.Proxy hook for a client. Queue servers are
// frequently reached over loopback, where a stale HTTP_PROXY left in the
// shell environment would otherwise break every call: loopback targets
// connect directly, and loopback proxies that are down are skipped instead of
// failing the request.
func proxyFunc(logger logging.Logger) func(*http.Request) (*url.URL, error) {
	policy := &proxyPolicy{log: logging.OrNop(logger)}
	return policy.resolve
}

func (p *proxyPolicy) resolve(req *http.Request) (*url.URL, error) {
	if req == nil || req.URL == nil {
		return nil, nil
	}

	switch proxyModeFromEnv() {
	case proxyModeDirect:
		return nil, nil
	case proxyModeStrict:
		return http.ProxyFromEnvironment(req)
	}

	if isLoopbackHost(req.URL.Hostname()) {
		return nil, nil
	}

	proxyURL, err := http.ProxyFromEnvironment(req)
	if err != nil || proxyURL == nil || !isLoopbackHost(proxyURL.Hostname()) {
		return proxyURL, err
	}

	if p.usable(req.Context(), proxyURL) {
		return proxyURL, nil
	}
	p.noteBypass(proxyURL)
	return nil, nil
}

// usable reports whether the loopback proxy accepts TCP connections,
// remembering the first answer for the lifetime of the policy.
func (p *proxyPolicy) usable(ctx context.Context, proxyURL *url.URL) bool {
	key := proxyURL.String()
	if cached, ok := p.probes.Load(key); ok {
		return cached.(bool)
	}

	addr, ok := proxyAddr(proxyURL)
	if !ok {
		p.probes.Store(key, true)
		return true
	}

	if ctx == nil {
		ctx = context.Background()
	}
	dialer := net.Dialer{Timeout: proxyProbeTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err == nil {
		_ = conn.Close()
	}

	up := err == nil
	p.probes.Store(key, up)
	return up
}

func (p *proxyPolicy) noteBypass(proxyURL *url.URL) {
	if _, already := p.noted.LoadOrStore(proxyURL.String(), struct{}{}); already {
		return
	}
	p.log.Warn("Local proxy %s is not accepting connections; connecting directly (set %s=strict to disable).",
		proxyURL.Redacted(), ProxyModeEnv)
}

func proxyModeFromEnv() proxyMode {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(ProxyModeEnv))) {
	case "strict":
		return proxyModeStrict
	case "direct", "none", "off":
		return proxyModeDirect
	default:
		return proxyModeAuto
	}
}

// isLoopbackHost reports whether host names the local machine. Unspecified
// addresses count as local: a server bound to 0.0.0.0 is reached locally.
func isLoopbackHost(host string) bool {
	host = strings.TrimSpace(host)
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsUnspecified()
}

// proxyAddr derives the dialable host:port for a proxy URL, defaulting the
// port from the scheme.
func proxyAddr(proxyURL *url.URL) (string, bool) {
	host := strings.TrimSpace(proxyURL.Hostname())
	if host == "" {
		return "", false
	}

	port := proxyURL.Port()
	if port == "" {
		switch strings.ToLower(proxyURL.Scheme) {
		case "", "http":
			port = "80"
		case "https":
			port = "443"
		case "socks5", "socks5h":
			port = "1080"
		default:
			return "", false
		}
	}

	return net.JoinHostPort(host, port), true
}
