package httpclient

import (
	"net/http"
	"time"

	"github.com/Publikey/runqy-go/internal/logging"
)

// New returns an http.Client configured for outbound runqy calls.
//
// A timeout of zero leaves the client uncapped so per-call deadlines can be
// driven entirely by context; callers that want a hard transport-level cap
// pass one explicitly. Proxy settings follow HTTP(S)_PROXY/ALL_PROXY/NO_PROXY,
// except that unreachable loopback proxies are bypassed so clients pointed at
// a local server keep working.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	client := &http.Client{
		Transport: Transport(logger),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

// Transport returns an http.Transport clone with a proxy policy suitable for
// runqy calls.
func Transport(logger logging.Logger) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: proxyFunc(logger)}
	}

	transport := base.Clone()
	transport.Proxy = proxyFunc(logger)
	return transport
}
