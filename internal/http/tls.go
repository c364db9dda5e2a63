package http

import (
	"crypto/tls"
	"net/http"
	"strings"
)

// hostRouter picks a TLS adapter per request host. Hosts that still need the
// legacy cipher suites get their own transport; everything else goes through
// the default one.
type hostRouter struct {
	weakHosts map[string]bool
	weak      http.RoundTripper
	standard  http.RoundTripper
}

func newHostRouter(weakHosts []string) *hostRouter {
	router := &hostRouter{
		weakHosts: make(map[string]bool, len(weakHosts)),
		standard:  newTransport(nil),
	}

	for _, host := range weakHosts {
		router.weakHosts[strings.ToLower(host)] = true
	}

	if len(router.weakHosts) > 0 {
		router.weak = newTransport(weakCipherTLSConfig())
	}

	return router
}

// RoundTrip implements http.RoundTripper.
func (r *hostRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	return r.transportFor(req.URL.Hostname()).RoundTrip(req)
}

func (r *hostRouter) transportFor(host string) http.RoundTripper {
	if r.weak != nil && r.weakHosts[strings.ToLower(host)] {
		return r.weak
	}

	return r.standard
}

func newTransport(tlsConfig *tls.Config) *http.Transport {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		transport = &http.Transport{}
	}

	clone := transport.Clone()
	if tlsConfig != nil {
		clone.TLSClientConfig = tlsConfig
	}

	return clone
}

// weakCipherTLSConfig offers the insecure suites after the secure ones.
func weakCipherTLSConfig() *tls.Config {
	suites := make([]uint16, 0, len(tls.CipherSuites())+len(tls.InsecureCipherSuites()))

	for _, suite := range tls.CipherSuites() {
		suites = append(suites, suite.ID)
	}

	for _, suite := range tls.InsecureCipherSuites() {
		suites = append(suites, suite.ID)
	}

	return &tls.Config{
		CipherSuites: suites,
		MinVersion:   tls.VersionTLS10, // #nosec G402 -- legacy endpoint only, selected per host
	}
}
