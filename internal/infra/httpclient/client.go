package httpclient

import (
	"net"
	"net/http"
	"time"
)

// New builds a client for outbound calls to Google and the checkout
// provider. Dial and TLS handshakes get their own bounds so a hung
// connection never eats the whole request timeout.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 5 * time.Second,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
