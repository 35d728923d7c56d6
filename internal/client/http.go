package client

import (
	"time"

	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

type Options struct {
	UserAgent string
	Language  string
	ProxyURL  string
	// Timeout caps a whole request, including reading the body.
	Timeout time.Duration
}

// CreateClient builds a Chrome-fingerprinted client with its own cookie jar,
// routed through opts.ProxyURL when set.
func CreateClient(opts Options) (tls_client.HttpClient, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	jar := tls_client.NewCookieJar()
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(timeout.Round(time.Second) / time.Second)),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithCookieJar(jar),
	}
	if opts.ProxyURL != "" {
		options = append(options, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	return tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
}
