package google

import (
	"net/http"
	"strings"

	"google.golang.org/api/option"
)

// apiKeyTransport adds the key query parameter to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.key)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

// clientOptions returns the options for a generated service: the shared
// client wrapped to carry the key, plus an endpoint override when set.
func clientOptions(httpClient *http.Client, key, endpoint string) []option.ClientOption {
	base := http.DefaultTransport
	if httpClient != nil && httpClient.Transport != nil {
		base = httpClient.Transport
	}
	keyed := &http.Client{Transport: &apiKeyTransport{key: key, base: base}}
	if httpClient != nil {
		keyed.CheckRedirect = httpClient.CheckRedirect
		keyed.Jar = httpClient.Jar
	}

	opts := []option.ClientOption{option.WithHTTPClient(keyed)}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}
