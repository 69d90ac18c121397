package http

import (
	"net/http"
	"net/url"
)

// Authenticator attaches credentials to an outgoing request.
type Authenticator interface {
	Authenticate(req *http.Request)

	// Partition identifies the credential for cache partitioning.
	Partition() string
}

// QueryCredentials adds fixed query parameters, e.g. OpenAlex's api_key and mailto.
type QueryCredentials struct {
	Params url.Values

	// PartitionParam names the parameter whose value partitions the cache.
	PartitionParam string
}

// Authenticate implements Authenticator.
func (q QueryCredentials) Authenticate(req *http.Request) {
	if len(q.Params) == 0 {
		return
	}

	values := req.URL.Query()

	for k, vs := range q.Params {
		for _, v := range vs {
			if v != "" {
				values.Set(k, v)
			}
		}
	}

	req.URL.RawQuery = values.Encode()
}

// Partition implements Authenticator.
func (q QueryCredentials) Partition() string {
	return CredentialPartition(q.Params.Get(q.PartitionParam))
}

// HeaderCredentials sets fixed headers, e.g. Zotero-API-Key.
type HeaderCredentials struct {
	Headers map[string]string

	// PartitionHeader names the header whose value partitions the cache.
	PartitionHeader string
}

// Authenticate implements Authenticator.
func (h HeaderCredentials) Authenticate(req *http.Request) {
	for k, v := range h.Headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
}

// Partition implements Authenticator.
func (h HeaderCredentials) Partition() string {
	return CredentialPartition(h.Headers[h.PartitionHeader])
}

// secretParams are masked when URLs are logged.
var secretParams = []string{"api_key", "key"}
