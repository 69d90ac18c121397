// Package http executes requests against a single provider host. It holds the
// immutable request descriptor, the transport, and the retry loop that turns
// raw responses into the papers error taxonomy.
package http

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Request is an immutable request descriptor. Credentials are never part of
// a Request; the transport attaches them when sending, so they cannot leak
// into cache keys.
type Request struct {
	method      string
	baseURL     string
	path        string
	query       url.Values
	header      http.Header
	body        []byte
	contentType string
}

// NewRequest builds a descriptor. Query keys with no values are dropped and
// the inputs are copied.
func NewRequest(method, baseURL, path string, query url.Values) *Request {
	q := make(url.Values, len(query))

	for k, vs := range query {
		if len(vs) == 0 {
			continue
		}

		q[k] = append([]string(nil), vs...)
	}

	return &Request{
		method:  strings.ToUpper(method),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		path:    "/" + strings.TrimPrefix(path, "/"),
		query:   q,
		header:  http.Header{},
	}
}

// Get is shorthand for NewRequest with GET.
func Get(baseURL, path string, query url.Values) *Request {
	return NewRequest(http.MethodGet, baseURL, path, query)
}

func (r *Request) clone() *Request {
	c := *r
	c.query = r.Query()
	c.header = r.header.Clone()
	c.body = r.Body()

	return &c
}

// WithHeader returns a copy of r with the header set.
func (r *Request) WithHeader(key, value string) *Request {
	c := r.clone()
	c.header.Set(key, value)

	return c
}

// WithBody returns a copy of r carrying body.
func (r *Request) WithBody(contentType string, body []byte) *Request {
	c := r.clone()
	c.body = append([]byte(nil), body...)
	c.contentType = contentType

	return c
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// BaseURL returns the provider root the request is sent to.
func (r *Request) BaseURL() string { return r.baseURL }

// Path returns the request path, always with a leading slash.
func (r *Request) Path() string { return r.path }

// ContentType returns the body content type, empty without a body.
func (r *Request) ContentType() string { return r.contentType }

// Query returns a copy of the query parameters.
func (r *Request) Query() url.Values {
	q := make(url.Values, len(r.query))
	for k, vs := range r.query {
		q[k] = append([]string(nil), vs...)
	}

	return q
}

// Header returns a copy of the request headers.
func (r *Request) Header() http.Header {
	return r.header.Clone()
}

// Body returns a copy of the body, nil without one.
func (r *Request) Body() []byte {
	if r.body == nil {
		return nil
	}

	return append([]byte(nil), r.body...)
}

// EncodedQuery returns the query string with keys in sorted order.
func (r *Request) EncodedQuery() string {
	return r.query.Encode()
}

// URL returns the full request URL. The path is percent-encoded, so ids
// containing '#', '?' or '%' stay part of their segment.
func (r *Request) URL() string {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		u = &url.URL{}
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + r.path
	u.RawPath = ""
	u.RawQuery = r.EncodedQuery()
	u.Fragment = ""

	if err != nil {
		return r.baseURL + u.EscapedPath() + querySuffix(u.RawQuery)
	}

	return u.String()
}

func querySuffix(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	return "?" + rawQuery
}

// CacheKey returns a stable hex SHA-256 fingerprint of the request's semantic
// content. partition separates entries fetched under different credentials.
func (r *Request) CacheKey(partition string) string {
	h := sha256.New()

	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}

	write("method", r.method)
	write("url", normalizeBase(r.baseURL)+strings.TrimSuffix(r.path, "/"))

	keys := make([]string, 0, len(r.query))
	for k := range r.query {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		vs := append([]string(nil), r.query[k]...)
		sort.Strings(vs)
		write("q", k)
		write(vs...)
	}

	names := make([]string, 0, len(r.header))
	for name := range r.header {
		names = append(names, http.CanonicalHeaderKey(name))
	}

	sort.Strings(names)

	for _, name := range names {
		write("h", name, strings.Join(r.header.Values(name), ","))
	}

	if r.body != nil {
		sum := sha256.Sum256(r.body)
		write("body", r.contentType, hex.EncodeToString(sum[:]))
	}

	write("partition", partition)

	return hex.EncodeToString(h.Sum(nil))
}

// normalizeBase lower-cases the scheme and host of a base URL.
func normalizeBase(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return strings.ToLower(base)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	return strings.TrimSuffix(u.String(), "/")
}

// CredentialPartition derives a cache partition from a credential without
// storing the credential itself. An empty credential maps to "anonymous".
func CredentialPartition(credential string) string {
	if credential == "" {
		return "anonymous"
	}

	sum := sha256.Sum256([]byte("papers-credential:" + credential))

	return hex.EncodeToString(sum[:8])
}
