package http_test

import (
	"net/url"
	"testing"

	papershttp "github.com/papers-cli/papers/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	query := url.Values{"search": {"graphene"}, "empty": {}}
	req := papershttp.NewRequest("get", "https://api.openalex.org/", "works", query)

	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "https://api.openalex.org", req.BaseURL())
	assert.Equal(t, "/works", req.Path())
	assert.Equal(t, "https://api.openalex.org/works?search=graphene", req.URL())

	// the descriptor does not share state with its inputs or its callers.
	query.Set("search", "changed")
	req.Query().Set("search", "changed")
	assert.Equal(t, "graphene", req.Query().Get("search"))

	withHeader := req.WithHeader("Zotero-API-Version", "3")
	assert.Empty(t, req.Header().Get("Zotero-API-Version"))
	assert.Equal(t, "3", withHeader.Header().Get("Zotero-API-Version"))
}

func TestRequest_URLEscapesPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "plain doi", path: "/works/doi:10.7717/peerj.4375", want: "https://api.openalex.org/works/doi:10.7717/peerj.4375?select=id"},
		{name: "fragment", path: "/works/doi:10.1000/abc#frag", want: "https://api.openalex.org/works/doi:10.1000/abc%23frag?select=id"},
		{name: "question mark", path: "/works/doi:10.1000/abc?x=1", want: "https://api.openalex.org/works/doi:10.1000/abc%3Fx=1?select=id"},
		{name: "percent", path: "/works/doi:10.1000/100%sure", want: "https://api.openalex.org/works/doi:10.1000/100%25sure?select=id"},
		{name: "sici", path: "/works/doi:10.1002/(SICI)1097-4636(199706)35:4<552::AID-JBM17>3.0.CO;2-J",
			want: "https://api.openalex.org/works/doi:10.1002/%28SICI%291097-4636%28199706%2935:4%3C552::AID-JBM17%3E3.0.CO;2-J?select=id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := papershttp.Get("https://api.openalex.org", tt.path, url.Values{"select": {"id"}})
			assert.Equal(t, tt.want, req.URL())

			parsed, err := url.Parse(req.URL())
			require.NoError(t, err)
			assert.Equal(t, tt.path, parsed.Path)
			assert.Equal(t, "id", parsed.Query().Get("select"))
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestRequest_CacheKey(t *testing.T) {
	t.Parallel()

	t.Run("insertion order does not matter", func(t *testing.T) {
		t.Parallel()

		first := url.Values{}
		first.Add("search", "graphene")
		first.Add("filter", "publication_year:2020")
		first.Add("per-page", "10")

		second := url.Values{}
		second.Add("per-page", "10")
		second.Add("filter", "publication_year:2020")
		second.Add("search", "graphene")

		a := papershttp.Get("https://api.openalex.org", "/works", first)
		b := papershttp.Get("https://api.openalex.org", "/works", second)

		assert.Equal(t, a.CacheKey("anonymous"), b.CacheKey("anonymous"))
		assert.Equal(t, a.EncodedQuery(), b.EncodedQuery())
	})

	t.Run("stable across runs", func(t *testing.T) {
		t.Parallel()

		req := papershttp.Get("https://api.openalex.org", "/works/W2741809807", nil)
		key := req.CacheKey("anonymous")

		require.Len(t, key, 64)
		assert.Equal(t, key, papershttp.Get("HTTPS://API.OpenAlex.org/", "works/W2741809807/", nil).CacheKey("anonymous"))
	})

	t.Run("semantic differences change the key", func(t *testing.T) {
		t.Parallel()

		base := papershttp.Get("https://api.openalex.org", "/works", url.Values{"page": {"1"}})
		key := base.CacheKey("anonymous")

		variants := map[string]*papershttp.Request{
			"query value": papershttp.Get("https://api.openalex.org", "/works", url.Values{"page": {"2"}}),
			"path":        papershttp.Get("https://api.openalex.org", "/authors", url.Values{"page": {"1"}}),
			"host":        papershttp.Get("https://api.zotero.org", "/works", url.Values{"page": {"1"}}),
			"method":      papershttp.NewRequest("POST", "https://api.openalex.org", "/works", url.Values{"page": {"1"}}),
			"header":      base.WithHeader("Zotero-API-Version", "3"),
			"body":        base.WithBody("application/json", []byte(`{}`)),
		}

		for name, variant := range variants {
			assert.NotEqual(t, key, variant.CacheKey("anonymous"), name)
		}

		assert.NotEqual(t, key, base.CacheKey(papershttp.CredentialPartition("secret")))
	})

	t.Run("multi-valued parameters are order independent", func(t *testing.T) {
		t.Parallel()

		a := papershttp.Get("https://api.zotero.org", "/users/1/items", url.Values{"tag": {"a", "b"}})
		b := papershttp.Get("https://api.zotero.org", "/users/1/items", url.Values{"tag": {"b", "a"}})

		assert.Equal(t, a.CacheKey("p"), b.CacheKey("p"))
	})
}

func TestCredentialPartition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anonymous", papershttp.CredentialPartition(""))
	assert.Equal(t, papershttp.CredentialPartition("k"), papershttp.CredentialPartition("k"))
	assert.NotEqual(t, papershttp.CredentialPartition("k"), papershttp.CredentialPartition("j"))
	assert.NotContains(t, papershttp.CredentialPartition("my-secret-key"), "my-secret-key")
}
