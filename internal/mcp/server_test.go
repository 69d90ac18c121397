package mcp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	papersmcp "github.com/papers-cli/papers/internal/mcp"
	"github.com/papers-cli/papers/internal/openalex"
	"github.com/papers-cli/papers/internal/zotero"
	"github.com/papers-cli/papers/pkg/papers"
)

func newOpenAlex(t *testing.T, handler http.HandlerFunc) *openalex.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := openalex.New(context.Background(), &papers.Config{BaseURL: server.URL, RateLimit: -1, MaxAttempts: 1})
	require.NoError(t, err)

	return c
}

func newZotero(t *testing.T, handler http.HandlerFunc) *zotero.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := zotero.New(context.Background(), &papers.Config{
		BaseURL: server.URL, UserID: "42", APIKey: "zkey", RateLimit: -1, MaxAttempts: 1,
	})
	require.NoError(t, err)

	return c
}

func callTool(t *testing.T, s *papersmcp.Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	for _, tool := range s.Tools() {
		if tool.Tool.Name != name {
			continue
		}

		result, err := tool.Handler(context.Background(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		require.NoError(t, err)
		require.NotNil(t, result)

		return result
	}

	t.Fatalf("tool %s not registered", name)

	return nil
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestServer_Tools(t *testing.T) {
	t.Parallel()

	s := papersmcp.NewServer(newOpenAlex(t, func(http.ResponseWriter, *http.Request) {}))

	names := map[string]bool{}
	for _, tool := range s.Tools() {
		names[tool.Tool.Name] = true
		assert.NotNil(t, tool.Tool.Annotations.ReadOnlyHint, tool.Tool.Name)
	}

	assert.True(t, names["work_list"])
	assert.True(t, names["work_get"])
	assert.True(t, names["work_autocomplete"])
	assert.True(t, names["work_find"])
	assert.True(t, names["topic_list"])
	assert.False(t, names["topic_autocomplete"])
	assert.True(t, names["concept_autocomplete"])
	assert.False(t, names["concept_list"])
	assert.False(t, names["concept_get"])
	assert.False(t, names["zotero_item_list"])

	withZotero := papersmcp.NewServer(newOpenAlex(t, func(http.ResponseWriter, *http.Request) {}),
		papersmcp.WithZotero(newZotero(t, func(http.ResponseWriter, *http.Request) {})))

	names = map[string]bool{}
	for _, tool := range withZotero.Tools() {
		names[tool.Tool.Name] = true
	}

	for _, name := range []string{
		"zotero_item_list", "zotero_item_get", "zotero_item_children",
		"zotero_collection_list", "zotero_collection_items", "zotero_tag_list",
	} {
		assert.True(t, names[name], name)
	}

	assert.NotNil(t, withZotero.MCPServer())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestServer_OpenAlexTools(t *testing.T) {
	t.Parallel()

	t.Run("list uses the default page size", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/authors", r.URL.Path)
			assert.Equal(t, "10", r.URL.Query().Get("per-page"))
			assert.Equal(t, "einstein", r.URL.Query().Get("search"))

			_, _ = w.Write([]byte(`{"meta":{"count":42,"page":1,"per_page":10},"results":[{"id":"A1"},{"id":"A2"}]}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "author_list", map[string]any{"search": "einstein"})
		assert.False(t, result.IsError)
		assert.Equal(t, "Returned 2 of 42 authors", toolText(t, result))
		assert.NotNil(t, result.StructuredContent)
	})

	t.Run("get requires id", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		oa := newOpenAlex(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

		result := callTool(t, papersmcp.NewServer(oa), "work_get", map[string]any{})
		assert.True(t, result.IsError)
		assert.Zero(t, calls.Load())
	})

	t.Run("get returns the entity", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works/W2741809807", r.URL.Path)

			_, _ = w.Write([]byte(`{"id":"https://openalex.org/W2741809807","title":"The state of OA"}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "work_get", map[string]any{"id": "https://openalex.org/W2741809807"})
		assert.False(t, result.IsError)
		assert.Contains(t, toolText(t, result), "The state of OA")
	})

	t.Run("provider errors become tool errors", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Not Found"}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "source_get", map[string]any{"id": "S0"})
		assert.True(t, result.IsError)
	})

	t.Run("autocomplete", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/autocomplete/institutions", r.URL.Path)
			assert.Equal(t, "harv", r.URL.Query().Get("q"))

			_, _ = w.Write([]byte(`{"meta":{"count":1},"results":[{"id":"I1","display_name":"Harvard University"}]}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "institution_autocomplete", map[string]any{"q": "harv"})
		assert.False(t, result.IsError)
		assert.Equal(t, "Found 1 institution suggestions", toolText(t, result))
	})

	t.Run("find without api key", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		oa := newOpenAlex(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

		result := callTool(t, papersmcp.NewServer(oa), "work_find", map[string]any{"query": "protein folding"})
		assert.True(t, result.IsError)
		assert.Zero(t, calls.Load())
	})

	t.Run("invalid params become tool errors", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(http.ResponseWriter, *http.Request) {})

		result := callTool(t, papersmcp.NewServer(oa), "work_list", map[string]any{"cursor": "*", "page": 2})
		assert.True(t, result.IsError)
	})

	t.Run("list expands shorthand filters", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "authorships.author.id:A5023888391,is_oa:true,publication_year:2024,cited_by_count:>10",
				r.URL.Query().Get("filter"))

			_, _ = w.Write([]byte(`{"meta":{"count":1},"results":[{"id":"W1"}]}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "work_list", map[string]any{
			"author": "A5023888391",
			"year":   2024,
			"open":   true,
			"filter": "cited_by_count:>10",
		})
		assert.False(t, result.IsError, toolText(t, result))
	})

	t.Run("unresolvable shorthand filters become tool errors", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/autocomplete/institutions", r.URL.Path)

			_, _ = w.Write([]byte(`{"results":[]}`))
		})

		result := callTool(t, papersmcp.NewServer(oa), "author_list", map[string]any{"institution": "nowhere"})
		assert.True(t, result.IsError)
	})
}

func TestServer_ListToolAliasArguments(t *testing.T) {
	t.Parallel()

	s := papersmcp.NewServer(newOpenAlex(t, func(http.ResponseWriter, *http.Request) {}))

	properties := map[string]map[string]any{}
	for _, tool := range s.Tools() {
		properties[tool.Tool.Name] = tool.Tool.InputSchema.Properties
	}

	for _, name := range []string{"author", "topic", "year", "citations", "open", "institution"} {
		assert.Contains(t, properties["work_list"], name)
	}

	assert.Contains(t, properties["author_list"], "h_index")
	assert.Contains(t, properties["funder_list"], "country")
	assert.NotContains(t, properties["funder_list"], "author")
	assert.NotContains(t, properties["work_get"], "year")
}

func TestServer_ZoteroTools(t *testing.T) {
	t.Parallel()

	zc := newZotero(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/42/collections/ABCD2345/items":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			w.Header().Set("Total-Results", "7")
			w.Header().Set("Last-Modified-Version", "99")
			_, _ = w.Write([]byte(`[{"key":"ITEM0001","version":1,"data":{"key":"ITEM0001","version":1,"itemType":"book"}}]`))
		case "/users/42/items/ITEM0001":
			_, _ = w.Write([]byte(`{"key":"ITEM0001","version":1,"data":{"key":"ITEM0001","version":1,"itemType":"book","title":"Deep Learning"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s := papersmcp.NewServer(newOpenAlex(t, func(http.ResponseWriter, *http.Request) {}), papersmcp.WithZotero(zc))

	result := callTool(t, s, "zotero_collection_items", map[string]any{"key": "ABCD2345", "limit": 5})
	assert.False(t, result.IsError)
	assert.Equal(t, "Returned 1 of 7 items", toolText(t, result))

	result = callTool(t, s, "zotero_item_get", map[string]any{"key": "ITEM0001"})
	assert.False(t, result.IsError)
	assert.Equal(t, "Deep Learning", toolText(t, result))

	result = callTool(t, s, "zotero_item_get", map[string]any{"key": "MISSING1"})
	assert.True(t, result.IsError)
}
