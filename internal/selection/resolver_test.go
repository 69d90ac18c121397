package selection_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/openalex"
	"github.com/papers-cli/papers/internal/selection"
	"github.com/papers-cli/papers/internal/zotero"
	"github.com/papers-cli/papers/pkg/papers"
)

const attentionWork = `{
	"id": "https://openalex.org/W2741809807",
	"doi": "https://doi.org/10.1234/test",
	"display_name": "Attention Is All You Need",
	"publication_year": 2017,
	"authorships": [{"author": {"id": "A1", "display_name": "Ashish Vaswani"}}],
	"primary_location": {"source": {"id": "S1", "display_name": "Nature", "issn": ["0028-0836"]}}
}`

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

type recordingLogger struct {
	warnings atomic.Int32
}

func (l *recordingLogger) Debug(string, map[string]interface{}) {}
func (l *recordingLogger) Info(string, map[string]interface{})  {}
func (l *recordingLogger) Warn(string, map[string]interface{})  { l.warnings.Add(1) }
func (l *recordingLogger) Error(string, map[string]interface{}) {}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("openalex id outside zotero", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works/W2741809807", r.URL.Path)

			_, _ = w.Write([]byte(attentionWork))
		})

		entry, err := selection.NewResolver(oa).Resolve(context.Background(), "https://openalex.org/W2741809807")
		require.NoError(t, err)
		assert.Equal(t, selection.Entry{
			OpenAlexID: "W2741809807",
			DOI:        "10.1234/test",
			Title:      "Attention Is All You Need",
			Authors:    []string{"Ashish Vaswani"},
			Year:       2017,
			ISSN:       []string{"0028-0836"},
		}, entry)
	})

	t.Run("doi prefixes are stripped", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"10.1234/test", "https://doi.org/10.1234/test", "doi:10.1234/test"} {
			oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/works/doi:10.1234/test", r.URL.Path)

				_, _ = w.Write([]byte(attentionWork))
			})

			entry, err := selection.NewResolver(oa).Resolve(context.Background(), input)
			require.NoError(t, err, input)
			assert.Equal(t, "W2741809807", entry.OpenAlexID, input)
			assert.Equal(t, "10.1234/test", entry.DOI, input)
		}
	})

	t.Run("title found in openalex then matched in zotero by doi", func(t *testing.T) {
		t.Parallel()

		var zoteroCalls atomic.Int32

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/works", r.URL.Path)
			assert.Equal(t, "attention is all you need", r.URL.Query().Get("search"))
			assert.Equal(t, "1", r.URL.Query().Get("per-page"))

			_, _ = w.Write([]byte(`{"meta":{"count":1},"results":[` + attentionWork + `]}`))
		})

		z := newZotero(t, func(w http.ResponseWriter, r *http.Request) {
			zoteroCalls.Add(1)
			assert.Equal(t, "/users/42/items/top", r.URL.Path)

			if r.URL.Query().Get("qmode") == "everything" {
				assert.Equal(t, "10.1234/test", r.URL.Query().Get("q"))

				w.Header().Set("Total-Results", "1")
				_, _ = w.Write([]byte(`[{"key":"LF4MJWZK","version":1,"data":{"key":"LF4MJWZK","itemType":"book","ISBN":"978-3-16-148410-0"}}]`))

				return
			}

			w.Header().Set("Total-Results", "0")
			_, _ = w.Write([]byte(`[]`))
		})

		entry, err := selection.NewResolver(oa, selection.WithZotero(z)).Resolve(context.Background(), "attention is all you need")
		require.NoError(t, err)
		assert.Equal(t, "LF4MJWZK", entry.ZoteroKey)
		assert.Equal(t, "W2741809807", entry.OpenAlexID)
		assert.Equal(t, []string{"978-3-16-148410-0"}, entry.ISBN)
		assert.Equal(t, int32(2), zoteroCalls.Load())
	})

	t.Run("zotero metadata wins over openalex", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(attentionWork))
		})

		z := newZotero(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/42/items/LF4MJWZK", r.URL.Path)

			_, _ = w.Write([]byte(`{"key":"LF4MJWZK","version":3,"data":{
				"key":"LF4MJWZK","itemType":"journalArticle","title":"Attention (local copy)",
				"creators":[{"creatorType":"author","firstName":"Ashish","lastName":"Vaswani"},{"creatorType":"author","name":"Google Brain"}],
				"date":"June 2017","DOI":"https://doi.org/10.1234/test","ISSN":"1234-5678"},
				"meta":{"parsedDate":"2017-06-12"}}`))
		})

		entry, err := selection.NewResolver(oa, selection.WithZotero(z)).Resolve(context.Background(), "LF4MJWZK")
		require.NoError(t, err)
		assert.Equal(t, "LF4MJWZK", entry.ZoteroKey)
		assert.Equal(t, "Attention (local copy)", entry.Title)
		assert.Equal(t, []string{"Ashish Vaswani", "Google Brain"}, entry.Authors)
		assert.Equal(t, 2017, entry.Year)
		assert.Equal(t, "10.1234/test", entry.DOI)
		assert.Equal(t, []string{"1234-5678"}, entry.ISSN)
	})

	t.Run("ambiguous zotero title search is a miss", func(t *testing.T) {
		t.Parallel()

		oa := newOpenAlex(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"meta":{"count":0},"results":[]}`))
		})

		z := newZotero(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Total-Results", "2")
			_, _ = w.Write([]byte(`[{"key":"AAAAAAAA","data":{"key":"AAAAAAAA","itemType":"book","title":"Deep A"}},
				{"key":"BBBBBBBB","data":{"key":"BBBBBBBB","itemType":"book","title":"Deep B"}}]`))
		})

		_, err := selection.NewResolver(oa, selection.WithZotero(z)).Resolve(context.Background(), "deep")
		require.ErrorIs(t, err, constants.ErrCannotResolvePaper)
	})

	t.Run("nothing found", func(t *testing.T) {
		t.Parallel()

		logger := &recordingLogger{}

		oa := newOpenAlex(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/works/W404" {
				w.WriteHeader(http.StatusNotFound)

				return
			}

			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid query"}`))
		})

		resolver := selection.NewResolver(oa, selection.WithLogger(logger))

		_, err := resolver.Resolve(context.Background(), "W404")
		require.ErrorIs(t, err, constants.ErrCannotResolvePaper)
		assert.Zero(t, logger.warnings.Load())

		_, err = resolver.Resolve(context.Background(), "no such paper")
		require.ErrorIs(t, err, constants.ErrCannotResolvePaper)
		assert.Equal(t, int32(1), logger.warnings.Load())
	})
}
