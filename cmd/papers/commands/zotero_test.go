package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
	"github.com/papers-cli/papers/pkg/papersclient"
)

func TestNewZoteroCommand(t *testing.T) {
	t.Parallel()

	cmd := NewZoteroCommand()
	assert.Equal(t, "zotero", cmd.Use)
	assert.Equal(t, []string{"z"}, cmd.Aliases)

	for _, name := range []string{"items", "collections", "tags", "searches", "groups", "key"} {
		assert.NotNil(t, findSubcommand(cmd, name), "subcommand %s should exist", name)
	}

	items := findSubcommand(cmd, "items")
	require.NotNil(t, items)
	assert.NotNil(t, findSubcommand(items, "get"))
	assert.NotNil(t, findSubcommand(items, "children"))

	for _, flagName := range []string{"search", "everything", "item-type", "tag", "sort", "direction", "limit", "start", "all", "max", "top", "trash"} {
		assert.NotNil(t, items.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	collections := findSubcommand(cmd, "collections")
	require.NotNil(t, collections)
	assert.NotNil(t, findSubcommand(collections, "items"))
	assert.NotNil(t, findSubcommand(collections, "subcollections"))
}

func TestZoteroListOptions_Params(t *testing.T) {
	t.Parallel()

	opts := &zoteroListOptions{
		search:    "attention",
		itemTypes: "journalArticle, -attachment",
		tags:      []string{"ml", "nlp"},
		direction: "DESC",
		limit:     20,
		start:     40,
	}

	params := opts.params()
	assert.Equal(t, []string{"journalArticle", "-attachment"}, params.ItemTypes)
	assert.Equal(t, []string{"ml", "nlp"}, params.Tags)
	assert.Equal(t, "desc", params.Direction)
	assert.Equal(t, 40, params.Start)
	require.NoError(t, params.Validate())
}

func TestCreatorNames(t *testing.T) {
	t.Parallel()

	last := "Vaswani"
	org := "OpenAI"

	assert.Equal(t, "Vaswani; OpenAI", creatorNames([]papers.ZoteroCreator{
		{CreatorType: "author", LastName: &last},
		{CreatorType: "author", Name: &org},
		{CreatorType: "editor"},
	}))
}

//nolint:paralleltest // Uses global viper state
func TestWithZotero_RequiresLibrary(t *testing.T) {
	useTestConfig(t, map[string]interface{}{KeyNoCache: true})

	err := withZotero(context.Background(), func(papersclient.Zotero) error {
		t.Fatal("client must not be built without a library")

		return nil
	})
	require.ErrorIs(t, err, constants.ErrNoZoteroLibrary)
}

//nolint:paralleltest // Uses global viper state
func TestZoteroKeyCommand_RequiresKey(t *testing.T) {
	useTestConfig(t, map[string]interface{}{KeyNoCache: true, KeyZoteroUserID: "12345"})

	cmd := newZoteroKeyCommand()
	cmd.SetContext(context.Background())

	require.ErrorIs(t, cmd.RunE(cmd, nil), constants.ErrNoZoteroKey)
}

//nolint:paralleltest // Uses global viper state
func TestZoteroItemsCommand_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42/items/top", r.URL.Path)
		assert.Equal(t, "zkey", r.Header.Get("Zotero-API-Key"))

		w.Header().Set("Total-Results", "1")
		_, _ = w.Write([]byte(`[{"key":"ITEM0001","version":3,"data":{"key":"ITEM0001","version":3,"itemType":"book","title":"Deep Learning"}}]`))
	}))
	defer server.Close()

	out := useTestConfig(t, map[string]interface{}{
		KeyZoteroURL:    server.URL,
		KeyZoteroUserID: "42",
		KeyZoteroKey:    "zkey",
		KeyNoCache:      true,
		KeyOutput:       "json",
	})

	cmd := newZoteroItemsCommand()
	cmd.SetContext(context.Background())
	require.NoError(t, cmd.Flags().Set("top", "true"))
	require.NoError(t, cmd.RunE(cmd, nil))

	var page papers.PagedResult[papers.ZoteroItem]
	require.NoError(t, json.Unmarshal(out.Bytes(), &page))
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Data.Title)
	assert.Equal(t, "Deep Learning", *page.Items[0].Data.Title)
}
