package selection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/selection"
)

func newStore(t *testing.T, names ...string) *selection.Store {
	t.Helper()

	store := selection.NewStore(filepath.Join(t.TempDir(), "selections"))

	for _, name := range names {
		require.NoError(t, store.Save(&selection.Selection{Name: name}))
	}

	return store
}

func TestStore_Names(t *testing.T) {
	t.Parallel()

	t.Run("missing directory has no selections", func(t *testing.T) {
		t.Parallel()

		names, err := newStore(t).Names()
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("sorted without the state file", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "zebra", "alpha", "middle")
		require.NoError(t, store.SetActive("alpha"))

		names, err := store.Names()
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "middle", "zebra"}, names)
	})
}

func TestStore_Resolve(t *testing.T) {
	t.Parallel()

	store := newStore(t, "alpha", "beta")

	tests := []struct {
		input string
		want  string
		err   error
	}{
		{input: "2", want: "beta"},
		{input: "ALPHA", want: "alpha"},
		{input: "0", err: constants.ErrSelectionNotFound},
		{input: "3", err: constants.ErrSelectionNotFound},
		{input: "gamma", err: constants.ErrSelectionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := store.Resolve(tt.input)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateName(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"my-selection", "gpu_papers_2024", "A1"} {
		require.NoError(t, selection.ValidateName(name), name)
	}

	for _, name := range []string{"", "has.dot", "has space", "../up"} {
		require.ErrorIs(t, selection.ValidateName(name), constants.ErrInvalidSelection, name)
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestStore_Lifecycle(t *testing.T) {
	t.Parallel()

	t.Run("create writes the file and activates", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "a")
		require.NoError(t, store.SetActive("a"))

		_, err := store.Create("b")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(store.Dir(), "b.json"))
		assert.Equal(t, "b", store.Active())

		_, err = store.Load("a")
		require.NoError(t, err)
	})

	t.Run("create rejects duplicates and bad names", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "dup")

		_, err := store.Create("DUP")
		require.ErrorIs(t, err, constants.ErrSelectionExists)

		_, err = store.Create("bad.name")
		require.ErrorIs(t, err, constants.ErrInvalidSelection)
	})

	t.Run("get by index activates", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "alpha", "beta")

		sel, err := store.Get("2")
		require.NoError(t, err)
		assert.Equal(t, "beta", sel.Name)
		assert.Equal(t, "beta", store.Active())

		sel, err = store.Get("")
		require.NoError(t, err)
		assert.Equal(t, "beta", sel.Name)
	})

	t.Run("get without an active selection", func(t *testing.T) {
		t.Parallel()

		_, err := newStore(t, "alpha").Get("")
		require.ErrorIs(t, err, constants.ErrNoActiveSelection)
	})

	t.Run("delete clears the active state only for the active selection", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "keep", "drop", "gone")
		require.NoError(t, store.SetActive("keep"))

		name, err := store.Delete("drop")
		require.NoError(t, err)
		assert.Equal(t, "drop", name)
		assert.Equal(t, "keep", store.Active())

		_, err = store.Delete("keep")
		require.NoError(t, err)
		assert.Empty(t, store.Active())
		assert.NoFileExists(t, filepath.Join(store.Dir(), "keep.json"))

		_, err = store.Delete("missing")
		require.ErrorIs(t, err, constants.ErrSelectionNotFound)
	})

	t.Run("list counts entries and marks the active selection", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "zero")
		require.NoError(t, store.Save(&selection.Selection{Name: "two", Entries: []selection.Entry{
			{OpenAlexID: "W1"}, {OpenAlexID: "W2"},
		}}))
		require.NoError(t, store.SetActive("two"))

		summaries, err := store.List()
		require.NoError(t, err)
		assert.Equal(t, []selection.Summary{
			{Index: 1, Name: "two", Entries: 2, Active: true},
			{Index: 2, Name: "zero", Entries: 0},
		}, summaries)
	})

	t.Run("unreadable state means no active selection", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, "a")
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "state.json"), []byte("{"), 0o600))

		assert.Empty(t, store.Active())
	})
}

func TestStore_AddRemove(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	_, err := store.Create("t")
	require.NoError(t, err)

	entry := selection.Entry{
		ZoteroKey:  "LF4MJWZK",
		OpenAlexID: "W2741809807",
		DOI:        "10.48550/arxiv.1706.03762",
		Title:      "Attention Is All You Need",
		Authors:    []string{"Vaswani", "Shazeer"},
		Year:       2017,
		ISSN:       []string{"0028-0836"},
		ISBN:       []string{"978-3-16-148410-0"},
	}

	_, added, err := store.Add("", entry)
	require.NoError(t, err)
	assert.True(t, added)

	_, added, err = store.Add("t", selection.Entry{DOI: "https://doi.org/10.48550/ARXIV.1706.03762"})
	require.NoError(t, err)
	assert.False(t, added)

	_, added, err = store.Add("t", selection.Entry{OpenAlexID: "W2741809807"})
	require.NoError(t, err)
	assert.False(t, added)

	sel, err := store.Load("t")
	require.NoError(t, err)
	require.Len(t, sel.Entries, 1)
	assert.Equal(t, entry, sel.Entries[0])

	_, err = store.Remove("", "transformers")
	require.ErrorIs(t, err, constants.ErrEntryNotFound)

	removed, err := store.Remove("t", "attention is ALL")
	require.NoError(t, err)
	assert.Equal(t, "W2741809807", removed.OpenAlexID)

	sel, err = store.Load("t")
	require.NoError(t, err)
	assert.Empty(t, sel.Entries)
}
