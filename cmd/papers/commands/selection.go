package commands

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/selection"
)

// NewSelectionCommand creates the selection command group.
func NewSelectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "selection",
		Aliases: []string{"sel"},
		Short:   "Manage named paper selections",
		Long: `Keep named lists of papers. A paper is resolved through the Zotero library
(when configured) and OpenAlex, and stored with its identifiers and basic
metadata. Selections live under the data directory (data_dir, or
PAPERS_DATA_DIR).`,
	}

	cmd.AddCommand(newSelectionListCommand())
	cmd.AddCommand(newSelectionGetCommand())
	cmd.AddCommand(newSelectionCreateCommand())
	cmd.AddCommand(newSelectionDeleteCommand())
	cmd.AddCommand(newSelectionAddCommand())
	cmd.AddCommand(newSelectionRemoveCommand())

	return cmd
}

// selectionStore opens the store under the configured data directory.
func selectionStore() *selection.Store {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return selection.NewStore(filepath.Join(dir, "selections"))
	}

	return selection.NewStore(selection.DefaultDir())
}

func newSelectionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List selections",
		Long:    "List every selection with its number of papers; the active one is marked",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := selectionStore().List()
			if err != nil {
				return err
			}

			return render(map[string]interface{}{"selections": summaries}, func(table *tablewriter.Table) error {
				table.Header("#", "Name", "Papers", "Active")

				for _, s := range summaries {
					active := ""
					if s.Active {
						active = "*"
					}

					_ = table.Append(strconv.Itoa(s.Index), s.Name, strconv.Itoa(s.Entries), active)
				}

				return nil
			})
		},
	}
}

func newSelectionGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [name|index]",
		Short: "Show a selection and make it active",
		Long:  "Show the papers of a selection, by name or list index, and make it the active selection. Without an argument the active selection is shown.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}

			sel, err := selectionStore().Get(input)
			if err != nil {
				return err
			}

			return renderSelection(sel)
		},
	}
}

func newSelectionCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty selection and make it active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := selectionStore().Create(args[0])
			if err != nil {
				return err
			}

			return renderSelection(sel)
		},
	}
}

func newSelectionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name|index>",
		Aliases: []string{"rm"},
		Short:   "Delete a selection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := selectionStore().Delete(args[0])
			if err != nil {
				return err
			}

			result := map[string]string{"action": "deleted", "name": name}

			return render(result, func(table *tablewriter.Table) error {
				table.Header("Action", "Name")
				_ = table.Append(result["action"], name)

				return nil
			})
		},
	}
}

func newSelectionAddCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "add <paper>",
		Short: "Add a paper to a selection",
		Long: `Resolve a paper and add it to a selection. The paper may be a Zotero item
key, a DOI, an OpenAlex work id or a title. A paper already in the selection
is not added again.`,
		Example: `  papers selection add 10.48550/arXiv.1706.03762
  papers selection add W2741809807 --selection reading-list
  papers selection add "attention is all you need"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectionAdd(cmd.Context(), target, args[0])
		},
	}

	cmd.Flags().StringVar(&target, "selection", "", "selection name or index (default the active selection)")

	return cmd
}

func runSelectionAdd(ctx context.Context, target, paper string) error {
	store := selectionStore()

	// Fail on a missing selection before any request is made.
	name, err := store.Target(target)
	if err != nil {
		return err
	}

	oa, err := newOpenAlexClient(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = oa.Close() }()

	opts := []selection.ResolverOption{selection.WithLogger(newLogger())}

	if zoteroConfigured() {
		z, err := newZoteroClient(ctx, nil)
		if err != nil {
			return err
		}

		defer func() { _ = z.Close() }()

		opts = append(opts, selection.WithZotero(z))
	}

	entry, err := selection.NewResolver(oa, opts...).Resolve(ctx, paper)
	if err != nil {
		return err
	}

	sel, added, err := store.Add(name, entry)
	if err != nil {
		return err
	}

	action := "added"
	if !added {
		action = "already present"
	}

	result := map[string]interface{}{"action": action, "selection": sel.Name, "entry": entry}

	return render(result, func(table *tablewriter.Table) error {
		table.Header("Action", "Selection", "Title", "OpenAlex", "Zotero")
		_ = table.Append(action, sel.Name,
			truncate(entry.Title, constants.ShortDescriptionDisplayLength), entry.OpenAlexID, entry.ZoteroKey)

		return nil
	})
}

func newSelectionRemoveCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "remove <paper>",
		Short: "Remove a paper from a selection",
		Long:  "Remove the first paper matching a Zotero key, OpenAlex work id, DOI or part of the title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := selectionStore().Remove(target, args[0])
			if err != nil {
				return err
			}

			result := map[string]interface{}{"action": "removed", "entry": entry}

			return render(result, func(table *tablewriter.Table) error {
				table.Header("Action", "Title")
				_ = table.Append("removed", truncate(entry.Title, constants.ShortDescriptionDisplayLength))

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&target, "selection", "", "selection name or index (default the active selection)")

	return cmd
}

func renderSelection(sel *selection.Selection) error {
	return render(sel, func(table *tablewriter.Table) error {
		table.Header("#", "Title", "Year", "Authors", "OpenAlex", "Zotero", "DOI")

		for i, e := range sel.Entries {
			year := ""
			if e.Year != 0 {
				year = strconv.Itoa(e.Year)
			}

			_ = table.Append(strconv.Itoa(i+1),
				truncate(e.Title, constants.ShortDescriptionDisplayLength),
				year,
				truncate(strings.Join(e.Authors, ", "), constants.ShortDescriptionDisplayLength),
				e.OpenAlexID, e.ZoteroKey, e.DOI)
		}

		table.Footer("", sel.Name, "", "", "", "", strconv.Itoa(len(sel.Entries))+" papers")

		return nil
	})
}
