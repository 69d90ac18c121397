package commands

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/pager"
	"github.com/papers-cli/papers/pkg/papers"
	"github.com/papers-cli/papers/pkg/papersclient"
)

// NewZoteroCommand creates the zotero command group.
func NewZoteroCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "zotero",
		Aliases: []string{"z"},
		Short:   "Read a Zotero library",
		Long:    "Browse the items, collections, tags and saved searches of a Zotero user or group library",
	}

	cmd.AddCommand(newZoteroItemsCommand())
	cmd.AddCommand(newZoteroCollectionsCommand())
	cmd.AddCommand(newZoteroTagsCommand())
	cmd.AddCommand(newZoteroSearchesCommand())
	cmd.AddCommand(newZoteroGroupsCommand())
	cmd.AddCommand(newZoteroKeyCommand())

	return cmd
}

// zoteroListOptions holds the flags of a Zotero list command.
type zoteroListOptions struct {
	search     string
	everything bool
	itemTypes  string
	tags       []string
	sort       string
	direction  string
	limit      int
	start      int
	all        bool
	maxItems   int
}

func (o *zoteroListOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.search, "search", "s", "", "quick search over titles, creators and years")
	cmd.Flags().BoolVar(&o.everything, "everything", false, "search all fields including full text")
	cmd.Flags().StringVar(&o.itemTypes, "item-type", "", "comma-separated item types, prefix with - to exclude")
	cmd.Flags().StringArrayVar(&o.tags, "tag", nil, "tag to match (repeatable, OR-ed)")
	cmd.Flags().StringVar(&o.sort, "sort", "", "sort field, e.g. dateModified or title")
	cmd.Flags().StringVar(&o.direction, "direction", "", "sort direction (asc, desc)")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", constants.DefaultPageSize, fmt.Sprintf("results per page (max %d)", papers.ZoteroMaxLimit))
	cmd.Flags().IntVar(&o.start, "start", 0, "0-based offset of the first result")
	cmd.Flags().BoolVar(&o.all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&o.maxItems, "max", 0, "stop after this many results with --all (0 for no limit)")
}

func (o *zoteroListOptions) params() *papers.ZoteroListParams {
	return &papers.ZoteroListParams{
		Search:     o.search,
		Everything: o.everything,
		ItemTypes:  splitCSV(o.itemTypes),
		Tags:       o.tags,
		Sort:       o.sort,
		Direction:  strings.ToLower(o.direction),
		Limit:      o.limit,
		Start:      o.start,
	}
}

// withZotero builds a Zotero client for the duration of fn.
func withZotero(ctx context.Context, fn func(papersclient.Zotero) error) error {
	client, err := newZoteroClient(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = client.Close() }()

	return fn(client)
}

func newZoteroItemsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	var top, trash bool

	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "List library items",
		Long:    "List the items of the library, its top-level items or its trash",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				params := opts.params()
				items := z.Items()

				switch {
				case opts.all && !top && !trash:
					return renderCollected(items.All(ctx, params), opts.maxItems, renderZoteroItems)
				case top:
					return renderZoteroItemPage(items.Top(ctx, params))
				case trash:
					return renderZoteroItemPage(items.Trash(ctx, params))
				default:
					return renderZoteroItemPage(items.List(ctx, params))
				}
			})
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&top, "top", false, "only top-level items")
	cmd.Flags().BoolVar(&trash, "trash", false, "only items in the trash")

	cmd.AddCommand(newZoteroItemGetCommand())
	cmd.AddCommand(newZoteroItemChildrenCommand())

	return cmd
}

func newZoteroItemGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get an item",
		Long:  "Display one library item by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				item, err := z.Items().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("getting item %s: %w", args[0], err)
				}

				return render(item, func(table *tablewriter.Table) error {
					table.Header("Property", "Value")
					_ = table.Append("Key", item.Key)
					_ = table.Append("Type", item.Data.ItemType)
					_ = table.Append("Title", deref(item.Data.Title))
					_ = table.Append("Creators", creatorNames(item.Data.Creators))
					_ = table.Append("Date", deref(item.Data.Date))
					_ = table.Append("DOI", deref(item.Data.DOI))
					_ = table.Append("URL", deref(item.Data.URL))
					_ = table.Append("Collections", strings.Join(item.Data.Collections, ", "))
					_ = table.Append("Version", strconv.FormatInt(item.Version, 10))

					return nil
				})
			})
		},
	}
}

func newZoteroItemChildrenCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	cmd := &cobra.Command{
		Use:   "children KEY",
		Short: "List child items",
		Long:  "List the attachments and notes of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				return renderZoteroItemPage(z.Items().Children(ctx, args[0], opts.params()))
			})
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func newZoteroCollectionsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	var top bool

	cmd := &cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "List collections",
		Long:    "List the collections of the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				collections := z.Collections()
				params := opts.params()

				switch {
				case opts.all && !top:
					return renderCollected(collections.All(ctx, params), opts.maxItems, renderZoteroCollections)
				case top:
					return renderZoteroCollectionPage(collections.Top(ctx, params))
				default:
					return renderZoteroCollectionPage(collections.List(ctx, params))
				}
			})
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&top, "top", false, "only top-level collections")

	cmd.AddCommand(newZoteroCollectionItemsCommand())
	cmd.AddCommand(newZoteroSubcollectionsCommand())

	return cmd
}

func newZoteroCollectionItemsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	var top bool

	cmd := &cobra.Command{
		Use:   "items KEY",
		Short: "List items in a collection",
		Long:  "List the items of one collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				if top {
					return renderZoteroItemPage(z.Collections().TopItems(ctx, args[0], opts.params()))
				}

				return renderZoteroItemPage(z.Collections().Items(ctx, args[0], opts.params()))
			})
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().BoolVar(&top, "top", false, "only top-level items")

	return cmd
}

func newZoteroSubcollectionsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	cmd := &cobra.Command{
		Use:   "subcollections KEY",
		Short: "List subcollections",
		Long:  "List the direct subcollections of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				return renderZoteroCollectionPage(z.Collections().Subcollections(ctx, args[0], opts.params()))
			})
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func newZoteroTagsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	var item string

	cmd := &cobra.Command{
		Use:     "tags",
		Aliases: []string{"tag"},
		Short:   "List tags",
		Long:    "List the tags of the library, or of one item with --item",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				var (
					page *papers.PagedResult[papers.ZoteroTag]
					err  error
				)

				if item != "" {
					page, err = z.Items().ItemTags(ctx, item, opts.params())
				} else {
					page, err = z.Tags(ctx, opts.params())
				}

				if err != nil {
					return fmt.Errorf("listing tags: %w", err)
				}

				return render(page, func(table *tablewriter.Table) error {
					table.Header("Tag", "Items")

					for _, tag := range page.Items {
						_ = table.Append(tag.Tag, derefInt(tag.Meta.NumItems))
					}

					return nil
				})
			})
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&item, "item", "", "list the tags of this item key")

	return cmd
}

func newZoteroSearchesCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	cmd := &cobra.Command{
		Use:     "searches",
		Aliases: []string{"search"},
		Short:   "List saved searches",
		Long:    "List the saved searches of the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				page, err := z.Searches(ctx, opts.params())
				if err != nil {
					return fmt.Errorf("listing searches: %w", err)
				}

				return render(page, func(table *tablewriter.Table) error {
					table.Header("Key", "Name", "Conditions")

					for _, s := range page.Items {
						_ = table.Append(s.Key, s.Data.Name, strconv.Itoa(len(s.Data.Conditions)))
					}

					return nil
				})
			})
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func newZoteroGroupsCommand() *cobra.Command {
	opts := &zoteroListOptions{}

	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group"},
		Short:   "List groups",
		Long:    "List the groups the configured user belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withZotero(ctx, func(z papersclient.Zotero) error {
				page, err := z.Groups(ctx, opts.params())
				if err != nil {
					return fmt.Errorf("listing groups: %w", err)
				}

				return render(page, func(table *tablewriter.Table) error {
					table.Header("ID", "Name", "Type")

					for _, g := range page.Items {
						_ = table.Append(strconv.FormatInt(g.ID, 10), g.Data.Name, g.Data.Type)
					}

					return nil
				})
			})
		},
	}

	opts.addFlags(cmd)

	return cmd
}

func newZoteroKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "key",
		Short: "Show API key details",
		Long:  "Display the user and permissions of the configured API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if viper.GetString(KeyZoteroKey) == "" {
				return constants.ErrNoZoteroKey
			}

			return withZotero(ctx, func(z papersclient.Zotero) error {
				info, err := z.KeyInfo(ctx)
				if err != nil {
					return fmt.Errorf("getting key info: %w", err)
				}

				info.Key = constants.MaskedSecret

				return render(info, func(table *tablewriter.Table) error {
					table.Header("Property", "Value")
					_ = table.Append("User ID", strconv.FormatInt(info.UserID, 10))
					_ = table.Append("Username", info.Username)

					for _, scope := range sortedKeys(info.Access) {
						_ = table.Append("Access "+scope, string(info.Access[scope]))
					}

					return nil
				})
			})
		},
	}
}

func renderZoteroItemPage(page *papers.PagedResult[papers.ZoteroItem], err error) error {
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}

	return renderZoteroItems(page)
}

func renderZoteroItems(page *papers.PagedResult[papers.ZoteroItem]) error {
	return render(page, func(table *tablewriter.Table) error {
		table.Header("Key", "Type", "Title", "Creators", "Date")

		for _, item := range page.Items {
			_ = table.Append(item.Key, item.Data.ItemType,
				truncate(deref(item.Data.Title), constants.ShortDescriptionDisplayLength),
				truncate(creatorNames(item.Data.Creators), constants.ShortDescriptionDisplayLength),
				deref(item.Data.Date))
		}

		if page.TotalResults != nil {
			table.Footer("", "", "", "Total", strconv.Itoa(*page.TotalResults))
		}

		return nil
	})
}

func renderZoteroCollectionPage(page *papers.PagedResult[papers.ZoteroCollection], err error) error {
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	return renderZoteroCollections(page)
}

func renderZoteroCollections(page *papers.PagedResult[papers.ZoteroCollection]) error {
	return render(page, func(table *tablewriter.Table) error {
		table.Header("Key", "Name", "Parent", "Items")

		for _, c := range page.Items {
			parent := c.Data.Parent()
			if parent == "" {
				parent = constants.NotAvailable
			}

			_ = table.Append(c.Key, c.Data.Name, parent, derefInt(c.Meta.NumItems))
		}

		return nil
	})
}

// renderCollected drains seq up to maxItems items and renders what was fetched
// before returning any error.
func renderCollected[T any](seq iter.Seq2[T, error], maxItems int, fn func(*papers.PagedResult[T]) error) error {
	items, err := pager.Collect(seq, maxItems)
	if len(items) > 0 || err == nil {
		if renderErr := fn(&papers.PagedResult[T]{Items: items}); renderErr != nil {
			return renderErr
		}
	}

	if err != nil {
		return fmt.Errorf("listing: %w", err)
	}

	return nil
}

func creatorNames(creators []papers.ZoteroCreator) string {
	names := make([]string, 0, len(creators))

	for _, c := range creators {
		switch {
		case c.Name != nil:
			names = append(names, *c.Name)
		case c.LastName != nil:
			names = append(names, *c.LastName)
		}
	}

	return strings.Join(names, "; ")
}
