package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// NewEntityCommands creates one command group per OpenAlex collection.
func NewEntityCommands() []*cobra.Command {
	endpoints := papers.OpenAlexEndpoints()
	cmds := make([]*cobra.Command, 0, len(endpoints))

	for _, endpoint := range endpoints {
		cmds = append(cmds, NewEntityCommand(endpoint))
	}

	return cmds
}

// NewEntityCommand creates the command group of one OpenAlex collection.
func NewEntityCommand(endpoint papers.Endpoint) *cobra.Command {
	cmd := &cobra.Command{
		Use:     endpoint.Singular,
		Aliases: []string{endpoint.Name},
		Short:   "Query OpenAlex " + endpoint.Name,
		Long:    endpoint.Description + ".",
	}

	if endpoint.Supports(papers.CapList) {
		cmd.AddCommand(newEntityListCommand(endpoint))
	}

	if endpoint.Supports(papers.CapGet) {
		cmd.AddCommand(newEntityGetCommand(endpoint))
	}

	if endpoint.Supports(papers.CapAutocomplete) {
		cmd.AddCommand(newEntityAutocompleteCommand(endpoint))
	}

	if endpoint.Supports(papers.CapFind) {
		cmd.AddCommand(newFindCommand())
	}

	return cmd
}

// listOptions holds the flags of a list command.
type listOptions struct {
	search  string
	filters []string
	sort    string
	desc    bool
	perPage int
	page    int
	cursor  string
	all     bool
	limit   int
	sample  int
	seed    int
	selects string
	groupBy string
}

func (o *listOptions) addFlags(cmd *cobra.Command, maxPerPage int) {
	cmd.Flags().StringVarP(&o.search, "search", "s", "", "full-text search query")
	cmd.Flags().StringArrayVarP(&o.filters, "filter", "f", nil, "filter clause key:value (repeatable, values OR-ed with |)")
	cmd.Flags().StringVar(&o.sort, "sort", "", "sort field, e.g. cited_by_count")
	cmd.Flags().BoolVar(&o.desc, "desc", false, "sort descending")
	cmd.Flags().IntVarP(&o.perPage, "per-page", "n", constants.DefaultPageSize,
		fmt.Sprintf("results per page (max %d)", maxPerPage))
	cmd.Flags().IntVar(&o.page, "page", 0, "page number")
	cmd.Flags().StringVar(&o.cursor, "cursor", "", "cursor for deep paging (* to start)")
	cmd.Flags().BoolVar(&o.all, "all", false, "fetch every page")
	cmd.Flags().IntVar(&o.limit, "limit", 0, "stop after this many results with --all (0 for no limit)")
	cmd.Flags().IntVar(&o.sample, "sample", 0, "return a random sample of this size")
	cmd.Flags().IntVar(&o.seed, "seed", 0, "seed for a reproducible sample")
	cmd.Flags().StringVar(&o.selects, "select", "", "comma-separated fields to return")
	cmd.Flags().StringVar(&o.groupBy, "group-by", "", "aggregate counts by this field")
}

// params converts the flags into list parameters. seedSet reports whether
// --seed was given.
func (o *listOptions) params(seedSet bool) (*papers.ListParams, error) {
	for _, f := range o.filters {
		if !strings.Contains(f, ":") {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, f)
		}
	}

	params := &papers.ListParams{
		Search:     o.search,
		Filter:     strings.Join(o.filters, ","),
		Sort:       o.sort,
		Descending: o.desc,
		Page:       o.page,
		PerPage:    o.perPage,
		Cursor:     o.cursor,
		Sample:     o.sample,
		Select:     splitCSV(o.selects),
		GroupBy:    o.groupBy,
	}

	if seedSet {
		seed := o.seed
		params.Seed = &seed
	}

	return params, nil
}

func newEntityListCommand(endpoint papers.Endpoint) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "search"},
		Short:   "List " + endpoint.Name,
		Long:    fmt.Sprintf("Search, filter and page through OpenAlex %s", endpoint.Name),
		Example: listExample(endpoint),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.params(cmd.Flags().Changed("seed"))
			if err != nil {
				return err
			}

			params.Aliases = aliasFlagValues(cmd, endpoint)

			return runEntityList(cmd.Context(), endpoint, params, opts.all, opts.limit)
		},
	}

	opts.addFlags(cmd, endpoint.MaxPerPage)
	addAliasFlags(cmd, endpoint)

	return cmd
}

func listExample(endpoint papers.Endpoint) string {
	example := fmt.Sprintf("  papers %s list -s \"climate change\" -f publication_year:2023 --sort cited_by_count --desc",
		endpoint.Singular)

	if _, ok := endpoint.Alias("author"); ok {
		example += fmt.Sprintf("\n  papers %s list --author \"albert einstein\" --year \">1920\" --open", endpoint.Singular)
	}

	return example
}

func aliasFlagName(alias papers.FilterAlias) string {
	return strings.ReplaceAll(alias.Name, "_", "-")
}

// addAliasFlags registers one flag per shorthand filter of the endpoint.
func addAliasFlags(cmd *cobra.Command, endpoint papers.Endpoint) {
	for _, alias := range endpoint.Aliases() {
		usage := fmt.Sprintf("%s (filters %s)", alias.Description, alias.Filter)

		if alias.Boolean {
			cmd.Flags().Bool(aliasFlagName(alias), false, usage)

			continue
		}

		cmd.Flags().String(aliasFlagName(alias), "", usage)
	}
}

// aliasFlagValues returns the shorthand filters given on the command line.
func aliasFlagValues(cmd *cobra.Command, endpoint papers.Endpoint) map[string]string {
	var values map[string]string

	for _, alias := range endpoint.Aliases() {
		flag := cmd.Flags().Lookup(aliasFlagName(alias))
		if flag == nil || !flag.Changed {
			continue
		}

		if values == nil {
			values = make(map[string]string)
		}

		values[alias.Name] = flag.Value.String()
	}

	return values
}

func runEntityList(ctx context.Context, endpoint papers.Endpoint, params *papers.ListParams, all bool, limit int) error {
	client, err := newOpenAlexClient(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = client.Close() }()

	entity, err := client.Entity(endpoint.Name)
	if err != nil {
		return err
	}

	if all {
		return renderCollected(entity.All(ctx, params), limit, func(page *papers.PagedResult[json.RawMessage]) error {
			return renderEntities(endpoint, page)
		})
	}

	page, err := entity.List(ctx, params)
	if err != nil {
		return fmt.Errorf("listing %s: %w", endpoint.Name, err)
	}

	return renderEntities(endpoint, page)
}

func renderEntities(endpoint papers.Endpoint, page *papers.PagedResult[json.RawMessage]) error {
	return render(page, func(table *tablewriter.Table) error {
		if len(page.Groups) > 0 {
			table.Header("Key", "Name", "Count")

			for _, g := range page.Groups {
				_ = table.Append(g.Key, truncate(g.KeyDisplayName, constants.ShortDescriptionDisplayLength), strconv.Itoa(g.Count))
			}

			return nil
		}

		table.Header("ID", "Name", entityMetricHeader(endpoint))

		for _, raw := range page.Items {
			obj := decodeObject(raw)
			_ = table.Append(
				shortID(field(obj, "id")),
				truncate(field(obj, "display_name", "title"), constants.ShortDescriptionDisplayLength),
				field(obj, entityMetricField(endpoint)),
			)
		}

		if page.TotalResults != nil {
			table.Footer("", "Total", strconv.Itoa(*page.TotalResults))
		}

		return nil
	})
}

func entityMetricHeader(endpoint papers.Endpoint) string {
	if endpoint.Name == "works" {
		return "Cited By"
	}

	return "Works"
}

func entityMetricField(endpoint papers.Endpoint) string {
	if endpoint.Name == "works" {
		return "cited_by_count"
	}

	return "works_count"
}

// shortID strips the OpenAlex URL prefix from an id.
func shortID(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}

	return id
}

func newEntityGetCommand(endpoint papers.Endpoint) *cobra.Command {
	var selects string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Get one " + endpoint.Singular,
		Long:  fmt.Sprintf("Get an OpenAlex %s by OpenAlex id, URL or external id", endpoint.Singular),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newOpenAlexClient(ctx, nil)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			entity, err := client.Entity(endpoint.Name)
			if err != nil {
				return err
			}

			raw, err := entity.Get(ctx, args[0], &papers.GetParams{Select: splitCSV(selects)})
			if err != nil {
				return fmt.Errorf("getting %s %s: %w", endpoint.Singular, args[0], err)
			}

			return renderObject(*raw)
		},
	}

	cmd.Flags().StringVar(&selects, "select", "", "comma-separated fields to return")

	return cmd
}

// renderObject prints an entity, as a property table of its top-level fields.
func renderObject(raw json.RawMessage) error {
	obj := decodeObject(raw)

	return render(obj, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		for _, key := range sortedKeys(obj) {
			_ = table.Append(key, truncate(formatValue(obj[key]), constants.StringTruncationLength))
		}

		return nil
	})
}

func newEntityAutocompleteCommand(endpoint papers.Endpoint) *cobra.Command {
	return &cobra.Command{
		Use:     "autocomplete QUERY",
		Aliases: []string{"ac"},
		Short:   "Typeahead search over " + endpoint.Name,
		Long:    fmt.Sprintf("Return up to 10 OpenAlex %s whose name matches QUERY", endpoint.Name),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newOpenAlexClient(ctx, nil)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			entity, err := client.Entity(endpoint.Name)
			if err != nil {
				return err
			}

			results, err := entity.Autocomplete(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("autocompleting %s: %w", endpoint.Name, err)
			}

			return render(results, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Hint", "Cited By")

				for _, r := range results {
					_ = table.Append(shortID(r.ID), truncate(r.DisplayName, constants.ShortDescriptionDisplayLength),
						truncate(deref(r.Hint), constants.ShortDescriptionDisplayLength), derefInt64(r.CitedByCount))
				}

				return nil
			})
		},
	}
}

func newFindCommand() *cobra.Command {
	var (
		count  int
		filter string
	)

	cmd := &cobra.Command{
		Use:   "find QUERY",
		Short: "Semantic search for works",
		Long:  "Find works conceptually similar to QUERY. Requires an OpenAlex API key (openalex.api_key).",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			client, err := newOpenAlexClient(ctx, nil)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			results, err := client.FindWorks(ctx, &papers.FindParams{
				Query:  strings.Join(args, " "),
				Count:  count,
				Filter: filter,
			})
			if err != nil {
				return fmt.Errorf("finding works: %w", err)
			}

			return render(results, func(table *tablewriter.Table) error {
				table.Header("Score", "ID", "Title", "Year")

				for _, r := range results {
					_ = table.Append(strconv.FormatFloat(r.Score, 'f', 3, 64), shortID(r.Work.ID),
						truncate(deref(r.Work.Title), constants.ShortDescriptionDisplayLength), derefInt(r.Work.PublicationYear))
				}

				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of results (1-100)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "OpenAlex filter expression")

	return cmd
}
