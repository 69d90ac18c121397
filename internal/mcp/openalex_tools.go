package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/papers-cli/papers/pkg/papers"
)

func (s *Server) entityTools(endpoint papers.Endpoint) []server.ServerTool {
	var tools []server.ServerTool

	if endpoint.Supports(papers.CapList) {
		tools = append(tools, server.ServerTool{Tool: s.listTool(endpoint), Handler: s.handleList(endpoint)})
	}

	if endpoint.Supports(papers.CapGet) {
		tools = append(tools, server.ServerTool{Tool: getTool(endpoint), Handler: s.handleGet(endpoint)})
	}

	if endpoint.Supports(papers.CapAutocomplete) {
		tools = append(tools, server.ServerTool{Tool: autocompleteTool(endpoint), Handler: s.handleAutocomplete(endpoint)})
	}

	return tools
}

func readOnly(title string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	}
}

func (s *Server) listTool(endpoint papers.Endpoint) mcp.Tool {
	opts := append(readOnly("List "+endpoint.Name),
		mcp.WithDescription(fmt.Sprintf("Search and filter OpenAlex %s. %s.", endpoint.Name, endpoint.Description)),
		mcp.WithString("search", mcp.Description("Full-text search query.")),
		mcp.WithString("filter", mcp.Description("OpenAlex filter expression, e.g. publication_year:2020,is_oa:true.")),
		mcp.WithString("sort", mcp.Description("Field to sort by, e.g. cited_by_count.")),
		mcp.WithBoolean("descending", mcp.Description("Sort in descending order. Requires sort.")),
		mcp.WithNumber("page", mcp.Description("1-based page number."), mcp.Min(1)),
		mcp.WithNumber("per_page", mcp.Description(fmt.Sprintf("Results per page, at most %d.", endpoint.MaxPerPage)),
			mcp.Min(1), mcp.Max(float64(endpoint.MaxPerPage)), mcp.DefaultNumber(float64(s.pageSize))),
		mcp.WithString("cursor", mcp.Description("Cursor for deep paging. Use * to start; cannot be combined with page.")),
		mcp.WithNumber("sample", mcp.Description("Return a random sample of this many results."), mcp.Min(1)),
		mcp.WithNumber("seed", mcp.Description("Seed for a reproducible sample.")),
		mcp.WithString("select", mcp.Description("Comma-separated fields to return.")),
		mcp.WithString("group_by", mcp.Description("Aggregate counts by this field instead of listing results.")),
	)

	for _, alias := range endpoint.Aliases() {
		description := mcp.Description(fmt.Sprintf("Shorthand filter on %s: %s.", alias.Filter, alias.Description))

		if alias.Boolean {
			opts = append(opts, mcp.WithBoolean(alias.Name, description))

			continue
		}

		opts = append(opts, mcp.WithString(alias.Name, description))
	}

	return mcp.NewTool(endpoint.Singular+"_list", opts...)
}

func getTool(endpoint papers.Endpoint) mcp.Tool {
	opts := append(readOnly("Get "+endpoint.Singular),
		mcp.WithDescription(fmt.Sprintf("Get one OpenAlex %s by OpenAlex id or external id (DOI, ORCID, ROR, PMID).", endpoint.Singular)),
		mcp.WithString("id", mcp.Description("Identifier, e.g. W2741809807 or https://doi.org/10.7717/peerj.4375."), mcp.Required()),
		mcp.WithString("select", mcp.Description("Comma-separated fields to return.")),
	)

	return mcp.NewTool(endpoint.Singular+"_get", opts...)
}

func autocompleteTool(endpoint papers.Endpoint) mcp.Tool {
	opts := append(readOnly("Autocomplete "+endpoint.Name),
		mcp.WithDescription(fmt.Sprintf("Typeahead search over OpenAlex %s. Returns up to 10 suggestions.", endpoint.Name)),
		mcp.WithString("q", mcp.Description("Partial name or title."), mcp.Required()),
	)

	return mcp.NewTool(endpoint.Singular+"_autocomplete", opts...)
}

func findWorksTool() mcp.Tool {
	opts := append(readOnly("Find works"),
		mcp.WithDescription("Semantic search for works by conceptual similarity. Requires an OpenAlex API key."),
		mcp.WithString("query", mcp.Description("Text to find similar works for: a title, abstract or research question."),
			mcp.Required(), mcp.MaxLength(papers.FindMaxQueryLength)),
		mcp.WithNumber("count", mcp.Description("Number of results."), mcp.Min(1), mcp.Max(papers.FindMaxCount)),
		mcp.WithString("filter", mcp.Description("OpenAlex filter expression applied to the results.")),
	)

	return mcp.NewTool("work_find", opts...)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}

	var out []string

	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func listParams(req mcp.CallToolRequest, endpoint papers.Endpoint, defaultPageSize int) *papers.ListParams {
	params := &papers.ListParams{
		Search:     req.GetString("search", ""),
		Filter:     req.GetString("filter", ""),
		Sort:       req.GetString("sort", ""),
		Descending: req.GetBool("descending", false),
		Page:       req.GetInt("page", 0),
		PerPage:    req.GetInt("per_page", defaultPageSize),
		Cursor:     req.GetString("cursor", ""),
		Sample:     req.GetInt("sample", 0),
		Select:     splitList(req.GetString("select", "")),
		GroupBy:    req.GetString("group_by", ""),
	}

	if _, ok := req.GetArguments()["seed"]; ok {
		seed := req.GetInt("seed", 0)
		params.Seed = &seed
	}

	params.Aliases = aliasArgs(req, endpoint)

	return params
}

// aliasArgs collects the shorthand filters present in the call. Numbers and
// booleans are accepted as well as strings.
func aliasArgs(req mcp.CallToolRequest, endpoint papers.Endpoint) map[string]string {
	args := req.GetArguments()

	var aliases map[string]string

	for _, alias := range endpoint.Aliases() {
		value, ok := args[alias.Name]
		if !ok || value == nil {
			continue
		}

		if aliases == nil {
			aliases = make(map[string]string)
		}

		aliases[alias.Name] = fmt.Sprint(value)
	}

	return aliases
}

func (s *Server) handleList(endpoint papers.Endpoint) server.ToolHandlerFunc {
	tool := endpoint.Singular + "_list"

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entity, err := s.openalex.Entity(endpoint.Name)
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		page, err := entity.List(ctx, listParams(req, endpoint, s.pageSize))
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		return s.result(tool, page, listFallback(endpoint.Name, len(page.Items), page.TotalResults), nil)
	}
}

func (s *Server) handleGet(endpoint papers.Endpoint) server.ToolHandlerFunc {
	tool := endpoint.Singular + "_get"

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entity, err := s.openalex.Entity(endpoint.Name)
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		raw, err := entity.Get(ctx, id, &papers.GetParams{Select: splitList(req.GetString("select", ""))})
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		var value interface{}
		if err := json.Unmarshal(*raw, &value); err != nil {
			return s.result(tool, nil, "", &papers.Error{Kind: papers.KindDecode, Err: err})
		}

		return s.result(tool, value, string(*raw), nil)
	}
}

func (s *Server) handleAutocomplete(endpoint papers.Endpoint) server.ToolHandlerFunc {
	tool := endpoint.Singular + "_autocomplete"

	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		q, err := req.RequireString("q")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entity, err := s.openalex.Entity(endpoint.Name)
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		results, err := entity.Autocomplete(ctx, q)
		if err != nil {
			return s.result(tool, nil, "", err)
		}

		return s.result(tool, map[string]interface{}{"results": results},
			fmt.Sprintf("Found %d %s suggestions", len(results), endpoint.Singular), nil)
	}
}

func (s *Server) handleFindWorks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := s.openalex.FindWorks(ctx, &papers.FindParams{
		Query:  query,
		Count:  req.GetInt("count", 0),
		Filter: req.GetString("filter", ""),
	})
	if err != nil {
		return s.result("work_find", nil, "", err)
	}

	return s.result("work_find", map[string]interface{}{"results": results},
		fmt.Sprintf("Found %d similar works", len(results)), nil)
}

func listFallback(name string, count int, total *int) string {
	if total != nil {
		return fmt.Sprintf("Returned %d of %d %s", count, *total, name)
	}

	return fmt.Sprintf("Returned %d %s", count, name)
}
