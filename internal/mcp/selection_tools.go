package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/papers-cli/papers/internal/selection"
)

// WithSelections adds the selection tools backed by store.
func WithSelections(store *selection.Store) Option {
	return func(s *Server) {
		s.selections = store
	}
}

func writeTool(title string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
}

func (s *Server) selectionTools() []server.ServerTool {
	targetArg := mcp.WithString("selection", mcp.Description("Selection name or 1-based index. Defaults to the active selection."))

	list := mcp.NewTool("selection_list", append(readOnly("List selections"),
		mcp.WithDescription("List the named paper selections with their sizes; one may be active."))...)

	get := mcp.NewTool("selection_get", append(writeTool("Get selection"),
		mcp.WithDescription("Show the papers of a selection and make it the active one."),
		mcp.WithString("name", mcp.Description("Selection name or 1-based index. Omit to use the active selection.")))...)

	create := mcp.NewTool("selection_create", append(writeTool("Create selection"),
		mcp.WithDescription("Create an empty selection and make it active."),
		mcp.WithString("name", mcp.Description("Letters, digits, hyphens and underscores."), mcp.Required()))...)

	deleteOpts := append(writeTool("Delete selection"),
		mcp.WithDescription("Delete a selection."),
		mcp.WithString("name", mcp.Description("Selection name or 1-based index."), mcp.Required()),
		mcp.WithDestructiveHintAnnotation(true))
	del := mcp.NewTool("selection_delete", deleteOpts...)

	add := mcp.NewTool("selection_add", append(writeTool("Add paper"),
		mcp.WithDescription("Resolve a paper through Zotero and OpenAlex and add it to a selection."),
		mcp.WithString("paper", mcp.Description("Zotero key, DOI, OpenAlex work id (e.g. W2741809807) or title."), mcp.Required()),
		mcp.WithOpenWorldHintAnnotation(true),
		targetArg)...)

	remove := mcp.NewTool("selection_remove", append(writeTool("Remove paper"),
		mcp.WithDescription("Remove a paper from a selection."),
		mcp.WithString("paper", mcp.Description("Zotero key, DOI, OpenAlex id or part of the title."), mcp.Required()),
		targetArg)...)

	return []server.ServerTool{
		{Tool: list, Handler: s.handleSelectionList},
		{Tool: get, Handler: s.handleSelectionGet},
		{Tool: create, Handler: s.handleSelectionCreate},
		{Tool: del, Handler: s.handleSelectionDelete},
		{Tool: add, Handler: s.handleSelectionAdd},
		{Tool: remove, Handler: s.handleSelectionRemove},
	}
}

func (s *Server) handleSelectionList(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.selections.List()
	if err != nil {
		return s.result("selection_list", nil, "", err)
	}

	return s.result("selection_list", map[string]interface{}{"selections": summaries},
		fmt.Sprintf("%d selections", len(summaries)), nil)
}

func (s *Server) handleSelectionGet(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sel, err := s.selections.Get(req.GetString("name", ""))
	if err != nil {
		return s.result("selection_get", nil, "", err)
	}

	return s.result("selection_get", sel, fmt.Sprintf("Selection %s has %d papers", sel.Name, len(sel.Entries)), nil)
}

func (s *Server) handleSelectionCreate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sel, err := s.selections.Create(name)
	if err != nil {
		return s.result("selection_create", nil, "", err)
	}

	return s.result("selection_create", sel, "Created selection "+sel.Name, nil)
}

func (s *Server) handleSelectionDelete(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, err := s.selections.Delete(input)
	if err != nil {
		return s.result("selection_delete", nil, "", err)
	}

	return s.result("selection_delete", map[string]string{"deleted": name}, "Deleted selection "+name, nil)
}

func (s *Server) handleSelectionAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paper, err := req.RequireString("paper")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name, err := s.selections.Target(req.GetString("selection", ""))
	if err != nil {
		return s.result("selection_add", nil, "", err)
	}

	opts := []selection.ResolverOption{}
	if s.zotero != nil {
		opts = append(opts, selection.WithZotero(s.zotero))
	}

	if s.logger != nil {
		opts = append(opts, selection.WithLogger(s.logger))
	}

	entry, err := selection.NewResolver(s.openalex, opts...).Resolve(ctx, paper)
	if err != nil {
		return s.result("selection_add", nil, "", err)
	}

	sel, added, err := s.selections.Add(name, entry)
	if err != nil {
		return s.result("selection_add", nil, "", err)
	}

	fallback := fmt.Sprintf("Added %q to %s", entry.Title, sel.Name)
	if !added {
		fallback = fmt.Sprintf("%q is already in %s", entry.Title, sel.Name)
	}

	return s.result("selection_add", map[string]interface{}{"selection": sel.Name, "added": added, "entry": entry}, fallback, nil)
}

func (s *Server) handleSelectionRemove(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paper, err := req.RequireString("paper")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.selections.Remove(req.GetString("selection", ""), paper)
	if err != nil {
		return s.result("selection_remove", nil, "", err)
	}

	return s.result("selection_remove", map[string]interface{}{"removed": entry}, fmt.Sprintf("Removed %q", entry.Title), nil)
}
