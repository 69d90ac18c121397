package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/papers-cli/papers/pkg/papers"
)

func (s *Server) zoteroTools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: s.zoteroListTool("zotero_item_list", "List items in the Zotero library."), Handler: s.handleZoteroItems},
		{Tool: zoteroKeyTool("zotero_item_get", "Get one Zotero item by key."), Handler: s.handleZoteroItem},
		{Tool: s.zoteroListTool("zotero_item_children", "List the attachments and notes of a Zotero item.",
			mcp.WithString("key", mcp.Description("Parent item key."), mcp.Required())), Handler: s.handleZoteroChildren},
		{Tool: s.zoteroListTool("zotero_collection_list", "List collections in the Zotero library."), Handler: s.handleZoteroCollections},
		{Tool: s.zoteroListTool("zotero_collection_items", "List the items of a Zotero collection.",
			mcp.WithString("key", mcp.Description("Collection key."), mcp.Required())), Handler: s.handleZoteroCollectionItems},
		{Tool: s.zoteroListTool("zotero_tag_list", "List tags in the Zotero library."), Handler: s.handleZoteroTags},
	}
}

func (s *Server) zoteroListTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	opts := append(readOnly(description),
		mcp.WithDescription(description),
		mcp.WithString("q", mcp.Description("Quick search over titles, creators and years.")),
		mcp.WithBoolean("everything", mcp.Description("Search all fields including full text. Requires q.")),
		mcp.WithString("item_type", mcp.Description("Comma-separated item types; prefix with - to exclude.")),
		mcp.WithString("tag", mcp.Description("Comma-separated tags; prefix with - to exclude.")),
		mcp.WithString("sort", mcp.Description("Sort field, e.g. dateModified or title.")),
		mcp.WithString("direction", mcp.Description("asc or desc."), mcp.Enum("asc", "desc")),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Results per page, at most %d.", papers.ZoteroMaxLimit)),
			mcp.Min(1), mcp.Max(papers.ZoteroMaxLimit), mcp.DefaultNumber(float64(s.pageSize))),
		mcp.WithNumber("start", mcp.Description("0-based offset of the first result."), mcp.Min(0)),
	)

	return mcp.NewTool(name, append(opts, extra...)...)
}

func zoteroKeyTool(name, description string) mcp.Tool {
	opts := append(readOnly(description),
		mcp.WithDescription(description),
		mcp.WithString("key", mcp.Description("Eight character object key."), mcp.Required()),
	)

	return mcp.NewTool(name, opts...)
}

func zoteroParams(req mcp.CallToolRequest, defaultLimit int) *papers.ZoteroListParams {
	return &papers.ZoteroListParams{
		Search:     req.GetString("q", ""),
		Everything: req.GetBool("everything", false),
		ItemTypes:  splitList(req.GetString("item_type", "")),
		Tags:       splitList(req.GetString("tag", "")),
		Sort:       req.GetString("sort", ""),
		Direction:  req.GetString("direction", ""),
		Limit:      req.GetInt("limit", defaultLimit),
		Start:      req.GetInt("start", 0),
	}
}

func zoteroPage[T any](s *Server, tool, noun string, page *papers.PagedResult[T], err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return s.result(tool, nil, "", err)
	}

	return s.result(tool, page, listFallback(noun, len(page.Items), page.TotalResults), nil)
}

func (s *Server) handleZoteroItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.zotero.Items().List(ctx, zoteroParams(req, s.pageSize))

	return zoteroPage(s, "zotero_item_list", "items", page, err)
}

func (s *Server) handleZoteroItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := s.zotero.Items().Get(ctx, key)
	if err != nil {
		return s.result("zotero_item_get", nil, "", err)
	}

	title := item.Key
	if item.Data.Title != nil {
		title = *item.Data.Title
	}

	return s.result("zotero_item_get", item, title, nil)
}

func (s *Server) handleZoteroChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := s.zotero.Items().Children(ctx, key, zoteroParams(req, s.pageSize))

	return zoteroPage(s, "zotero_item_children", "child items", page, err)
}

func (s *Server) handleZoteroCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.zotero.Collections().List(ctx, zoteroParams(req, s.pageSize))

	return zoteroPage(s, "zotero_collection_list", "collections", page, err)
}

func (s *Server) handleZoteroCollectionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := s.zotero.Collections().Items(ctx, key, zoteroParams(req, s.pageSize))

	return zoteroPage(s, "zotero_collection_items", "items", page, err)
}

func (s *Server) handleZoteroTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := s.zotero.Tags(ctx, zoteroParams(req, s.pageSize))

	return zoteroPage(s, "zotero_tag_list", "tags", page, err)
}
