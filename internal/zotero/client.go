// Package zotero implements papers.ZoteroClient, read-only access to a user
// or group library through the Zotero Web API v3.
package zotero

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"

	"github.com/papers-cli/papers/internal/client"
	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/http"
	"github.com/papers-cli/papers/internal/pager"
	"github.com/papers-cli/papers/pkg/papers"
)

// APIName labels Zotero logs and metrics.
const APIName = "zotero"

// Header names.
const (
	HeaderAPIKey     = "Zotero-API-Key"
	HeaderAPIVersion = "Zotero-API-Version"
)

// Client implements papers.ZoteroClient.
type Client struct {
	pipeline *client.Pipeline
	prefix   string
	userID   string

	items       *itemsClient
	collections *collectionsClient
}

var _ papers.ZoteroClient = (*Client)(nil)

// New creates a Zotero client for config's user library, or its group
// library when GroupID is set.
func New(ctx context.Context, config *papers.Config, opts ...client.Option) (*Client, error) {
	if config == nil {
		return nil, papers.ErrConfigRequired
	}

	prefix, err := libraryPrefix(config)
	if err != nil {
		return nil, err
	}

	if config.BaseURL != "" {
		if u, err := url.Parse(config.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", papers.ErrInvalidBaseURL, config.BaseURL)
		}
	}

	pipeline, err := client.NewPipeline(ctx, config, client.Settings{
		API:     APIName,
		BaseURL: constants.ZoteroBaseURL,
		Auth: http.HeaderCredentials{
			Headers: map[string]string{
				HeaderAPIKey:     config.APIKey,
				HeaderAPIVersion: constants.ZoteroAPIVersion,
			},
			PartitionHeader: HeaderAPIKey,
		},
		RateLimit: constants.ZoteroRateLimit,
	}, opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{pipeline: pipeline, prefix: prefix, userID: config.UserID}
	c.items = &itemsClient{c: c}
	c.collections = &collectionsClient{c: c}

	return c, nil
}

func libraryPrefix(config *papers.Config) (string, error) {
	switch {
	case config.GroupID != "":
		return "/groups/" + url.PathEscape(config.GroupID), nil
	case config.UserID != "":
		return "/users/" + url.PathEscape(config.UserID), nil
	default:
		return "", papers.ErrUserIDRequired
	}
}

// Items returns the items client.
func (c *Client) Items() papers.ZoteroItemsClient { return c.items }

// Collections returns the collections client.
func (c *Client) Collections() papers.ZoteroCollectionsClient { return c.collections }

// Close releases the cache backend.
func (c *Client) Close() error {
	return c.pipeline.Close()
}

// Tags lists every tag in the library.
func (c *Client) Tags(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroTag], error) {
	return list[papers.ZoteroTag](ctx, c, "/tags", params)
}

// Searches lists the saved searches.
func (c *Client) Searches(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroSearch], error) {
	return list[papers.ZoteroSearch](ctx, c, "/searches", params)
}

// Groups lists the groups of the user. Not available for group libraries.
func (c *Client) Groups(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroGroup], error) {
	if c.userID == "" {
		return nil, papers.NewUnsupported("groups", "group libraries")
	}

	return listAt[papers.ZoteroGroup](ctx, c, "/users/"+url.PathEscape(c.userID)+"/groups", params)
}

// KeyInfo describes the API key in use.
func (c *Client) KeyInfo(ctx context.Context) (*papers.ZoteroKeyInfo, error) {
	req := http.Get(c.pipeline.BaseURL(), "/keys/current", nil)

	result, err := client.Fetch[papers.ZoteroKeyInfo](ctx, c.pipeline, req)
	if err != nil {
		return nil, fmt.Errorf("getting key info: %w", err)
	}

	return &result.Value, nil
}

func get[T any](ctx context.Context, c *Client, kind, path, key string) (*T, error) {
	if key == "" {
		return nil, papers.NewInvalidParams("%s key is required", kind)
	}

	req := http.Get(c.pipeline.BaseURL(), c.prefix+path+"/"+url.PathEscape(key), nil)

	result, err := client.Fetch[T](ctx, c.pipeline, req)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", kind, key, err)
	}

	return &result.Value, nil
}

func list[T any](ctx context.Context, c *Client, path string, params *papers.ZoteroListParams) (*papers.PagedResult[T], error) {
	return listAt[T](ctx, c, c.prefix+path, params)
}

func listAt[T any](ctx context.Context, c *Client, fullPath string, params *papers.ZoteroListParams) (*papers.PagedResult[T], error) {
	if params != nil {
		if err := params.Validate(); err != nil {
			return nil, err
		}
	}

	page, err := pager.FetchPage(ctx, fetcher[T](c, fullPath, params), startState(params))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", fullPath, err)
	}

	return page, nil
}

func all[T any](ctx context.Context, c *Client, path string, params *papers.ZoteroListParams) iter.Seq2[T, error] {
	if params != nil {
		if err := params.Validate(); err != nil {
			return func(yield func(T, error) bool) {
				var zero T
				yield(zero, err)
			}
		}
	}

	return pager.Items(ctx, fetcher[T](c, c.prefix+path, params), startState(params))
}

// fetcher reads the total from Total-Results and the library version from
// Last-Modified-Version.
func fetcher[T any](c *Client, fullPath string, params *papers.ZoteroListParams) pager.Fetcher[T] {
	return func(ctx context.Context, state papers.PageState) (*papers.PagedResult[T], error) {
		req := http.Get(c.pipeline.BaseURL(), fullPath, ListQuery(params, state))

		result, err := client.Fetch[[]T](ctx, c.pipeline, req)
		if err != nil {
			return nil, err
		}

		page := &papers.PagedResult[T]{Items: result.Value}

		if v := result.Header.Get(http.HeaderTotalResults); v != "" {
			if total, err := strconv.Atoi(v); err == nil {
				page.TotalResults = &total
			}
		}

		if v := result.Header.Get(http.HeaderLastModifiedVersion); v != "" {
			if version, err := strconv.ParseInt(v, 10, 64); err == nil {
				page.LibraryVersion = version
			}
		}

		return page, nil
	}
}

type itemsClient struct {
	c *Client
}

func (i *itemsClient) Get(ctx context.Context, key string) (*papers.ZoteroItem, error) {
	return get[papers.ZoteroItem](ctx, i.c, "item", "/items", key)
}

func (i *itemsClient) List(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	return list[papers.ZoteroItem](ctx, i.c, "/items", params)
}

func (i *itemsClient) All(ctx context.Context, params *papers.ZoteroListParams) iter.Seq2[papers.ZoteroItem, error] {
	return all[papers.ZoteroItem](ctx, i.c, "/items", params)
}

func (i *itemsClient) Top(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	return list[papers.ZoteroItem](ctx, i.c, "/items/top", params)
}

func (i *itemsClient) Trash(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	return list[papers.ZoteroItem](ctx, i.c, "/items/trash", params)
}

func (i *itemsClient) Children(ctx context.Context, key string, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	if key == "" {
		return nil, papers.NewInvalidParams("item key is required")
	}

	return list[papers.ZoteroItem](ctx, i.c, "/items/"+url.PathEscape(key)+"/children", params)
}

func (i *itemsClient) Tags(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroTag], error) {
	return list[papers.ZoteroTag](ctx, i.c, "/items/tags", params)
}

func (i *itemsClient) ItemTags(ctx context.Context, key string, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroTag], error) {
	if key == "" {
		return nil, papers.NewInvalidParams("item key is required")
	}

	return list[papers.ZoteroTag](ctx, i.c, "/items/"+url.PathEscape(key)+"/tags", params)
}

func (i *itemsClient) Autocomplete(context.Context, string) ([]papers.AutocompleteResult, error) {
	return nil, papers.NewUnsupported("autocomplete", "zotero items")
}

type collectionsClient struct {
	c *Client
}

func (cc *collectionsClient) Get(ctx context.Context, key string) (*papers.ZoteroCollection, error) {
	return get[papers.ZoteroCollection](ctx, cc.c, "collection", "/collections", key)
}

func (cc *collectionsClient) List(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroCollection], error) {
	return list[papers.ZoteroCollection](ctx, cc.c, "/collections", params)
}

func (cc *collectionsClient) All(ctx context.Context, params *papers.ZoteroListParams) iter.Seq2[papers.ZoteroCollection, error] {
	return all[papers.ZoteroCollection](ctx, cc.c, "/collections", params)
}

func (cc *collectionsClient) Top(ctx context.Context, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroCollection], error) {
	return list[papers.ZoteroCollection](ctx, cc.c, "/collections/top", params)
}

func (cc *collectionsClient) Subcollections(ctx context.Context, key string, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroCollection], error) {
	if key == "" {
		return nil, papers.NewInvalidParams("collection key is required")
	}

	return list[papers.ZoteroCollection](ctx, cc.c, "/collections/"+url.PathEscape(key)+"/collections", params)
}

func (cc *collectionsClient) Items(ctx context.Context, key string, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	if key == "" {
		return nil, papers.NewInvalidParams("collection key is required")
	}

	return list[papers.ZoteroItem](ctx, cc.c, "/collections/"+url.PathEscape(key)+"/items", params)
}

func (cc *collectionsClient) TopItems(ctx context.Context, key string, params *papers.ZoteroListParams) (*papers.PagedResult[papers.ZoteroItem], error) {
	if key == "" {
		return nil, papers.NewInvalidParams("collection key is required")
	}

	return list[papers.ZoteroItem](ctx, cc.c, "/collections/"+url.PathEscape(key)+"/items/top", params)
}
