// Package openalex implements papers.OpenAlexClient on top of the shared
// request pipeline.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/papers-cli/papers/internal/client"
	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/http"
	"github.com/papers-cli/papers/internal/pager"
	"github.com/papers-cli/papers/pkg/papers"
)

// APIName labels OpenAlex logs and metrics.
const APIName = "openalex"

// Client implements papers.OpenAlexClient.
type Client struct {
	pipeline  *client.Pipeline
	hasAPIKey bool

	works        *entityClient[papers.Work]
	authors      *entityClient[papers.Author]
	sources      *entityClient[papers.Source]
	institutions *entityClient[papers.Institution]
	topics       *entityClient[papers.Topic]
	publishers   *entityClient[papers.Publisher]
	funders      *entityClient[papers.Funder]
	domains      *entityClient[papers.Domain]
	fields       *entityClient[papers.Field]
	subfields    *entityClient[papers.Subfield]
	concepts     *entityClient[papers.Concept]
}

var _ papers.OpenAlexClient = (*Client)(nil)

// New creates an OpenAlex client. APIKey and Email are sent as the api_key
// and mailto query parameters.
func New(ctx context.Context, config *papers.Config, opts ...client.Option) (*Client, error) {
	if config == nil {
		return nil, papers.ErrConfigRequired
	}

	if config.BaseURL != "" {
		if u, err := url.Parse(config.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%w: %q", papers.ErrInvalidBaseURL, config.BaseURL)
		}
	}

	credentials := url.Values{}
	if config.APIKey != "" {
		credentials.Set("api_key", config.APIKey)
	}

	if config.Email != "" {
		credentials.Set("mailto", config.Email)
	}

	pipeline, err := client.NewPipeline(ctx, config, client.Settings{
		API:       APIName,
		BaseURL:   constants.OpenAlexBaseURL,
		Auth:      http.QueryCredentials{Params: credentials, PartitionParam: "api_key"},
		RateLimit: constants.OpenAlexRateLimit,
	}, opts...)
	if err != nil {
		return nil, err
	}

	return NewWithPipeline(pipeline, config.APIKey != ""), nil
}

// NewWithPipeline creates a client on an existing pipeline.
func NewWithPipeline(pipeline *client.Pipeline, hasAPIKey bool) *Client {
	return &Client{
		pipeline:     pipeline,
		hasAPIKey:    hasAPIKey,
		works:        newEntityClient[papers.Work](pipeline, "works"),
		authors:      newEntityClient[papers.Author](pipeline, "authors"),
		sources:      newEntityClient[papers.Source](pipeline, "sources"),
		institutions: newEntityClient[papers.Institution](pipeline, "institutions"),
		topics:       newEntityClient[papers.Topic](pipeline, "topics"),
		publishers:   newEntityClient[papers.Publisher](pipeline, "publishers"),
		funders:      newEntityClient[papers.Funder](pipeline, "funders"),
		domains:      newEntityClient[papers.Domain](pipeline, "domains"),
		fields:       newEntityClient[papers.Field](pipeline, "fields"),
		subfields:    newEntityClient[papers.Subfield](pipeline, "subfields"),
		concepts:     newEntityClient[papers.Concept](pipeline, "concepts"),
	}
}

// Works returns the works client.
func (c *Client) Works() papers.EntityClient[papers.Work] { return c.works }

// Authors returns the authors client.
func (c *Client) Authors() papers.EntityClient[papers.Author] { return c.authors }

// Sources returns the sources client.
func (c *Client) Sources() papers.EntityClient[papers.Source] { return c.sources }

// Institutions returns the institutions client.
func (c *Client) Institutions() papers.EntityClient[papers.Institution] { return c.institutions }

// Topics returns the topics client.
func (c *Client) Topics() papers.EntityClient[papers.Topic] { return c.topics }

// Publishers returns the publishers client.
func (c *Client) Publishers() papers.EntityClient[papers.Publisher] { return c.publishers }

// Funders returns the funders client.
func (c *Client) Funders() papers.EntityClient[papers.Funder] { return c.funders }

// Domains returns the domains client.
func (c *Client) Domains() papers.EntityClient[papers.Domain] { return c.domains }

// Fields returns the fields client.
func (c *Client) Fields() papers.EntityClient[papers.Field] { return c.fields }

// Subfields returns the subfields client.
func (c *Client) Subfields() papers.EntityClient[papers.Subfield] { return c.subfields }

// Concepts returns the concepts client. Only Autocomplete is supported.
func (c *Client) Concepts() papers.EntityClient[papers.Concept] { return c.concepts }

// Entity returns an untyped client for the named collection.
func (c *Client) Entity(name string) (papers.EntityClient[json.RawMessage], error) {
	endpoint, ok := papers.LookupOpenAlexEndpoint(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", papers.ErrUnknownEndpoint, name)
	}

	return newEntityClient[json.RawMessage](c.pipeline, endpoint.Name), nil
}

// Close releases the cache backend.
func (c *Client) Close() error {
	return c.pipeline.Close()
}

type findResponse struct {
	Results []papers.FindResult `json:"results"`
}

// FindWorks runs a semantic search. Queries longer than the GET threshold
// are sent as a POST body.
func (c *Client) FindWorks(ctx context.Context, params *papers.FindParams) ([]papers.FindResult, error) {
	if params == nil {
		return nil, papers.NewInvalidParams("find params are required")
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if !c.hasAPIKey {
		return nil, &papers.Error{Kind: papers.KindInvalidParams, Message: "semantic search requires an OpenAlex API key", Err: papers.ErrAPIKeyRequired}
	}

	var req *http.Request

	if len(params.Query) > constants.FindPostThreshold {
		body, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding find request: %w", err)
		}

		req = http.NewRequest(nethttp.MethodPost, c.pipeline.BaseURL(), "/find/works", nil).WithBody("application/json", body)
	} else {
		q := url.Values{paramQuery: {params.Query}}
		if params.Count > 0 {
			q.Set(paramCount, strconv.Itoa(params.Count))
		}

		if params.Filter != "" {
			q.Set(paramFilter, params.Filter)
		}

		req = http.Get(c.pipeline.BaseURL(), "/find/works", q)
	}

	result, err := client.Fetch[findResponse](ctx, c.pipeline, req)
	if err != nil {
		return nil, fmt.Errorf("finding works: %w", err)
	}

	return result.Value.Results, nil
}

// entityClient serves one collection. Capabilities come from the endpoint table.
type entityClient[T any] struct {
	pipeline *client.Pipeline
	endpoint papers.Endpoint
}

func newEntityClient[T any](pipeline *client.Pipeline, name string) *entityClient[T] {
	endpoint, _ := papers.LookupOpenAlexEndpoint(name)

	return &entityClient[T]{pipeline: pipeline, endpoint: endpoint}
}

type listResponse[T any] struct {
	Meta    *papers.ListMeta     `json:"meta"`
	Results []T                  `json:"results"`
	GroupBy []papers.GroupResult `json:"group_by"`
}

type autocompleteResponse struct {
	Results []papers.AutocompleteResult `json:"results"`
}

// Get implements papers.EntityClient.
func (e *entityClient[T]) Get(ctx context.Context, id string, params *papers.GetParams) (*T, error) {
	if !e.endpoint.Supports(papers.CapGet) {
		return nil, papers.NewUnsupported("get", e.endpoint.Name)
	}

	id = NormalizeID(id)
	if id == "" {
		return nil, papers.NewInvalidParams("%s id is required", e.endpoint.Singular)
	}

	q := url.Values{}

	if params != nil {
		if err := params.Validate(); err != nil {
			return nil, err
		}

		if len(params.Select) > 0 {
			q.Set(paramSelect, strings.Join(params.Select, ","))
		}
	}

	req := http.Get(e.pipeline.BaseURL(), "/"+e.endpoint.Name+"/"+id, q)

	result, err := client.Fetch[T](ctx, e.pipeline, req)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", e.endpoint.Singular, id, err)
	}

	return &result.Value, nil
}

// List implements papers.EntityClient.
func (e *entityClient[T]) List(ctx context.Context, params *papers.ListParams) (*papers.PagedResult[T], error) {
	if err := e.checkList(params); err != nil {
		return nil, err
	}

	params, err := e.resolveAliases(ctx, params)
	if err != nil {
		return nil, err
	}

	page, err := pager.FetchPage(ctx, e.fetcher(params), startState(params, e.endpoint.MaxPerPage))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", e.endpoint.Name, err)
	}

	return page, nil
}

// All implements papers.EntityClient. Without an explicit page or sample it
// uses cursor pagination, which is not bound by the offset window.
func (e *entityClient[T]) All(ctx context.Context, params *papers.ListParams) iter.Seq2[T, error] {
	if err := e.checkList(params); err != nil {
		return func(yield func(T, error) bool) {
			var zero T
			yield(zero, err)
		}
	}

	start := startState(params, e.endpoint.MaxPerPage)
	if (params == nil || (params.Page == 0 && params.Sample == 0 && params.GroupBy == "")) && start.Mode == papers.OffsetMode {
		start = papers.CursorPage(papers.CursorStart, start.PerPage)
	}

	return func(yield func(T, error) bool) {
		resolved, err := e.resolveAliases(ctx, params)
		if err != nil {
			var zero T
			yield(zero, err)

			return
		}

		for item, err := range pager.Items(ctx, e.fetcher(resolved), start) {
			if !yield(item, err) {
				return
			}
		}
	}
}

// Autocomplete implements papers.EntityClient.
func (e *entityClient[T]) Autocomplete(ctx context.Context, query string) ([]papers.AutocompleteResult, error) {
	if !e.endpoint.Supports(papers.CapAutocomplete) {
		return nil, papers.NewUnsupported("autocomplete", e.endpoint.Name)
	}

	if query == "" {
		return nil, papers.NewInvalidParams("autocomplete query is required")
	}

	req := http.Get(e.pipeline.BaseURL(), "/autocomplete/"+e.endpoint.Name, url.Values{paramQ: {query}})

	result, err := client.Fetch[autocompleteResponse](ctx, e.pipeline, req)
	if err != nil {
		return nil, fmt.Errorf("autocompleting %s: %w", e.endpoint.Name, err)
	}

	return result.Value.Results, nil
}

func (e *entityClient[T]) checkList(params *papers.ListParams) error {
	if !e.endpoint.Supports(papers.CapList) {
		return papers.NewUnsupported("list", e.endpoint.Name)
	}

	if params == nil {
		return nil
	}

	if params.Cursor != "" && !e.endpoint.Supports(papers.CapCursor) {
		return papers.NewUnsupported("cursor pagination", e.endpoint.Name)
	}

	if err := params.Validate(); err != nil {
		return err
	}

	return e.checkAliases(params)
}

func (e *entityClient[T]) fetcher(params *papers.ListParams) pager.Fetcher[T] {
	return func(ctx context.Context, state papers.PageState) (*papers.PagedResult[T], error) {
		req := http.Get(e.pipeline.BaseURL(), "/"+e.endpoint.Name, ListQuery(params, state))

		result, err := client.Fetch[listResponse[T]](ctx, e.pipeline, req)
		if err != nil {
			return nil, err
		}

		page := &papers.PagedResult[T]{
			Items:  result.Value.Results,
			Groups: result.Value.GroupBy,
			Meta:   result.Value.Meta,
		}

		if meta := result.Value.Meta; meta != nil {
			page.TotalResults = meta.Count

			if meta.NextCursor != nil && *meta.NextCursor != "" {
				page.Next = &papers.PageState{Mode: papers.CursorMode, Cursor: *meta.NextCursor}
			}
		}

		return page, nil
	}
}
