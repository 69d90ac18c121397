package openalex

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/papers-cli/papers/pkg/papers"
)

// Wire parameter names.
const (
	paramSearch  = "search"
	paramFilter  = "filter"
	paramSort    = "sort"
	paramPage    = "page"
	paramPerPage = "per-page"
	paramCursor  = "cursor"
	paramSample  = "sample"
	paramSeed    = "seed"
	paramSelect  = "select"
	paramGroupBy = "group_by"
	paramQ       = "q"
	paramQuery   = "query"
	paramCount   = "count"
)

// ListQuery maps params and the page position onto OpenAlex query parameters.
// The result depends only on the semantic content of params.
func ListQuery(params *papers.ListParams, state papers.PageState) url.Values {
	q := url.Values{}

	if params != nil {
		if params.Search != "" {
			q.Set(paramSearch, params.Search)
		}

		if filter := FilterExpression(params.Filters, params.Filter); filter != "" {
			q.Set(paramFilter, filter)
		}

		if params.Sort != "" {
			sortValue := params.Sort
			if params.Descending {
				sortValue += ":desc"
			}

			q.Set(paramSort, sortValue)
		}

		if params.Sample > 0 {
			q.Set(paramSample, strconv.Itoa(params.Sample))

			if params.Seed != nil {
				q.Set(paramSeed, strconv.Itoa(*params.Seed))
			}
		}

		if len(params.Select) > 0 {
			q.Set(paramSelect, strings.Join(params.Select, ","))
		}

		if params.GroupBy != "" {
			q.Set(paramGroupBy, params.GroupBy)
		}
	}

	if state.PerPage > 0 {
		q.Set(paramPerPage, strconv.Itoa(state.PerPage))
	}

	switch state.Mode {
	case papers.CursorMode:
		q.Set(paramCursor, state.Cursor)
	default:
		if state.Page > 0 {
			q.Set(paramPage, strconv.Itoa(state.Page))
		}
	}

	return q
}

// FilterExpression renders structured filters as "key:v1|v2" clauses sorted
// by key and joined with commas, followed by the raw expression. Values are
// OR-ed, so they are sorted too.
func FilterExpression(filters map[string][]string, raw string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	clauses := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		values := append([]string(nil), filters[k]...)
		sort.Strings(values)

		clauses = append(clauses, strings.TrimSpace(k)+":"+strings.Join(values, "|"))
	}

	if raw = strings.Trim(strings.TrimSpace(raw), ","); raw != "" {
		clauses = append(clauses, raw)
	}

	return strings.Join(clauses, ",")
}

// startState is the first page of a listing described by params.
func startState(params *papers.ListParams, maxPerPage int) papers.PageState {
	perPage := papers.OpenAlexDefaultPerPage
	if params != nil && params.PerPage > 0 {
		perPage = params.PerPage
	}

	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}

	if params != nil && params.Cursor != "" {
		return papers.CursorPage(params.Cursor, perPage)
	}

	page := 1
	if params != nil && params.Page > 0 {
		page = params.Page
	}

	return papers.OffsetPage(page, perPage)
}
