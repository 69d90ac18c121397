package zotero

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/papers-cli/papers/pkg/papers"
)

// orSeparator joins alternatives of a tag or itemType filter.
const orSeparator = " || "

// ListQuery maps params onto Zotero query parameters for the page at state.
// The start parameter is the state's offset plus the pages before it.
func ListQuery(params *papers.ZoteroListParams, state papers.PageState) url.Values {
	q := url.Values{}

	if params != nil {
		if params.Search != "" {
			q.Set("q", params.Search)

			if params.Everything {
				q.Set("qmode", "everything")
			}
		}

		if len(params.ItemTypes) > 0 {
			q.Set("itemType", strings.Join(params.ItemTypes, orSeparator))
		}

		if len(params.Tags) > 0 {
			q.Set("tag", strings.Join(params.Tags, orSeparator))
		}

		if len(params.ItemKeys) > 0 {
			q.Set("itemKey", strings.Join(params.ItemKeys, ","))
		}

		if params.Since != nil {
			q.Set("since", strconv.FormatInt(*params.Since, 10))
		}

		if params.Sort != "" {
			q.Set("sort", params.Sort)
		}

		if params.Direction != "" {
			q.Set("direction", params.Direction)
		}
	}

	if state.PerPage > 0 {
		q.Set("limit", strconv.Itoa(state.PerPage))
	}

	start := state.Offset
	if state.Page > 1 {
		start += (state.Page - 1) * state.PerPage
	}

	if start > 0 {
		q.Set("start", strconv.Itoa(start))
	}

	return q
}

func startState(params *papers.ZoteroListParams) papers.PageState {
	limit := papers.ZoteroDefaultLimit
	if params != nil && params.Limit > 0 {
		limit = params.Limit
	}

	state := papers.OffsetPage(1, limit)
	if params != nil {
		state.Offset = params.Start
	}

	return state
}
