package papers

import "fmt"

// CursorStart is the cursor value that starts a cursor-paginated listing.
const CursorStart = "*"

// PageMode selects between offset and cursor pagination.
type PageMode int

const (
	// OffsetMode pages by page number and page size.
	OffsetMode PageMode = iota
	// CursorMode pages by an opaque continuation token.
	CursorMode
)

// String implements fmt.Stringer.
func (m PageMode) String() string {
	if m == CursorMode {
		return "cursor"
	}

	return "offset"
}

// PageState is the position of a paginated listing.
type PageState struct {
	Mode    PageMode `json:"mode"               yaml:"mode"`
	Page    int      `json:"page,omitempty"     yaml:"page,omitempty"`
	PerPage int      `json:"per_page,omitempty" yaml:"per_page,omitempty"`
	Cursor  string   `json:"cursor,omitempty"   yaml:"cursor,omitempty"`

	// Offset is the number of items skipped before page 1 in offset mode.
	Offset int `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// OffsetPage returns an offset PageState.
func OffsetPage(page, perPage int) PageState {
	return PageState{Mode: OffsetMode, Page: page, PerPage: perPage}
}

// CursorPage returns a cursor PageState. An empty cursor starts from the beginning.
func CursorPage(cursor string, perPage int) PageState {
	if cursor == "" {
		cursor = CursorStart
	}

	return PageState{Mode: CursorMode, Cursor: cursor, PerPage: perPage}
}

// String implements fmt.Stringer.
func (s PageState) String() string {
	if s.Mode == CursorMode {
		return "cursor=" + s.Cursor
	}

	if s.Offset > 0 {
		return fmt.Sprintf("page=%d per_page=%d offset=%d", s.Page, s.PerPage, s.Offset)
	}

	return fmt.Sprintf("page=%d per_page=%d", s.Page, s.PerPage)
}

// PagedResult is one page of a listing.
type PagedResult[T any] struct {
	Items []T `json:"results" yaml:"results"`

	// TotalResults is the provider reported total, nil when unknown.
	TotalResults *int `json:"total_results,omitempty" yaml:"total_results,omitempty"`

	// Next is the state of the following page, nil when the listing is exhausted.
	Next *PageState `json:"next,omitempty" yaml:"next,omitempty"`

	// Groups holds group_by aggregates when the listing requested them.
	Groups []GroupResult `json:"group_by,omitempty" yaml:"group_by,omitempty"`

	// Meta is the provider's listing metadata, when the provider sends one.
	Meta *ListMeta `json:"meta,omitempty" yaml:"meta,omitempty"`

	// LibraryVersion is Zotero's Last-Modified-Version, zero when not sent.
	LibraryVersion int64 `json:"library_version,omitempty" yaml:"library_version,omitempty"`
}

// Exhausted reports whether no further page follows this one.
func (r *PagedResult[T]) Exhausted() bool {
	return r.Next == nil
}

// ListMeta mirrors the OpenAlex "meta" object.
type ListMeta struct {
	Count            *int    `json:"count,omitempty"               yaml:"count,omitempty"`
	DBResponseTimeMS *int    `json:"db_response_time_ms,omitempty" yaml:"db_response_time_ms,omitempty"`
	Page             *int    `json:"page,omitempty"                yaml:"page,omitempty"`
	PerPage          *int    `json:"per_page,omitempty"            yaml:"per_page,omitempty"`
	NextCursor       *string `json:"next_cursor,omitempty"         yaml:"next_cursor,omitempty"`
	GroupsCount      *int    `json:"groups_count,omitempty"        yaml:"groups_count,omitempty"`
}

// GroupResult is one bucket of a group_by aggregation.
type GroupResult struct {
	Key            string `json:"key"              yaml:"key"`
	KeyDisplayName string `json:"key_display_name" yaml:"key_display_name"`
	Count          int    `json:"count"            yaml:"count"`
}

// AutocompleteResult is one typeahead suggestion.
type AutocompleteResult struct {
	ID           string  `json:"id"                      yaml:"id"`
	DisplayName  string  `json:"display_name"            yaml:"display_name"`
	Hint         *string `json:"hint,omitempty"          yaml:"hint,omitempty"`
	CitedByCount *int64  `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
	WorksCount   *int64  `json:"works_count,omitempty"   yaml:"works_count,omitempty"`
	EntityType   *string `json:"entity_type,omitempty"   yaml:"entity_type,omitempty"`
	ExternalID   *string `json:"external_id,omitempty"   yaml:"external_id,omitempty"`
	Filter       *string `json:"filter_key,omitempty"    yaml:"filter_key,omitempty"`
}

// FindResult is one hit of a semantic work search.
type FindResult struct {
	Score float64 `json:"score" yaml:"score"`
	Work  Work    `json:"work"  yaml:"work"`
}
