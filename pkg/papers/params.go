package papers

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Provider limits.
const (
	// OpenAlexMaxPerPage is the largest per-page OpenAlex accepts.
	OpenAlexMaxPerPage = 200

	// OpenAlexDefaultPerPage is the per-page OpenAlex uses when none is sent.
	OpenAlexDefaultPerPage = 25

	// OpenAlexOffsetWindow is the deepest result reachable with page-based paging.
	OpenAlexOffsetWindow = 10000

	// ZoteroMaxLimit is the largest limit Zotero accepts.
	ZoteroMaxLimit = 100

	// ZoteroDefaultLimit is the limit Zotero uses when none is sent.
	ZoteroDefaultLimit = 25

	// FindMaxCount is the largest count the semantic search accepts.
	FindMaxCount = 100

	// FindMaxQueryLength is the longest query the semantic search accepts.
	FindMaxQueryLength = 10000
)

// ListParams are the options of an OpenAlex list request.
type ListParams struct {
	// Search is full-text search across titles, abstracts and full text.
	Search string `json:"search,omitempty" yaml:"search,omitempty"`

	// Filters are structured filter clauses. Clauses are AND-ed and the
	// values of a clause are OR-ed.
	Filters map[string][]string `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Filter is a raw OpenAlex filter expression, appended after Filters.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`

	// Aliases are shorthand filters keyed by FilterAlias name, e.g.
	// {"author": "einstein", "year": ">2008"}. Names are resolved to ids
	// before the request is sent.
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Sort is the field to sort by, e.g. "cited_by_count".
	Sort string `json:"sort,omitempty" yaml:"sort,omitempty"`

	// Descending sorts in descending order. Requires Sort.
	Descending bool `json:"descending,omitempty" yaml:"descending,omitempty"`

	Page    int    `json:"page,omitempty"     yaml:"page,omitempty"     validate:"omitempty,min=1"`
	PerPage int    `json:"per_page,omitempty" yaml:"per_page,omitempty" validate:"omitempty,min=1,max=200"`
	Cursor  string `json:"cursor,omitempty"   yaml:"cursor,omitempty"`

	// Sample returns a random sample of this many results.
	Sample int `json:"sample,omitempty" yaml:"sample,omitempty" validate:"omitempty,min=1,max=10000"`

	// Seed makes Sample reproducible. Only meaningful with Sample.
	Seed *int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Select limits the returned fields.
	Select []string `json:"select,omitempty" yaml:"select,omitempty" validate:"dive,required"`

	// GroupBy aggregates results by a field instead of listing them.
	GroupBy string `json:"group_by,omitempty" yaml:"group_by,omitempty"`
}

// Validate checks ranges and mutually exclusive options.
func (p *ListParams) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}

	if p.Cursor != "" && p.Page != 0 {
		return NewInvalidParams("cursor and page cannot be combined")
	}

	if p.Seed != nil && p.Sample == 0 {
		return NewInvalidParams("seed requires sample")
	}

	if p.Sample != 0 && p.Cursor != "" {
		return NewInvalidParams("sample cannot be combined with cursor pagination")
	}

	if p.Descending && p.Sort == "" {
		return NewInvalidParams("descending requires sort")
	}

	if p.Page > 0 {
		perPage := p.PerPage
		if perPage == 0 {
			perPage = OpenAlexDefaultPerPage
		}

		if p.Page*perPage > OpenAlexOffsetWindow {
			return NewInvalidParams("page %d with per_page %d exceeds the %d result offset window, use cursor pagination",
				p.Page, perPage, OpenAlexOffsetWindow)
		}
	}

	for key, values := range p.Filters {
		if strings.TrimSpace(key) == "" {
			return NewInvalidParams("filter key cannot be empty")
		}

		if len(values) == 0 {
			return NewInvalidParams("filter %q has no values", key)
		}
	}

	for name, value := range p.Aliases {
		if strings.TrimSpace(value) == "" {
			return NewInvalidParams("%s filter has no value", name)
		}
	}

	return nil
}

// GetParams are the options of a single entity lookup.
type GetParams struct {
	// Select limits the returned fields.
	Select []string `json:"select,omitempty" yaml:"select,omitempty" validate:"dive,required"`
}

// Validate checks the select list.
func (p *GetParams) Validate() error {
	return validateStruct(p)
}

// FindParams are the options of a semantic work search.
type FindParams struct {
	Query  string `json:"query"            yaml:"query"            validate:"required,max=10000"`
	Count  int    `json:"count,omitempty"  yaml:"count,omitempty"  validate:"omitempty,min=1,max=100"`
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty"`
}

// Validate checks the query and count.
func (p *FindParams) Validate() error {
	return validateStruct(p)
}

// ZoteroListParams are the options of a Zotero list request.
type ZoteroListParams struct {
	// Search is a quick search over title, creator and year.
	Search string `json:"q,omitempty" yaml:"q,omitempty"`

	// Everything widens Search to all fields including full text.
	Everything bool `json:"everything,omitempty" yaml:"everything,omitempty"`

	// ItemTypes are OR-ed. A leading "-" negates a type.
	ItemTypes []string `json:"item_types,omitempty" yaml:"item_types,omitempty" validate:"dive,required"`

	// Tags are OR-ed. A leading "-" negates a tag.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" validate:"dive,required"`

	// ItemKeys fetches specific items.
	ItemKeys []string `json:"item_keys,omitempty" yaml:"item_keys,omitempty" validate:"max=50,dive,required"`

	// Since only returns objects modified after this library version.
	Since *int64 `json:"since,omitempty" yaml:"since,omitempty" validate:"omitempty,min=0"`

	Sort      string `json:"sort,omitempty"      yaml:"sort,omitempty"`
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,oneof=asc desc"`

	// Limit and Start are Zotero's page size and 0-based offset.
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty" validate:"omitempty,min=1,max=100"`
	Start int `json:"start,omitempty" yaml:"start,omitempty" validate:"omitempty,min=0"`
}

// Validate checks ranges and enumerations.
func (p *ZoteroListParams) Validate() error {
	if err := validateStruct(p); err != nil {
		return err
	}

	if p.Everything && p.Search == "" {
		return NewInvalidParams("everything requires a search query")
	}

	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// validateStruct runs tag validation and maps failures to InvalidParams.
func validateStruct(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Param() != "" {
			return NewInvalidParams("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}

		return NewInvalidParams("%s failed %s", fe.Field(), fe.Tag())
	}

	return &Error{Kind: KindInvalidParams, Err: err}
}
