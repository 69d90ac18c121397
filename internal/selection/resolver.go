package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/pkg/papers"
)

// Resolver turns a paper reference into an Entry using OpenAlex and, when
// configured, the Zotero library.
type Resolver struct {
	openalex papers.OpenAlexClient
	zotero   papers.ZoteroClient
	logger   papers.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithZotero matches papers against a Zotero library.
func WithZotero(z papers.ZoteroClient) ResolverOption {
	return func(r *Resolver) {
		r.zotero = z
	}
}

// WithLogger logs lookups that fail without stopping resolution.
func WithLogger(logger papers.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver backed by an OpenAlex client.
func NewResolver(oa papers.OpenAlexClient, opts ...ResolverOption) *Resolver {
	r := &Resolver{openalex: oa}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve accepts a Zotero key, a DOI, an OpenAlex work id or a title. The
// Zotero library is searched first, then OpenAlex; metadata from both is
// merged with the Zotero values taking precedence. A failed lookup is a
// miss, and an error is returned only when nothing was found.
func (r *Resolver) Resolve(ctx context.Context, input string) (Entry, error) {
	input = strings.TrimSpace(input)

	var entry Entry

	isKey := LooksLikeZoteroKey(input)
	isDOI := LooksLikeDOI(input)
	isWork := LooksLikeWorkID(input)

	if r.zotero != nil {
		var item *papers.ZoteroItem

		switch {
		case isKey:
			item = r.zoteroItem(ctx, input)
		case isDOI:
			item = r.zoteroSearch(ctx, StripDOIPrefix(input), true, false)
		case !isWork:
			item = r.zoteroSearch(ctx, input, false, true)
		}

		if item != nil {
			fillFromZotero(&entry, item)
		}
	}

	if work := r.openAlexWork(ctx, input, isDOI, isWork); work != nil {
		fillFromOpenAlex(&entry, work)

		if entry.ZoteroKey == "" && entry.DOI != "" && r.zotero != nil {
			if item := r.zoteroSearch(ctx, entry.DOI, true, false); item != nil {
				entry.ZoteroKey = item.Key
				if len(entry.ISBN) == 0 {
					entry.ISBN = extraStrings(item.Data, "ISBN")
				}
			}
		}
	}

	if entry.ZoteroKey == "" && entry.OpenAlexID == "" && entry.DOI == "" && entry.Title == "" {
		return Entry{}, fmt.Errorf("%w: %q", constants.ErrCannotResolvePaper, input)
	}

	return entry, nil
}

func (r *Resolver) miss(source, input string, err error) {
	if r.logger == nil || papers.IsNotFound(err) {
		return
	}

	r.logger.Warn("paper lookup failed", map[string]interface{}{
		"source": source,
		"input":  input,
		"error":  err.Error(),
	})
}

func (r *Resolver) zoteroItem(ctx context.Context, key string) *papers.ZoteroItem {
	item, err := r.zotero.Items().Get(ctx, key)
	if err != nil {
		r.miss("zotero", key, err)

		return nil
	}

	return item
}

// zoteroSearch returns the first top-level match. With unique set a title
// search only counts when it has exactly one result.
func (r *Resolver) zoteroSearch(ctx context.Context, q string, everything, unique bool) *papers.ZoteroItem {
	limit := 1
	if unique {
		limit = 2
	}

	page, err := r.zotero.Items().Top(ctx, &papers.ZoteroListParams{Search: q, Everything: everything, Limit: limit})
	if err != nil {
		r.miss("zotero", q, err)

		return nil
	}

	if len(page.Items) == 0 || (unique && len(page.Items) != 1) {
		return nil
	}

	return &page.Items[0]
}

func (r *Resolver) openAlexWork(ctx context.Context, input string, isDOI, isWork bool) *papers.Work {
	if isDOI || isWork {
		id := strings.TrimPrefix(input, openAlexURLPrefix)
		if isDOI {
			id = "doi:" + StripDOIPrefix(input)
		}

		work, err := r.openalex.Works().Get(ctx, id, nil)
		if err != nil {
			r.miss("openalex", input, err)

			return nil
		}

		return work
	}

	page, err := r.openalex.Works().List(ctx, &papers.ListParams{Search: input, PerPage: 1})
	if err != nil {
		r.miss("openalex", input, err)

		return nil
	}

	if len(page.Items) == 0 {
		return nil
	}

	return &page.Items[0]
}

func fillFromZotero(entry *Entry, item *papers.ZoteroItem) {
	entry.ZoteroKey = item.Key

	if entry.Title == "" && item.Data.Title != nil {
		entry.Title = *item.Data.Title
	}

	if len(entry.Authors) == 0 {
		entry.Authors = creatorNames(item.Data.Creators)
	}

	if entry.Year == 0 {
		date := item.Meta.ParsedDate
		if date == nil {
			date = item.Data.Date
		}

		if date != nil {
			entry.Year, _ = strconv.Atoi(strings.SplitN(*date, "-", 2)[0])
		}
	}

	if entry.DOI == "" && item.Data.DOI != nil {
		entry.DOI = StripDOIPrefix(*item.Data.DOI)
	}

	if len(entry.ISSN) == 0 {
		entry.ISSN = extraStrings(item.Data, "ISSN")
	}

	if len(entry.ISBN) == 0 {
		entry.ISBN = extraStrings(item.Data, "ISBN")
	}
}

func creatorNames(creators []papers.ZoteroCreator) []string {
	var names []string

	for _, c := range creators {
		if c.FirstName != nil && c.LastName != nil {
			if name := strings.TrimSpace(*c.FirstName + " " + *c.LastName); name != "" {
				names = append(names, name)

				continue
			}
		}

		if c.Name != nil && *c.Name != "" {
			names = append(names, *c.Name)
		}
	}

	return names
}

// extraStrings reads a string field Zotero sends outside the mapped ones.
func extraStrings(data papers.ZoteroItemData, field string) []string {
	raw, ok := data.Extra[field]
	if !ok {
		return nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil || value == "" {
		return nil
	}

	return []string{value}
}

func fillFromOpenAlex(entry *Entry, work *papers.Work) {
	if entry.OpenAlexID == "" {
		entry.OpenAlexID = strings.TrimPrefix(work.ID, openAlexURLPrefix)
	}

	if entry.DOI == "" && work.DOI != nil {
		entry.DOI = StripDOIPrefix(*work.DOI)
	}

	if entry.Title == "" {
		switch {
		case work.DisplayName != nil:
			entry.Title = *work.DisplayName
		case work.Title != nil:
			entry.Title = *work.Title
		}
	}

	if len(entry.Authors) == 0 {
		for _, a := range work.Authorships {
			if a.Author != nil && a.Author.DisplayName != nil {
				entry.Authors = append(entry.Authors, *a.Author.DisplayName)
			}
		}
	}

	if entry.Year == 0 && work.PublicationYear != nil {
		entry.Year = *work.PublicationYear
	}

	if len(entry.ISSN) == 0 && work.PrimaryLocation != nil && work.PrimaryLocation.Source != nil {
		entry.ISSN = work.PrimaryLocation.Source.ISSN
	}
}
