package papers

// Capability is a set of operations an endpoint offers.
type Capability uint8

const (
	// CapGet is a single entity lookup by id.
	CapGet Capability = 1 << iota
	// CapList is a filtered, paginated listing.
	CapList
	// CapAutocomplete is a typeahead search.
	CapAutocomplete
	// CapCursor is cursor pagination in addition to offset pagination.
	CapCursor
	// CapFind is semantic search.
	CapFind
)

// Endpoint describes one entity collection of a provider.
type Endpoint struct {
	// Name is the collection path segment, e.g. "works".
	Name string

	// Singular is the short name used by commands and tools, e.g. "work".
	Singular string

	// Description is a one line summary of the entity.
	Description string

	Capabilities Capability

	// MaxPerPage is the largest page size the endpoint accepts.
	MaxPerPage int
}

// Supports reports whether every capability in c is offered.
func (e Endpoint) Supports(c Capability) bool {
	return e.Capabilities&c == c
}

const openAlexBrowse = CapGet | CapList | CapCursor

var openAlexEndpoints = []Endpoint{
	{Name: "works", Singular: "work", Description: "Scholarly works: articles, books, datasets and theses",
		Capabilities: openAlexBrowse | CapAutocomplete | CapFind, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "authors", Singular: "author", Description: "Disambiguated authors",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "sources", Singular: "source", Description: "Journals, repositories and conferences",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "institutions", Singular: "institution", Description: "Universities and research organizations",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "topics", Singular: "topic", Description: "Research topics",
		Capabilities: openAlexBrowse, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "publishers", Singular: "publisher", Description: "Publishing organizations",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "funders", Singular: "funder", Description: "Research funding organizations",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "domains", Singular: "domain", Description: "Top level research domains",
		Capabilities: openAlexBrowse, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "fields", Singular: "field", Description: "Academic fields",
		Capabilities: openAlexBrowse, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "subfields", Singular: "subfield", Description: "Academic subfields",
		Capabilities: openAlexBrowse | CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
	{Name: "concepts", Singular: "concept", Description: "Legacy concept taxonomy (autocomplete only)",
		Capabilities: CapAutocomplete, MaxPerPage: OpenAlexMaxPerPage},
}

// OpenAlexEndpoints returns the OpenAlex entity collections in display order.
func OpenAlexEndpoints() []Endpoint {
	out := make([]Endpoint, len(openAlexEndpoints))
	copy(out, openAlexEndpoints)

	return out
}

// LookupOpenAlexEndpoint finds an OpenAlex endpoint by its plural or singular name.
func LookupOpenAlexEndpoint(name string) (Endpoint, bool) {
	for _, e := range openAlexEndpoints {
		if e.Name == name || e.Singular == name {
			return e, true
		}
	}

	return Endpoint{}, false
}
