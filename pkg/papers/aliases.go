package papers

// FilterAlias is a shorthand list filter such as "year" for publication_year.
type FilterAlias struct {
	// Name is the parameter name used by commands and tools.
	Name string

	// Filter is the OpenAlex filter key the alias expands to.
	Filter string

	// Entity is the collection whose names resolve to ids, e.g. "authors".
	// Empty means the value is sent as given.
	Entity string

	// Boolean aliases accept true or false.
	Boolean bool

	Description string
}

func valueAlias(name, filter, description string) FilterAlias {
	return FilterAlias{Name: name, Filter: filter, Description: description}
}

func entityAlias(name, filter, entity, description string) FilterAlias {
	return FilterAlias{Name: name, Filter: filter, Entity: entity, Description: description}
}

var (
	citationsAlias = valueAlias("citations", "cited_by_count", "citation count, e.g. >100 or 10-50")
	worksAlias     = valueAlias("works", "works_count", "work count, e.g. >1000")
)

var openAlexAliases = map[string][]FilterAlias{
	"works": {
		entityAlias("author", "authorships.author.id", "authors", "author name or id"),
		entityAlias("topic", "primary_topic.id", "topics", "primary topic name or id"),
		entityAlias("domain", "primary_topic.domain.id", "domains", "domain name or id"),
		entityAlias("field", "primary_topic.field.id", "fields", "field name or id"),
		entityAlias("subfield", "primary_topic.subfield.id", "subfields", "subfield name or id"),
		entityAlias("publisher", "primary_location.source.publisher_lineage", "publishers", "publisher name or id"),
		entityAlias("source", "primary_location.source.id", "sources", "journal or repository name or id"),
		entityAlias("institution", "authorships.institutions.lineage", "institutions", "institution name or id"),
		valueAlias("year", "publication_year", "publication year, e.g. 2024, >2008 or 2008-2024"),
		citationsAlias,
		valueAlias("country", "authorships.institutions.country_code", "ISO country code of an author institution"),
		valueAlias("continent", "authorships.institutions.continent", "continent of an author institution"),
		valueAlias("type", "type", "work type, e.g. article or dataset"),
		{Name: "open", Filter: "is_oa", Boolean: true, Description: "only open access works"},
	},
	"authors": {
		entityAlias("institution", "last_known_institutions.id", "institutions", "institution name or id"),
		valueAlias("country", "last_known_institutions.country_code", "ISO country code of the last known institution"),
		valueAlias("continent", "last_known_institutions.continent", "continent of the last known institution"),
		citationsAlias,
		worksAlias,
		valueAlias("h_index", "summary_stats.h_index", "h-index, e.g. >50"),
	},
	"sources": {
		entityAlias("publisher", "host_organization_lineage", "publishers", "publisher name or id"),
		valueAlias("country", "country_code", "ISO country code"),
		valueAlias("continent", "continent", "continent"),
		valueAlias("type", "type", "source type, e.g. journal or repository"),
		{Name: "open", Filter: "is_oa", Boolean: true, Description: "only fully open access sources"},
		citationsAlias,
		worksAlias,
	},
	"institutions": {
		valueAlias("country", "country_code", "ISO country code"),
		valueAlias("continent", "continent", "continent"),
		valueAlias("type", "type", "institution type, e.g. education or company"),
		citationsAlias,
		worksAlias,
	},
	"topics": {
		entityAlias("domain", "domain.id", "domains", "domain name or id"),
		entityAlias("field", "field.id", "fields", "field name or id"),
		entityAlias("subfield", "subfield.id", "subfields", "subfield name or id"),
		citationsAlias,
		worksAlias,
	},
	"publishers": {
		valueAlias("country", "country_codes", "ISO country code"),
		valueAlias("continent", "continent", "continent"),
		citationsAlias,
		worksAlias,
	},
	"funders": {
		valueAlias("country", "country_code", "ISO country code"),
		valueAlias("continent", "continent", "continent"),
		citationsAlias,
		worksAlias,
	},
	"domains": {
		worksAlias,
	},
	"fields": {
		entityAlias("domain", "domain.id", "domains", "domain name or id"),
		worksAlias,
	},
	"subfields": {
		entityAlias("domain", "domain.id", "domains", "domain name or id"),
		entityAlias("field", "field.id", "fields", "field name or id"),
		worksAlias,
	},
}

// Aliases returns the filter aliases of the endpoint in display order.
func (e Endpoint) Aliases() []FilterAlias {
	aliases := openAlexAliases[e.Name]
	out := make([]FilterAlias, len(aliases))
	copy(out, aliases)

	return out
}

// Alias finds a filter alias of the endpoint by name.
func (e Endpoint) Alias(name string) (FilterAlias, bool) {
	for _, a := range openAlexAliases[e.Name] {
		if a.Name == name {
			return a, true
		}
	}

	return FilterAlias{}, false
}
