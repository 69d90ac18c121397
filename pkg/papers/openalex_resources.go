package papers

// DehydratedEntity is the short form OpenAlex embeds inside other entities.
type DehydratedEntity struct {
	ID          string  `json:"id"                     yaml:"id"`
	DisplayName *string `json:"display_name,omitempty" yaml:"display_name,omitempty"`

	// ISSN is set on dehydrated sources.
	ISSN []string `json:"issn,omitempty" yaml:"issn,omitempty"`
}

// Work is a scholarly document: article, book, dataset or thesis.
type Work struct {
	ID                  string            `json:"id"                              yaml:"id"`
	DOI                 *string           `json:"doi,omitempty"                   yaml:"doi,omitempty"`
	Title               *string           `json:"title,omitempty"                 yaml:"title,omitempty"`
	DisplayName         *string           `json:"display_name,omitempty"          yaml:"display_name,omitempty"`
	PublicationYear     *int              `json:"publication_year,omitempty"      yaml:"publication_year,omitempty"`
	PublicationDate     *string           `json:"publication_date,omitempty"      yaml:"publication_date,omitempty"`
	Type                *string           `json:"type,omitempty"                  yaml:"type,omitempty"`
	Language            *string           `json:"language,omitempty"              yaml:"language,omitempty"`
	CitedByCount        *int64            `json:"cited_by_count,omitempty"        yaml:"cited_by_count,omitempty"`
	IsRetracted         *bool             `json:"is_retracted,omitempty"          yaml:"is_retracted,omitempty"`
	Authorships         []Authorship      `json:"authorships,omitempty"           yaml:"authorships,omitempty"`
	PrimaryLocation     *Location         `json:"primary_location,omitempty"      yaml:"primary_location,omitempty"`
	OpenAccess          *OpenAccess       `json:"open_access,omitempty"           yaml:"open_access,omitempty"`
	PrimaryTopic        *DehydratedEntity `json:"primary_topic,omitempty"         yaml:"primary_topic,omitempty"`
	ReferencedWorks     []string          `json:"referenced_works,omitempty"      yaml:"referenced_works,omitempty"`
	AbstractInvertedIdx map[string][]int  `json:"abstract_inverted_index,omitempty" yaml:"-"`
	UpdatedDate         *string           `json:"updated_date,omitempty"          yaml:"updated_date,omitempty"`
}

// Authorship links a work to one of its authors.
type Authorship struct {
	AuthorPosition *string            `json:"author_position,omitempty" yaml:"author_position,omitempty"`
	Author         *DehydratedEntity  `json:"author,omitempty"          yaml:"author,omitempty"`
	Institutions   []DehydratedEntity `json:"institutions,omitempty"    yaml:"institutions,omitempty"`
}

// Location is where a work is hosted.
type Location struct {
	IsOA           *bool             `json:"is_oa,omitempty"            yaml:"is_oa,omitempty"`
	LandingPageURL *string           `json:"landing_page_url,omitempty" yaml:"landing_page_url,omitempty"`
	PDFURL         *string           `json:"pdf_url,omitempty"          yaml:"pdf_url,omitempty"`
	Source         *DehydratedEntity `json:"source,omitempty"           yaml:"source,omitempty"`
}

// OpenAccess is the open access status of a work.
type OpenAccess struct {
	IsOA     *bool   `json:"is_oa,omitempty"     yaml:"is_oa,omitempty"`
	OAStatus *string `json:"oa_status,omitempty" yaml:"oa_status,omitempty"`
	OAURL    *string `json:"oa_url,omitempty"    yaml:"oa_url,omitempty"`
}

// Author is a disambiguated person.
type Author struct {
	ID                      string             `json:"id"                                  yaml:"id"`
	ORCID                   *string            `json:"orcid,omitempty"                     yaml:"orcid,omitempty"`
	DisplayName             *string            `json:"display_name,omitempty"              yaml:"display_name,omitempty"`
	WorksCount              *int64             `json:"works_count,omitempty"               yaml:"works_count,omitempty"`
	CitedByCount            *int64             `json:"cited_by_count,omitempty"            yaml:"cited_by_count,omitempty"`
	LastKnownInstitutions   []DehydratedEntity `json:"last_known_institutions,omitempty"   yaml:"last_known_institutions,omitempty"`
	DisplayNameAlternatives []string           `json:"display_name_alternatives,omitempty" yaml:"display_name_alternatives,omitempty"`
	UpdatedDate             *string            `json:"updated_date,omitempty"              yaml:"updated_date,omitempty"`
}

// Source is a journal, repository, conference or other venue.
type Source struct {
	ID           string             `json:"id"                       yaml:"id"`
	DisplayName  *string            `json:"display_name,omitempty"   yaml:"display_name,omitempty"`
	ISSNL        *string            `json:"issn_l,omitempty"         yaml:"issn_l,omitempty"`
	ISSN         []string           `json:"issn,omitempty"           yaml:"issn,omitempty"`
	Type         *string            `json:"type,omitempty"           yaml:"type,omitempty"`
	IsOA         *bool              `json:"is_oa,omitempty"          yaml:"is_oa,omitempty"`
	HostOrg      *string            `json:"host_organization_name,omitempty" yaml:"host_organization_name,omitempty"`
	WorksCount   *int64             `json:"works_count,omitempty"    yaml:"works_count,omitempty"`
	CitedByCount *int64             `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
	Topics       []DehydratedEntity `json:"topics,omitempty"         yaml:"topics,omitempty"`
}

// Institution is a university, company or other research organization.
type Institution struct {
	ID           string  `json:"id"                       yaml:"id"`
	ROR          *string `json:"ror,omitempty"            yaml:"ror,omitempty"`
	DisplayName  *string `json:"display_name,omitempty"   yaml:"display_name,omitempty"`
	CountryCode  *string `json:"country_code,omitempty"   yaml:"country_code,omitempty"`
	Type         *string `json:"type,omitempty"           yaml:"type,omitempty"`
	HomepageURL  *string `json:"homepage_url,omitempty"   yaml:"homepage_url,omitempty"`
	WorksCount   *int64  `json:"works_count,omitempty"    yaml:"works_count,omitempty"`
	CitedByCount *int64  `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
}

// Topic is the finest level of the domain > field > subfield > topic hierarchy.
type Topic struct {
	ID          string            `json:"id"                     yaml:"id"`
	DisplayName *string           `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Description *string           `json:"description,omitempty"  yaml:"description,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"     yaml:"keywords,omitempty"`
	Subfield    *DehydratedEntity `json:"subfield,omitempty"     yaml:"subfield,omitempty"`
	Field       *DehydratedEntity `json:"field,omitempty"        yaml:"field,omitempty"`
	Domain      *DehydratedEntity `json:"domain,omitempty"       yaml:"domain,omitempty"`
	WorksCount  *int64            `json:"works_count,omitempty"  yaml:"works_count,omitempty"`
}

// Publisher is a company or organization that publishes sources.
type Publisher struct {
	ID             string   `json:"id"                        yaml:"id"`
	DisplayName    *string  `json:"display_name,omitempty"    yaml:"display_name,omitempty"`
	HierarchyLevel *int     `json:"hierarchy_level,omitempty" yaml:"hierarchy_level,omitempty"`
	CountryCodes   []string `json:"country_codes,omitempty"   yaml:"country_codes,omitempty"`
	WorksCount     *int64   `json:"works_count,omitempty"     yaml:"works_count,omitempty"`
	CitedByCount   *int64   `json:"cited_by_count,omitempty"  yaml:"cited_by_count,omitempty"`
}

// Funder is an organization that funds research.
type Funder struct {
	ID           string  `json:"id"                       yaml:"id"`
	DisplayName  *string `json:"display_name,omitempty"   yaml:"display_name,omitempty"`
	CountryCode  *string `json:"country_code,omitempty"   yaml:"country_code,omitempty"`
	Description  *string `json:"description,omitempty"    yaml:"description,omitempty"`
	GrantsCount  *int64  `json:"grants_count,omitempty"   yaml:"grants_count,omitempty"`
	WorksCount   *int64  `json:"works_count,omitempty"    yaml:"works_count,omitempty"`
	CitedByCount *int64  `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
}

// HierarchyEntity is one of the domain, field or subfield levels of the topic tree.
type HierarchyEntity struct {
	ID                      string             `json:"id"                                  yaml:"id"`
	DisplayName             *string            `json:"display_name,omitempty"              yaml:"display_name,omitempty"`
	Description             *string            `json:"description,omitempty"               yaml:"description,omitempty"`
	DisplayNameAlternatives []string           `json:"display_name_alternatives,omitempty" yaml:"display_name_alternatives,omitempty"`
	Domain                  *DehydratedEntity  `json:"domain,omitempty"                    yaml:"domain,omitempty"`
	Field                   *DehydratedEntity  `json:"field,omitempty"                     yaml:"field,omitempty"`
	Fields                  []DehydratedEntity `json:"fields,omitempty"                    yaml:"fields,omitempty"`
	Subfields               []DehydratedEntity `json:"subfields,omitempty"                 yaml:"subfields,omitempty"`
	Topics                  []DehydratedEntity `json:"topics,omitempty"                    yaml:"topics,omitempty"`
	Siblings                []DehydratedEntity `json:"siblings,omitempty"                  yaml:"siblings,omitempty"`
	WorksCount              *int64             `json:"works_count,omitempty"               yaml:"works_count,omitempty"`
	CitedByCount            *int64             `json:"cited_by_count,omitempty"            yaml:"cited_by_count,omitempty"`
	UpdatedDate             *string            `json:"updated_date,omitempty"              yaml:"updated_date,omitempty"`
}

// Domain is the broadest level of the topic hierarchy.
type Domain = HierarchyEntity

// Field sits between domain and subfield.
type Field = HierarchyEntity

// Subfield sits between field and topic.
type Subfield = HierarchyEntity

// Concept is the legacy, deprecated taxonomy. OpenAlex still serves it for autocomplete.
type Concept struct {
	ID          string  `json:"id"                     yaml:"id"`
	DisplayName *string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Level       *int    `json:"level,omitempty"        yaml:"level,omitempty"`
	WorksCount  *int64  `json:"works_count,omitempty"  yaml:"works_count,omitempty"`
}
