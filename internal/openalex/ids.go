package openalex

import (
	"regexp"
	"strings"
)

type idPrefix struct {
	prefix string

	// replacement is prepended to the remainder. Empty means the remainder
	// is an OpenAlex path whose last segment is the short id.
	replacement string
}

// urlPrefixes are matched case-insensitively, in order.
var urlPrefixes = []idPrefix{
	{prefix: "https://api.openalex.org/"},
	{prefix: "https://openalex.org/"},
	{prefix: "http://openalex.org/"},
	{prefix: "openalex.org/"},
	{prefix: "https://dx.doi.org/", replacement: "doi:"},
	{prefix: "http://dx.doi.org/", replacement: "doi:"},
	{prefix: "https://doi.org/", replacement: "doi:"},
	{prefix: "http://doi.org/", replacement: "doi:"},
	{prefix: "doi.org/", replacement: "doi:"},
	{prefix: "https://orcid.org/", replacement: "orcid:"},
	{prefix: "http://orcid.org/", replacement: "orcid:"},
	{prefix: "https://ror.org/", replacement: "ror:"},
	{prefix: "http://ror.org/", replacement: "ror:"},
}

// externalPrefixes are identifier namespaces OpenAlex resolves itself.
var externalPrefixes = []string{"doi:", "pmid:", "pmcid:", "mag:", "orcid:", "ror:", "issn:", "wikidata:"}

var bareDOI = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)

// NormalizeID turns an OpenAlex URL, a DOI in any common spelling, or an
// ORCID/ROR URL into the form the entity path accepts. Other values are
// returned trimmed.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	lower := strings.ToLower(id)

	for _, p := range urlPrefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}

		rest := id[len(p.prefix):]

		if p.replacement == "" {
			rest = strings.TrimSuffix(rest, "/")
			if idx := strings.LastIndex(rest, "/"); idx >= 0 {
				rest = rest[idx+1:]
			}
		}

		return p.replacement + rest
	}

	for _, prefix := range externalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return prefix + strings.TrimSpace(id[len(prefix):])
		}
	}

	if bareDOI.MatchString(id) {
		return "doi:" + id
	}

	return id
}
