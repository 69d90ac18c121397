package selection

import (
	"regexp"
	"strings"
)

var (
	zoteroKeyPattern  = regexp.MustCompile(`^[A-Z0-9]{8}$`)
	openAlexWorkID    = regexp.MustCompile(`^W\d+$`)
	doiPrefixes       = []string{"https://doi.org/", "http://doi.org/", "doi:"}
	openAlexURLPrefix = "https://openalex.org/"
)

// LooksLikeZoteroKey reports whether input has the shape of an item key.
func LooksLikeZoteroKey(input string) bool {
	return zoteroKeyPattern.MatchString(input)
}

// LooksLikeWorkID reports whether input is an OpenAlex work id, bare or as
// an openalex.org URL.
func LooksLikeWorkID(input string) bool {
	return openAlexWorkID.MatchString(strings.TrimPrefix(input, openAlexURLPrefix))
}

// LooksLikeDOI reports whether input is a DOI, bare or with a doi.org or
// doi: prefix.
func LooksLikeDOI(input string) bool {
	bare := StripDOIPrefix(input)

	return strings.HasPrefix(bare, "10.") && strings.Contains(bare, "/")
}

// StripDOIPrefix removes a doi.org or doi: prefix.
func StripDOIPrefix(doi string) string {
	for _, p := range doiPrefixes {
		if strings.HasPrefix(doi, p) {
			return doi[len(p):]
		}
	}

	return doi
}

func normalizeDOI(doi string) string {
	return strings.ToLower(StripDOIPrefix(doi))
}

// Same reports whether e and other describe the same paper by Zotero key,
// OpenAlex id or DOI.
func (e Entry) Same(other Entry) bool {
	switch {
	case e.ZoteroKey != "" && e.ZoteroKey == other.ZoteroKey:
		return true
	case e.OpenAlexID != "" && e.OpenAlexID == other.OpenAlexID:
		return true
	case e.DOI != "" && other.DOI != "" && normalizeDOI(e.DOI) == normalizeDOI(other.DOI):
		return true
	}

	return false
}

// Matches reports whether a removal input names the entry: a Zotero key,
// an OpenAlex work id, a DOI, or a case-insensitive title substring.
func (e Entry) Matches(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	if LooksLikeZoteroKey(input) && e.ZoteroKey == input {
		return true
	}

	if LooksLikeWorkID(input) && e.OpenAlexID == strings.TrimPrefix(input, openAlexURLPrefix) {
		return true
	}

	if LooksLikeDOI(input) && e.DOI != "" && normalizeDOI(e.DOI) == normalizeDOI(input) {
		return true
	}

	return e.Title != "" && strings.Contains(strings.ToLower(e.Title), strings.ToLower(input))
}
