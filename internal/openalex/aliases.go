package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/papers-cli/papers/internal/client"
	"github.com/papers-cli/papers/pkg/papers"
)

// shortIDPattern matches short OpenAlex ids such as A5023888391, and the
// bare numbers used by domains, fields and subfields.
var shortIDPattern = regexp.MustCompile(`^(?i:[wasiptfc])?\d+$`)

func (e *entityClient[T]) checkAliases(params *papers.ListParams) error {
	for name, value := range params.Aliases {
		alias, ok := e.endpoint.Alias(name)
		if !ok {
			return papers.NewInvalidParams("%s has no %q filter, known filters: %s",
				e.endpoint.Name, name, strings.Join(aliasNames(e.endpoint), ", "))
		}

		if alias.Boolean {
			if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
				return papers.NewInvalidParams("%s filter expects true or false, got %q", name, value)
			}
		}
	}

	return nil
}

func aliasNames(endpoint papers.Endpoint) []string {
	aliases := endpoint.Aliases()
	names := make([]string, 0, len(aliases))

	for _, a := range aliases {
		names = append(names, a.Name)
	}

	return names
}

// resolveAliases expands params.Aliases into raw filter clauses placed
// before params.Filter. Params without aliases are returned as is.
func (e *entityClient[T]) resolveAliases(ctx context.Context, params *papers.ListParams) (*papers.ListParams, error) {
	if params == nil || len(params.Aliases) == 0 {
		return params, nil
	}

	names := make([]string, 0, len(params.Aliases))
	for name := range params.Aliases {
		names = append(names, name)
	}

	sort.Strings(names)

	clauses := make([]string, 0, len(names)+1)

	for _, name := range names {
		alias, _ := e.endpoint.Alias(name)

		value, err := resolveAliasValue(ctx, e.pipeline, alias, params.Aliases[name])
		if err != nil {
			return nil, fmt.Errorf("resolving %s filter: %w", name, err)
		}

		clauses = append(clauses, alias.Filter+":"+value)
	}

	if raw := strings.TrimSpace(params.Filter); raw != "" {
		clauses = append(clauses, raw)
	}

	resolved := *params
	resolved.Aliases = nil
	resolved.Filter = strings.Join(clauses, ",")

	return &resolved, nil
}

func resolveAliasValue(ctx context.Context, pipeline *client.Pipeline, alias papers.FilterAlias, value string) (string, error) {
	value = strings.TrimSpace(value)

	if alias.Boolean {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", papers.NewInvalidParams("expected true or false, got %q", value)
		}

		return strconv.FormatBool(b), nil
	}

	if alias.Entity == "" {
		return value, nil
	}

	parts := strings.Split(value, "|")
	ids := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := resolveEntityID(ctx, pipeline, alias.Entity, part)
		if err != nil {
			return "", err
		}

		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return "", papers.NewInvalidParams("no %s given", alias.Entity)
	}

	sort.Strings(ids)

	return strings.Join(ids, "|"), nil
}

// resolveEntityID returns name unchanged when it already is an OpenAlex id.
// Otherwise the best match of an autocomplete, or of a search on collections
// without autocomplete, is used.
func resolveEntityID(ctx context.Context, pipeline *client.Pipeline, entity, name string) (string, error) {
	if id := NormalizeID(name); shortIDPattern.MatchString(id) {
		return strings.ToUpper(id), nil
	}

	lookup := newEntityClient[json.RawMessage](pipeline, entity)

	if lookup.endpoint.Supports(papers.CapAutocomplete) {
		matches, err := lookup.Autocomplete(ctx, name)
		if err != nil {
			return "", err
		}

		if len(matches) == 0 {
			return "", papers.NewInvalidParams("no %s matches %q", lookup.endpoint.Singular, name)
		}

		return NormalizeID(matches[0].ID), nil
	}

	page, err := lookup.List(ctx, &papers.ListParams{Search: name, PerPage: 1, Select: []string{"id"}})
	if err != nil {
		return "", err
	}

	if len(page.Items) == 0 {
		return "", papers.NewInvalidParams("no %s matches %q", lookup.endpoint.Singular, name)
	}

	var head struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(page.Items[0], &head); err != nil {
		return "", fmt.Errorf("decoding %s match: %w", lookup.endpoint.Singular, err)
	}

	return NormalizeID(head.ID), nil
}
