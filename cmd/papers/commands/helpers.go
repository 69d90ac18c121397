package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/papers-cli/papers/internal/constants"
)

// stdout is where command output goes. Tests replace it.
var stdout io.Writer = os.Stdout

// outputFormat returns the configured output format. Without one, a terminal
// gets a table and anything else gets JSON.
func outputFormat() (string, error) {
	format := strings.ToLower(viper.GetString("output"))
	if format == "" {
		if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	}

	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutput, format)
	}
}

// render writes v as JSON or YAML, or calls table for table output.
func render(v interface{}, table func(*tablewriter.Table) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(v)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(stdout)

		return encoder.Encode(toYAMLValue(v))
	default:
		t := tablewriter.NewWriter(stdout)
		if err := table(t); err != nil {
			return err
		}

		if err := t.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// toYAMLValue routes values through JSON so json.RawMessage and json tags
// render as YAML maps rather than byte slices.
func toYAMLValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}

	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}

	return out
}

// decodeObject decodes a raw entity into a field map. Invalid JSON gives nil.
func decodeObject(raw json.RawMessage) map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	return obj
}

// field formats a top-level entity field for a table cell.
func field(obj map[string]interface{}, names ...string) string {
	for _, name := range names {
		v, ok := obj[name]
		if !ok || v == nil {
			continue
		}

		return formatValue(v)
	}

	return constants.NotAvailable
}

func formatValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(data)
	}
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	if n <= 3 {
		return string(r[:n])
	}

	return string(r[:n-3]) + "..."
}

func deref(s *string) string {
	if s == nil {
		return constants.NotAvailable
	}

	return *s
}

func derefInt(n *int) string {
	if n == nil {
		return constants.NotAvailable
	}

	return strconv.Itoa(*n)
}

func derefInt64(n *int64) string {
	if n == nil {
		return constants.NotAvailable
	}

	return strconv.FormatInt(*n, 10)
}

// splitCSV splits a comma-separated flag value, dropping empty parts.
func splitCSV(value string) []string {
	var out []string

	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
