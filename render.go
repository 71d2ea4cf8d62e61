package gitver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderOptions selects which record fields to display and how.
type RenderOptions struct {
	// Show is "all" or a comma-separated allow-list of field names.
	// Empty means all.
	Show string

	// Format is one of "csv", "json", "env" or "table". Anything
	// else renders as csv.
	Format string

	// JSONPretty indents json output.
	JSONPretty bool

	// CSVHeader prepends a header line of field names to csv output.
	CSVHeader bool

	// EnvPrefix is prepended to every env key, uppercased.
	EnvPrefix string

	// NoQuotes renders string values bare in env output.
	NoQuotes bool
}

// Render produces the requested representation of a completed record.
func Render(ver Version, opts RenderOptions) (string, error) {
	keys, err := selectFields(ver, opts.Show)
	if err != nil {
		return "", err
	}

	switch opts.Format {
	case "json":
		return renderJSON(ver, keys, opts.JSONPretty)
	case "env":
		return renderEnv(ver, keys, opts.EnvPrefix, opts.NoQuotes), nil
	case "table":
		return renderTable(ver, keys), nil
	default:
		return renderCSV(ver, keys, opts.CSVHeader), nil
	}
}

// selectFields validates the allow-list and returns the field names
// to render, in the order requested.
func selectFields(ver Version, show string) ([]string, error) {
	if show == "" || show == "all" {
		return FieldNames, nil
	}

	keys := strings.Split(show, ",")
	for _, key := range keys {
		if _, ok := ver.Field(key); !ok {
			return nil, fmt.Errorf("Field '%s' not found.", key)
		}
	}
	return keys, nil
}

func renderCSV(ver Version, keys []string, header bool) string {
	fields := ver.Fields()

	values := make([]string, 0, len(keys))
	for _, key := range keys {
		value, _ := fields.Get(key)
		if value == nil {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprintf("%v", value))
	}

	var b strings.Builder
	if header {
		b.WriteString(strings.Join(keys, ","))
		b.WriteString("\n")
	}
	b.WriteString(strings.Join(values, ","))
	return b.String()
}

// renderJSON writes the selected fields as a json object, preserving
// the requested field order. Unset fields render as null.
func renderJSON(ver Version, keys []string, pretty bool) (string, error) {
	fields := ver.Fields()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		name, err := json.Marshal(key)
		if err != nil {
			return "", fmt.Errorf("encoding field name %q: %w", key, err)
		}
		value, _ := fields.Get(key)
		encoded, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("encoding field %q: %w", key, err)
		}
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(encoded)
	}
	buf.WriteByte('}')

	if !pretty {
		return buf.String(), nil
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, buf.Bytes(), "", "    "); err != nil {
		return "", fmt.Errorf("indenting json: %w", err)
	}
	return indented.String(), nil
}

// renderEnv writes one PREFIX_NAME=value line per field. Strings are
// double-quoted with embedded quotes escaped unless noQuotes is set;
// numbers render bare and unset fields render as an empty value.
func renderEnv(ver Version, keys []string, prefix string, noQuotes bool) string {
	fields := ver.Fields()

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		value, _ := fields.Get(key)

		rendered := ""
		switch v := value.(type) {
		case nil:
		case string:
			if noQuotes {
				rendered = v
			} else {
				rendered = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
			}
		default:
			rendered = fmt.Sprintf("%v", v)
		}

		lines = append(lines, fmt.Sprintf("%s%s=%s", strings.ToUpper(prefix), strings.ToUpper(key), rendered))
	}
	return strings.Join(lines, "\n")
}

func renderTable(ver Version, keys []string) string {
	fields := ver.Fields()

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, key := range keys {
		value, _ := fields.Get(key)
		if value == nil {
			value = ""
		}
		t.AppendRow(table.Row{key, value})
	}
	return t.Render()
}
