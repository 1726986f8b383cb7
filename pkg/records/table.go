package records

import (
	"fmt"
	"strings"
)

// Record is one listed resource: column name to string or integer value.
type Record map[string]any

// ParseTable converts whitespace-aligned kubectl output into records.
// The first non-empty line is the header. Column names have '-' replaced by '_'
// and any name containing "PORT" is folded to "PORTS". Rows with fewer fields
// than the header simply omit the trailing columns. On rows with more fields
// than the header, a parenthesized group such as "3 (5m ago)" in RESTARTS is
// kept together with the value before it.
func ParseTable(raw string) []Record {
	out := []Record{}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var header []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if header == nil {
			header = make([]string, len(fields))
			for i, f := range fields {
				header[i] = NormalizeColumn(f)
			}
			continue
		}
		if len(fields) > len(header) {
			fields = joinParenthesized(fields)
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i >= len(fields) {
				break
			}
			rec[col] = fields[i]
		}
		out = append(out, rec)
	}
	return out
}

func joinParenthesized(fields []string) []string {
	out := make([]string, 0, len(fields))
	open := false
	for _, f := range fields {
		switch {
		case open:
			out[len(out)-1] += " " + f
		case strings.HasPrefix(f, "(") && len(out) > 0:
			out[len(out)-1] += " " + f
			open = true
		default:
			out = append(out, f)
			continue
		}
		if strings.HasSuffix(f, ")") {
			open = false
		}
	}
	return out
}

// NormalizeColumn maps a kubectl column header to its record key.
func NormalizeColumn(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	if strings.Contains(name, "PORT") {
		return "PORTS"
	}
	return name
}

// String returns the value of key rendered as a string, or "" when absent.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
