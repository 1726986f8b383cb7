package manifest

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/telekom/k8s-dashboard/pkg/clustererr"
)

// Form is decoded request data (JSON objects, arrays, strings, numbers, bools).
type Form map[string]any

func (f Form) String(key, def string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return def
	}
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return def
	}
	return s
}

// Int coerces key to an integer. Absent or empty values yield def.
func (f Form) Int(key string, def int) (int, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return def, nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return def, nil
	}
	return toInt(key, v)
}

func (f Form) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// StringMap accepts a JSON object and stringifies its values. Entries with
// an empty key are dropped.
func (f Form) StringMap(key string) (map[string]string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		if sm, isSM := v.(map[string]string); isSM {
			return sm, nil
		}
		return nil, clustererr.Validation("%s must be an object", key)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = stringify(val)
	}
	return out, nil
}

// Strings accepts a list of scalars or a single whitespace-free string.
func (f Form) Strings(key string) ([]string, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s := stringify(item)
			if s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	return nil, clustererr.Validation("%s must be a list", key)
}

// Items returns a list of sub-forms. Scalar list entries are wrapped under
// scalarKey so shorthand like ports: [80, 443] works.
func (f Form) Items(key, scalarKey string) ([]Form, error) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		if maps, isMaps := v.([]map[string]any); isMaps {
			out := make([]Form, len(maps))
			for i, m := range maps {
				out[i] = Form(m)
			}
			return out, nil
		}
		return nil, clustererr.Validation("%s must be a list", key)
	}
	out := make([]Form, 0, len(list))
	for i, item := range list {
		switch t := item.(type) {
		case map[string]any:
			out = append(out, Form(t))
		case nil:
		default:
			if scalarKey == "" {
				return nil, clustererr.Validation("%s[%d] must be an object", key, i)
			}
			out = append(out, Form{scalarKey: t})
		}
	}
	return out, nil
}

func (f Form) Sub(key string) Form {
	if m, ok := f[key].(map[string]any); ok {
		return Form(m)
	}
	return nil
}

func toInt(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, clustererr.Validation("%s must be an integer, got %v", field, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, clustererr.Validation("%s must be an integer, got %q", field, n.String())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, clustererr.Validation("%s must be an integer, got %q", field, n)
		}
		return i, nil
	}
	return 0, clustererr.Validation("%s must be an integer, got %T", field, v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
