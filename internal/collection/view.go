package collection

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// All is the filter value that matches every entity
const All = "all"

// Query describes a derived view over a collection
type Query struct {
	// Search matches case-insensitively against SearchFields.
	Search       string
	SearchFields []string
	// Filters require field == value for every value other than All.
	Filters map[string]string
	// Where is an optional boolean expression over the entity's JSON fields,
	// e.g. `severity in ["critical", "high"] && status != "resolved"`.
	Where  string
	SortBy string
	Desc   bool
	Limit  int
}

// Filter returns the subsequence of items matching q. items is never modified.
func Filter[T any](items []T, q Query) ([]T, error) {
	var predicate func(map[string]interface{}) (bool, error)
	if strings.TrimSpace(q.Where) != "" {
		program, err := expr.Compile(q.Where, expr.AllowUndefinedVariables(), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid where expression: %w", err)
		}
		predicate = func(env map[string]interface{}) (bool, error) {
			out, err := expr.Run(program, env)
			if err != nil {
				return false, err
			}
			b, ok := out.(bool)
			if !ok {
				return false, fmt.Errorf("where expression returned %T, want bool", out)
			}
			return b, nil
		}
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))

	type row struct {
		item   T
		fields map[string]interface{}
	}
	rows := make([]row, 0, len(items))
	for _, item := range items {
		fields, err := fieldsOf(item)
		if err != nil {
			return nil, err
		}
		if !matchFilters(fields, q.Filters) {
			continue
		}
		if search != "" && !matchSearch(fields, q.SearchFields, search) {
			continue
		}
		if predicate != nil {
			ok, err := predicate(fields)
			if err != nil {
				return nil, fmt.Errorf("evaluating where expression: %w", err)
			}
			if !ok {
				continue
			}
		}
		rows = append(rows, row{item: item, fields: fields})
	}

	if q.SortBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			c := compareValues(rows[i].fields[q.SortBy], rows[j].fields[q.SortBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out, nil
}

func fieldsOf(item interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encoding entity: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("entity is not a JSON object: %w", err)
	}
	return fields, nil
}

func matchFilters(fields map[string]interface{}, filters map[string]string) bool {
	for field, want := range filters {
		if want == "" || want == All {
			continue
		}
		if formatValue(fields[field]) != want {
			return false
		}
	}
	return true
}

func matchSearch(fields map[string]interface{}, searchFields []string, term string) bool {
	for _, name := range searchFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(formatValue(v)), term) {
			return true
		}
	}
	return false
}

// formatValue renders a decoded JSON value the way a user would type it
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func compareValues(a, b interface{}) int {
	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	// nil sorts first
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(strings.ToLower(formatValue(a)), strings.ToLower(formatValue(b)))
}
