package translate

import (
	"fmt"
	"strings"

	"gql2sql/internal/translate/sqlast"
)

// compileOrder renders the order argument, an object or list of objects
// mapping column name to ASC/DESC, into an ORDER BY column list. Object
// field order and list order are both preserved exactly as declared. Column
// references render bare: order always applies to the base source's own
// single-table scope.
func compileOrder(value interface{}) (string, error) {
	entries, err := orderEntries(value)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		dir, err := orderDirection(e.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s %s", sqlast.Ident(e.Key).Render(), dir))
	}
	return strings.Join(parts, ", "), nil
}

func orderEntries(value interface{}) ([]orderedField, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case orderedObject:
		return []orderedField(v), nil
	case []interface{}:
		var out []orderedField
		for _, item := range v {
			obj, ok := item.(orderedObject)
			if !ok {
				return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "order list items must be objects"}
			}
			out = append(out, []orderedField(obj)...)
		}
		return out, nil
	default:
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "order must be an object or a list of objects"}
	}
}

func orderDirection(value interface{}) (string, error) {
	switch v := value.(type) {
	case EnumLiteral:
		return normalizeDirection(string(v))
	case string:
		return normalizeDirection(v)
	default:
		return "", &TranslateError{Kind: InvalidArgumentShape, Message: "order direction must be ASC or DESC"}
	}
}

func normalizeDirection(raw string) (string, error) {
	upper := strings.ToUpper(raw)
	if upper != "ASC" && upper != "DESC" {
		return "", &TranslateError{Kind: InvalidArgumentShape, Message: fmt.Sprintf("invalid order direction %q", raw)}
	}
	return upper, nil
}

// distinctPlan is the resolved ORDER BY/DISTINCT ON pair a distinct argument
// compiles to.
type distinctPlan struct {
	OnColumns []string
	OrderBy   string
}

// compileDistinct renders a distinct argument, {on: [String], order:
// [{expr: <filter-like>, dir: DIR}]}, into the DISTINCT ON column list and
// the ORDER BY the base source needs to make DISTINCT ON deterministic: the
// "on" columns lead (defaulting to ASC), followed by any custom order
// expressions. Every column reference renders bare, matching the base
// source's single-table scope.
func compileDistinct(value interface{}, variables map[string]interface{}, params *ParamTable, path []string) (*distinctPlan, error) {
	m, ok := asMap(value)
	if !ok {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct must be an object", Path: path}
	}

	onRaw, ok := m["on"]
	if !ok {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct.on is required", Path: path}
	}
	onList, ok := onRaw.([]interface{})
	if !ok {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct.on must be a list of column names", Path: path}
	}
	onColumns := make([]string, 0, len(onList))
	for _, item := range onList {
		col, ok := item.(string)
		if !ok {
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct.on entries must be strings", Path: path}
		}
		onColumns = append(onColumns, col)
	}

	parts := make([]string, 0, len(onColumns))
	for _, col := range onColumns {
		parts = append(parts, fmt.Sprintf("%s ASC", sqlast.Ident(col).Render()))
	}

	if orderRaw, ok := m["order"]; ok {
		orderList, ok := orderRaw.([]interface{})
		if !ok {
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct.order must be a list", Path: path}
		}
		for _, item := range orderList {
			entry, ok := asMap(item)
			if !ok {
				return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "distinct.order items must be objects", Path: path}
			}
			exprSQL, err := compileFilter(entry["expr"], variables, params, path)
			if err != nil {
				return nil, err
			}
			dir, err := orderDirection(entry["dir"])
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("%s %s", exprSQL, dir))
		}
	}

	return &distinctPlan{OnColumns: onColumns, OrderBy: strings.Join(parts, ", ")}, nil
}
