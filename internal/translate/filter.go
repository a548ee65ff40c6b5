package translate

import (
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"gql2sql/internal/translate/sqlast"
)

// filterOperators maps a sugared-filter operator name to its SQL infix.
// in/nin/is_null have their own rendering and are handled separately.
var filterOperators = map[string]string{
	"eq":    "=",
	"neq":   "<>",
	"lt":    "<",
	"lte":   "<=",
	"gt":    ">",
	"gte":   ">=",
	"like":  "LIKE",
	"ilike": "ILIKE",
}

// compileFilter lowers a filter argument, in either its canonical
// {field,operator,value,logicalOperator,children} shape or its sugared
// {column: {operator: value}, and: [...], or: [...], not: {...}} shape,
// into a single boolean SQL expression. Every column reference renders
// bare: a filter always lives inside the base source's own single-table
// SELECT * scope, where no qualification is needed to avoid a collision. A
// nil or empty filter compiles to the empty string (no predicate).
func compileFilter(value interface{}, variables map[string]interface{}, params *ParamTable, path []string) (string, error) {
	if value == nil {
		return "", nil
	}
	m, ok := asMap(value)
	if !ok {
		return "", &TranslateError{Kind: InvalidArgumentShape, Message: "filter must be an object", Path: path}
	}
	if len(m) == 0 {
		return "", nil
	}
	expr, err := compileFilterNode(m, variables, params, path)
	if err != nil {
		return "", err
	}
	if expr == nil {
		return "", nil
	}
	sql, _, err := expr.ToSql()
	return sql, err
}

func compileFilterNode(m map[string]interface{}, variables map[string]interface{}, params *ParamTable, path []string) (sq.Sqlizer, error) {
	if isCanonicalFilter(m) {
		return compileCanonical(m, variables, params, path)
	}
	return compileSugared(m, variables, params, path)
}

func isCanonicalFilter(m map[string]interface{}) bool {
	_, hasField := m["field"]
	_, hasOperator := m["operator"]
	_, hasChildren := m["children"]
	_, hasLogical := m["logicalOperator"]
	return hasField || hasOperator || hasChildren || hasLogical
}

// asFilterList type-asserts a list-shaped argument (children/and/or) into
// its object-map elements.
func asFilterList(raw interface{}, what string, path []string) ([]map[string]interface{}, error) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: what + " must be a list", Path: path}
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		m, ok := asMap(item)
		if !ok {
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: what + " items must be objects", Path: path}
		}
		out = append(out, m)
	}
	return out, nil
}

func compileCanonical(m map[string]interface{}, variables map[string]interface{}, params *ParamTable, path []string) (sq.Sqlizer, error) {
	var children []sq.Sqlizer

	if _, hasField := m["field"]; hasField {
		fieldName, _ := m["field"].(string)
		operator, _ := m["operator"].(string)
		own, err := compileComparison(fieldName, operator, m["value"], variables, params, path)
		if err != nil {
			return nil, err
		}
		children = append(children, own)
	}

	if rawChildren, ok := m["children"]; ok {
		list, err := asFilterList(rawChildren, "children", path)
		if err != nil {
			return nil, err
		}
		for _, childMap := range list {
			child, err := compileFilterNode(childMap, variables, params, path)
			if err != nil {
				return nil, err
			}
			if child != nil {
				children = append(children, child)
			}
		}
	}

	switch len(children) {
	case 0:
		return nil, nil
	case 1:
		return children[0], nil
	}

	logical, _ := m["logicalOperator"].(string)
	if strings.EqualFold(logical, "OR") {
		return sq.Or(children), nil
	}
	return sq.And(children), nil
}

func compileSugared(m map[string]interface{}, variables map[string]interface{}, params *ParamTable, path []string) (sq.Sqlizer, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conditions []sq.Sqlizer
	for _, key := range keys {
		value := m[key]
		switch key {
		case "and":
			list, err := asFilterList(value, "and", path)
			if err != nil {
				return nil, err
			}
			sub, err := compileFilterList(list, variables, params, path)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				conditions = append(conditions, sq.And(sub))
			}
		case "or":
			list, err := asFilterList(value, "or", path)
			if err != nil {
				return nil, err
			}
			sub, err := compileFilterList(list, variables, params, path)
			if err != nil {
				return nil, err
			}
			if len(sub) > 0 {
				conditions = append(conditions, sq.Or(sub))
			}
		case "not":
			itemMap, ok := asMap(value)
			if !ok {
				return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "not must be an object", Path: path}
			}
			cond, err := compileFilterNode(itemMap, variables, params, path)
			if err != nil {
				return nil, err
			}
			if cond != nil {
				sql, args, err := cond.ToSql()
				if err != nil {
					return nil, err
				}
				conditions = append(conditions, sq.Expr(fmt.Sprintf("NOT (%s)", sql), args...))
			}
		default:
			opMap, ok := asMap(value)
			if !ok {
				return nil, &TranslateError{Kind: InvalidArgumentShape, Message: fmt.Sprintf("filter for %q must be an object", key), Path: path}
			}
			opKeys := make([]string, 0, len(opMap))
			for k := range opMap {
				opKeys = append(opKeys, k)
			}
			sort.Strings(opKeys)
			for _, op := range opKeys {
				cond, err := compileComparison(key, op, opMap[op], variables, params, path)
				if err != nil {
					return nil, err
				}
				conditions = append(conditions, cond)
			}
		}
	}

	switch len(conditions) {
	case 0:
		return nil, nil
	case 1:
		return conditions[0], nil
	default:
		return sq.And(conditions), nil
	}
}

func compileFilterList(list []map[string]interface{}, variables map[string]interface{}, params *ParamTable, path []string) ([]sq.Sqlizer, error) {
	var out []sq.Sqlizer
	for _, m := range list {
		cond, err := compileFilterNode(m, variables, params, path)
		if err != nil {
			return nil, err
		}
		if cond != nil {
			out = append(out, cond)
		}
	}
	return out, nil
}

func compileComparison(column, operator string, value interface{}, variables map[string]interface{}, params *ParamTable, path []string) (sq.Sqlizer, error) {
	quotedColumn := sqlast.Ident(column).Render()

	switch operator {
	case "is_null":
		isNull, ok := value.(bool)
		if !ok {
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: "is_null requires a boolean value", Path: path}
		}
		if isNull {
			return sq.Expr(fmt.Sprintf("%s IS NULL", quotedColumn)), nil
		}
		return sq.Expr(fmt.Sprintf("%s IS NOT NULL", quotedColumn)), nil

	case "in", "nin":
		list, ok := value.([]interface{})
		if !ok {
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: operator + " requires a list value", Path: path}
		}
		rendered, err := LowerValue(list, variables, params)
		if err != nil {
			return nil, err
		}
		verb := "IN"
		if operator == "nin" {
			verb = "NOT IN"
		}
		return sq.Expr(fmt.Sprintf("%s %s %s", quotedColumn, verb, rendered)), nil
	}

	sqlOp, ok := filterOperators[operator]
	if !ok {
		return nil, &TranslateError{Kind: UnknownOperator, Message: fmt.Sprintf("unknown filter operator %q", operator), Path: path}
	}
	rendered, err := LowerValue(value, variables, params)
	if err != nil {
		return nil, err
	}
	return sq.Expr(fmt.Sprintf("%s %s %s", quotedColumn, sqlOp, rendered)), nil
}
