package translate

import (
	"fmt"

	"github.com/graphql-go/graphql/language/ast"

	"gql2sql/internal/translate/sqlast"
)

// aggregateFunctions maps an aggregate field name to its SQL function.
// count has no entry: it always renders COUNT(*).
var aggregateFunctions = map[string]string{
	"min": "MIN",
	"max": "MAX",
	"avg": "AVG",
	"sum": "SUM",
}

// lowerAggregate implements the _aggregate naming convention: a field whose
// name ends in _aggregate gets the same base source a non-aggregate sibling
// would, but its selections are restricted to count/min/max/avg/sum and its
// result is a standalone json_build_object scalar — no array wrap, no
// LATERAL join of its own children back to a row.
func lowerAggregate(ctx *lowerCtx, plan *fieldPlan) (string, error) {
	plan.single = false
	baseSource, err := buildBaseSource(ctx, plan)
	if err != nil {
		return "", err
	}

	pairs, err := aggregatePairs(plan.selections, ctx.fragments, plan.path)
	if err != nil {
		return "", err
	}
	if len(pairs) == 0 {
		pairs = sqlast.KeyValue("count", sqlast.FuncCall{Name: "COUNT", Args: []sqlast.Node{sqlast.Raw("*")}})
	}

	expr := sqlast.FuncCall{Name: "json_build_object", Args: pairs}
	return fmt.Sprintf(`SELECT %s FROM %s`,
		sqlast.Aliased{Expr: expr, Alias: plan.fieldAlias}.Render(), baseSource), nil
}

// aggregatePairs builds the json_build_object key/value pairs for an
// aggregate selection, keeping the selection set's own declared order. Column
// references render bare: an aggregate field's source is the same
// single-table scope a non-aggregate sibling would have had.
func aggregatePairs(selections []ast.Selection, fragments map[string]ast.Definition, path []string) ([]sqlast.Node, error) {
	var pairs []sqlast.Node
	for _, sel := range flattenAggregateSelections(selections, fragments) {
		switch sel.Name.Value {
		case "count":
			pairs = append(pairs, sqlast.KeyValue("count", sqlast.FuncCall{Name: "COUNT", Args: []sqlast.Node{sqlast.Raw("*")}})...)
		case "min", "max", "avg", "sum":
			fn := aggregateFunctions[sel.Name.Value]
			inner, err := aggregateColumnPairs(fn, sel, path)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, sqlast.KeyValue(sel.Name.Value, sqlast.FuncCall{Name: "json_build_object", Args: inner})...)
		default:
			return nil, &TranslateError{Kind: InvalidArgumentShape, Message: fmt.Sprintf("unsupported aggregate field %q", sel.Name.Value), Path: path}
		}
	}
	return pairs, nil
}

func aggregateColumnPairs(fn string, field *ast.Field, path []string) ([]sqlast.Node, error) {
	if field.SelectionSet == nil {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: fmt.Sprintf("%s requires a nested column selection", field.Name.Value), Path: path}
	}
	var parts []sqlast.Node
	for _, sel := range field.SelectionSet.Selections {
		col, ok := sel.(*ast.Field)
		if !ok || col.Name == nil {
			continue
		}
		colName := col.Name.Value
		parts = append(parts, sqlast.KeyValue(colName, sqlast.FuncCall{
			Name: fn,
			Args: []sqlast.Node{sqlast.Ident(colName)},
		})...)
	}
	return parts, nil
}

// flattenAggregateSelections resolves fragment spreads and inline fragments
// down to the plain fields an aggregate selection set is ultimately made
// of, in document order.
func flattenAggregateSelections(selections []ast.Selection, fragments map[string]ast.Definition) []*ast.Field {
	var out []*ast.Field
	for _, sel := range selections {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name != nil {
				out = append(out, s)
			}
		case *ast.InlineFragment:
			if s.SelectionSet != nil {
				out = append(out, flattenAggregateSelections(s.SelectionSet.Selections, fragments)...)
			}
		case *ast.FragmentSpread:
			if fragments == nil || s.Name == nil {
				continue
			}
			def, ok := fragments[s.Name.Value]
			if !ok {
				continue
			}
			fd, ok := def.(*ast.FragmentDefinition)
			if !ok || fd.SelectionSet == nil {
				continue
			}
			out = append(out, flattenAggregateSelections(fd.SelectionSet.Selections, fragments)...)
		}
	}
	return out
}
