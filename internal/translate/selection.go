package translate

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"

	"gql2sql/internal/sqlutil"
	"gql2sql/internal/translate/sqlast"
)

// lowerCtx carries the state shared across every recursive lowering call
// that belongs to one top-level field: the variables map, the shared
// parameter table (so $N numbering is global across the whole field, not
// per relation), the fragment definitions available for spread expansion,
// and the alias arena for that field's LATERAL-join sibling namespace.
type lowerCtx struct {
	variables    map[string]interface{}
	params       *ParamTable
	fragments    map[string]ast.Definition
	arena        *aliasArena
	tables       map[string]struct{}
	lateralJoins int
}

func (c *lowerCtx) touch(table string) {
	if c.tables == nil {
		c.tables = make(map[string]struct{})
	}
	c.tables[table] = struct{}{}
}

// fieldPlan is the resolved context for lowering one selection-set-bearing
// field, whether it is a top-level field, a nested @relation child, or an
// inline-fragment branch.
type fieldPlan struct {
	table         string
	alias         string // this field's own dotted FROM alias
	parentAlias   string // "" at the operation root
	parentColumns []string
	childColumns  []string
	single        bool
	extraFilter   interface{}
	extraDistinct interface{}
	args          map[string]interface{}
	fieldAlias    string
	path          []string
	selections    []ast.Selection
}

// fieldAlias returns a field's GraphQL alias, falling back to its name.
func fieldAlias(field *ast.Field) string {
	if field.Alias != nil && field.Alias.Value != "" {
		return field.Alias.Value
	}
	if field.Name != nil {
		return field.Name.Value
	}
	return ""
}

// lowerTopLevelField lowers one of the operation's root selections. atRoot
// relaxes resolveRelation's MissingRelation requirement: a root field's
// name alone (after stripping _aggregate/_one) names its table.
func lowerTopLevelField(ctx *lowerCtx, field *ast.Field, path []string) (string, error) {
	rel, err := resolveRelation(field.Name.Value, field.Directives, path, true)
	if err != nil {
		return "", err
	}
	return lowerFieldWithRelation(ctx, field, rel, "", path)
}

// lowerFieldWithRelation builds a fieldPlan from a resolved relation and
// dispatches to the aggregate or object lowering path per the
// _aggregate/_one naming convention.
func lowerFieldWithRelation(ctx *lowerCtx, field *ast.Field, rel *RelationDescriptor, parentAlias string, path []string) (string, error) {
	name := field.Name.Value
	plan := &fieldPlan{
		table:         rel.Table,
		parentAlias:   parentAlias,
		parentColumns: rel.ParentColumns,
		childColumns:  rel.ChildColumns,
		single:        rel.Single,
		extraFilter:   rel.ExtraFilter,
		extraDistinct: rel.ExtraDistinct,
		args:          argumentMap(field.Arguments),
		fieldAlias:    fieldAlias(field),
		path:          path,
	}
	if field.SelectionSet != nil {
		plan.selections = field.SelectionSet.Selections
	}
	plan.alias = pathAlias(parentAlias, plan.table)

	switch {
	case strings.HasSuffix(name, "_aggregate"):
		return lowerAggregate(ctx, plan)
	case strings.HasSuffix(name, "_one"):
		plan.single = true
		return lowerObject(ctx, plan)
	default:
		return lowerObject(ctx, plan)
	}
}

// buildBaseSource renders step 1 of the selection algorithm: the filtered,
// ordered, possibly DISTINCT ON, possibly limited-to-one base source for
// plan.table, aliased as plan.alias. When a distinct argument and a
// separate top-level order argument are both present, the DISTINCT ON
// subquery is wrapped once more so the outer order can reach past the
// distinct key.
func buildBaseSource(ctx *lowerCtx, plan *fieldPlan) (string, error) {
	ctx.touch(plan.table)

	var wherePredicates []string
	if plan.parentAlias != "" {
		for i := range plan.parentColumns {
			wherePredicates = append(wherePredicates, fmt.Sprintf(
				"%s = %s",
				sqlast.Qualified{Alias: plan.parentAlias, Column: plan.parentColumns[i]}.Render(),
				sqlast.Qualified{Alias: plan.table, Column: plan.childColumns[i]}.Render(),
			))
		}
	}
	if filterArg, ok := plan.args["filter"]; ok {
		sql, err := compileFilter(filterArg, ctx.variables, ctx.params, plan.path)
		if err != nil {
			return "", err
		}
		if sql != "" {
			wherePredicates = append(wherePredicates, sql)
		}
	}
	if plan.extraFilter != nil {
		sql, err := compileFilter(plan.extraFilter, ctx.variables, ctx.params, plan.path)
		if err != nil {
			return "", err
		}
		if sql != "" {
			wherePredicates = append(wherePredicates, sql)
		}
	}

	var distinctOn, innerOrderBy string
	distinctArg, hasDistinct := plan.args["distinct"]
	if !hasDistinct && plan.extraDistinct != nil {
		distinctArg, hasDistinct = plan.extraDistinct, true
	}
	if hasDistinct {
		dp, err := compileDistinct(distinctArg, ctx.variables, ctx.params, plan.path)
		if err != nil {
			return "", err
		}
		quoted := make([]string, len(dp.OnColumns))
		for i, c := range dp.OnColumns {
			quoted[i] = sqlast.Ident(c).Render()
		}
		distinctOn = strings.Join(quoted, ", ")
		innerOrderBy = dp.OrderBy
	}

	var outerOrderSQL string
	if orderArg, ok := plan.args["order"]; ok {
		sql, err := compileOrder(orderArg)
		if err != nil {
			return "", err
		}
		outerOrderSQL = sql
	}
	if !hasDistinct && innerOrderBy == "" {
		innerOrderBy, outerOrderSQL = outerOrderSQL, ""
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if distinctOn != "" {
		fmt.Fprintf(&b, "DISTINCT ON (%s) ", distinctOn)
	}
	b.WriteString("* FROM ")
	b.WriteString(sqlutil.QuoteIdentifier(plan.table))
	if len(wherePredicates) > 0 {
		fmt.Fprintf(&b, " WHERE %s", strings.Join(wherePredicates, " AND "))
	}
	if innerOrderBy != "" {
		fmt.Fprintf(&b, " ORDER BY %s", innerOrderBy)
	}
	if plan.single {
		b.WriteString(" LIMIT 1")
	}

	inner := b.String()
	if hasDistinct && outerOrderSQL != "" {
		inner = fmt.Sprintf(`SELECT * FROM (%s) AS "sorter" ORDER BY %s`, inner, outerOrderSQL)
	}

	return fmt.Sprintf("(%s) AS %s", inner, sqlutil.QuoteIdentifier(plan.alias)), nil
}

// lowerObject implements steps 2-6 of the selection algorithm: partition
// the selection set into scalar leaves, nested object fields, and inline
// fragments; project scalars directly and attach nested children as
// LATERAL join siblings; wrap the result with to_json (single) or
// coalesce(json_agg(...), '[]') (plural). A selection mixing inline
// fragments with nested object fields at the same level is not supported
// and fails with InternalInvariant.
func lowerObject(ctx *lowerCtx, plan *fieldPlan) (string, error) {
	scalars, nested, fragments, err := partitionSelections(ctx, plan.selections)
	if err != nil {
		return "", err
	}

	if len(fragments) > 0 {
		if len(nested) > 0 {
			return "", &TranslateError{
				Kind:    InternalInvariant,
				Message: "nested object fields cannot be combined with inline fragments in the same selection",
				Path:    plan.path,
			}
		}
		return lowerPolymorphicObject(ctx, plan, fragments)
	}

	baseSource, err := buildBaseSource(ctx, plan)
	if err != nil {
		return "", err
	}

	projections := make([]string, 0, len(scalars)+len(nested))
	var laterals []string

	for _, sf := range scalars {
		proj, err := lowerScalarField(plan.alias, sf)
		if err != nil {
			for i := len(plan.path) - 1; i >= 0; i-- {
				err = withPath(err, plan.path[i])
			}
			return "", err
		}
		projections = append(projections, proj)
	}
	for _, nf := range nested {
		proj, lateral, err := lowerNestedObjectField(ctx, plan, nf)
		if err != nil {
			return "", err
		}
		projections = append(projections, proj)
		laterals = append(laterals, lateral)
	}
	if len(projections) == 0 {
		projections = append(projections, "NULL")
	}

	rootSelect := fmt.Sprintf("SELECT %s FROM %s", strings.Join(projections, ", "), baseSource)
	for _, lateral := range laterals {
		rootSelect += " " + lateral
	}

	rowExpr := `to_json("root")`
	if plan.single {
		return fmt.Sprintf(`SELECT %s AS %s FROM (%s) AS "root"`,
			rowExpr, sqlutil.QuoteIdentifier(plan.fieldAlias), rootSelect), nil
	}
	return fmt.Sprintf(`SELECT coalesce(json_agg(%s), '[]') AS %s FROM (%s) AS "root"`,
		rowExpr, sqlutil.QuoteIdentifier(plan.fieldAlias), rootSelect), nil
}

// lowerScalarField projects either a plain column reference, or, when the
// field carries @static, a value inlined from the query document with no
// column read at all.
func lowerScalarField(alias string, field *ast.Field) (string, error) {
	name := fieldAlias(field)
	if d := findDirective(field.Directives, "static"); d != nil {
		var sd StaticDirective
		if err := decodeDirective(d, &sd); err != nil {
			return "", &TranslateError{Kind: InvalidArgumentShape, Message: err.Error()}
		}
		if _, isVar := sd.Value.(VariableRef); isVar {
			return "", &TranslateError{Kind: InvalidArgumentShape, Message: "@static value must be a constant, not a variable"}
		}
		literal, err := LowerValue(sd.Value, nil, nil)
		if err != nil {
			return "", err
		}
		return sqlast.Aliased{Expr: sqlast.Raw(literal), Alias: name}.Render(), nil
	}
	return sqlast.Aliased{Expr: sqlast.Qualified{Alias: alias, Column: field.Name.Value}, Alias: name}.Render(), nil
}

// lowerNestedObjectField lowers a nested @relation field into its projected
// column reference and the LATERAL join clause that produces it.
func lowerNestedObjectField(ctx *lowerCtx, parent *fieldPlan, field *ast.Field) (string, string, error) {
	childPath := append(append([]string{}, parent.path...), fieldAlias(field))
	rel, err := resolveRelation(field.Name.Value, field.Directives, childPath, false)
	if err != nil {
		return "", "", err
	}
	childSQL, err := lowerFieldWithRelation(ctx, field, rel, parent.alias, childPath)
	if err != nil {
		return "", "", err
	}

	lateralAlias := ctx.arena.siblingAlias(parent.alias, rel.Table)
	lateral := fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS %s ON ('true')`, childSQL, sqlutil.QuoteIdentifier(lateralAlias))
	ctx.lateralJoins++
	return sqlutil.QuoteIdentifier(fieldAlias(field)), lateral, nil
}

// partitionSelections walks a selection set, expanding fragment spreads
// inline, and buckets each selection into scalar leaves, nested object
// fields, and inline fragments. __typename is dropped: it names no column.
func partitionSelections(ctx *lowerCtx, selections []ast.Selection) (scalars, nested []*ast.Field, fragments []*ast.InlineFragment, err error) {
	for _, sel := range selections {
		switch s := sel.(type) {
		case *ast.Field:
			if s.Name == nil || s.Name.Value == "__typename" {
				continue
			}
			if findDirective(s.Directives, "static") != nil || s.SelectionSet == nil {
				scalars = append(scalars, s)
			} else {
				nested = append(nested, s)
			}
		case *ast.InlineFragment:
			fragments = append(fragments, s)
		case *ast.FragmentSpread:
			if s.Name == nil {
				continue
			}
			def, ok := ctx.fragments[s.Name.Value]
			if !ok {
				continue
			}
			fragDef, ok := def.(*ast.FragmentDefinition)
			if !ok || fragDef.SelectionSet == nil {
				continue
			}
			sc, ne, fr, err2 := partitionSelections(ctx, fragDef.SelectionSet.Selections)
			if err2 != nil {
				return nil, nil, nil, err2
			}
			scalars = append(scalars, sc...)
			nested = append(nested, ne...)
			fragments = append(fragments, fr...)
		}
	}
	return scalars, nested, fragments, nil
}
