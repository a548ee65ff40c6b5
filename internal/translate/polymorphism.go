package translate

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"

	"gql2sql/internal/sqlutil"
	"gql2sql/internal/translate/sqlast"
)

// lowerFragment lowers one inline fragment into its LATERAL join clause and
// the alias that clause was given. The fragment is correlated to the
// current level's own base alias, exactly like a sibling nested object
// field would be. A fragment with no @relation directive is silently
// skipped: it names no join and contributes nothing to the fused object.
func lowerFragment(ctx *lowerCtx, parent *fieldPlan, frag *ast.InlineFragment) (lateral string, lateralAlias string, err error) {
	if frag.TypeCondition == nil || frag.TypeCondition.Name == nil {
		return "", "", nil
	}
	typeName := frag.TypeCondition.Name.Value

	if findDirective(frag.Directives, "relation") == nil {
		return "", "", nil
	}

	fragPath := append(append([]string{}, parent.path...), "..."+typeName)
	rel, err := resolveRelation(typeName, frag.Directives, fragPath, false)
	if err != nil {
		return "", "", err
	}

	plan := &fieldPlan{
		table:         rel.Table,
		parentAlias:   parent.alias,
		parentColumns: rel.ParentColumns,
		childColumns:  rel.ChildColumns,
		single:        rel.Single,
		extraFilter:   rel.ExtraFilter,
		extraDistinct: rel.ExtraDistinct,
		args:          map[string]interface{}{},
		fieldAlias:    typeName,
		path:          fragPath,
	}
	if frag.SelectionSet != nil {
		plan.selections = frag.SelectionSet.Selections
	}
	plan.alias = pathAlias(parent.alias, plan.table)

	childSQL, err := lowerObject(ctx, plan)
	if err != nil {
		return "", "", err
	}

	alias := ctx.arena.siblingAlias(parent.alias, typeName)
	lateral = fmt.Sprintf(`LEFT JOIN LATERAL (%s) AS %s ON ('true')`, childSQL, sqlutil.QuoteIdentifier(alias))
	ctx.lateralJoins++
	return lateral, alias, nil
}

// lowerPolymorphicObject fuses the base row with the first matching
// inline-fragment branch, in source order, via jsonb concatenation:
//
//	CAST(to_json(base) AS jsonb) || CASE
//	  WHEN "root.TypeA"."TypeA" IS NOT NULL THEN to_jsonb("TypeA")
//	  WHEN "root.TypeB"."TypeB" IS NOT NULL THEN to_jsonb("TypeB")
//	  ELSE jsonb_build_object()
//	END
//
// The base row is the full base-table row (to_json of plan.alias), not a
// re-projection of the scalar leaves selected alongside the fragments. There
// is no well-defined subset of "fields shared across fragments" to fall
// back on, so this chooses the simplest reading: the whole row is the
// shared-field source, and explicit scalar leaves are redundant with it.
//
// Nothing checks that at most one branch matches per base row, or that two
// fragments do not project the same column: when several branches match,
// the CASE takes the first.
func lowerPolymorphicObject(ctx *lowerCtx, plan *fieldPlan, fragments []*ast.InlineFragment) (string, error) {
	baseSource, err := buildBaseSource(ctx, plan)
	if err != nil {
		return "", err
	}

	var laterals []string
	var cases []string
	for _, frag := range fragments {
		lateral, alias, err := lowerFragment(ctx, plan, frag)
		if err != nil {
			return "", err
		}
		if lateral == "" {
			continue
		}
		laterals = append(laterals, lateral)
		typeName := frag.TypeCondition.Name.Value
		cases = append(cases, fmt.Sprintf(
			"WHEN %s IS NOT NULL THEN to_jsonb(%s)",
			sqlast.Qualified{Alias: alias, Column: typeName}.Render(),
			sqlutil.QuoteIdentifier(typeName),
		))
	}

	caseExpr := fmt.Sprintf("CASE %s ELSE jsonb_build_object() END", strings.Join(cases, " "))
	fused := fmt.Sprintf(`CAST(to_json(%s) AS jsonb) || %s`, sqlutil.QuoteIdentifier(plan.alias), caseExpr)

	inner := fmt.Sprintf(`SELECT %s AS "fused" FROM %s`, fused, baseSource)
	for _, lateral := range laterals {
		inner += " " + lateral
	}

	rowExpr := `"root"."fused"`
	if plan.single {
		return fmt.Sprintf(`SELECT %s AS %s FROM (%s) AS "root"`,
			rowExpr, sqlutil.QuoteIdentifier(plan.fieldAlias), inner), nil
	}
	return fmt.Sprintf(`SELECT coalesce(json_agg(%s), '[]') AS %s FROM (%s) AS "root"`,
		rowExpr, sqlutil.QuoteIdentifier(plan.fieldAlias), inner), nil
}
