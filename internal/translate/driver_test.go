package translate

import (
	"context"
	"strings"
	"testing"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"gql2sql/internal/observability"
)

func mustParse(t *testing.T, query string) *ast.Document {
	t.Helper()
	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(query), Name: "test"}),
	})
	if err != nil {
		t.Fatalf("failed to parse query: %v", err)
	}
	return doc
}

func TestTranslateSimpleTopLevelFilter(t *testing.T) {
	query := `
		query Apps($branch: String!) {
			App(filter: { branch: { eq: $branch } }) {
				id
				name
			}
		}
	`
	doc := mustParse(t, query)
	result, err := Translate(context.Background(), doc, map[string]interface{}{"branch": "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.SQL, `json_build_object('App',`) {
		t.Errorf("SQL missing App key: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `FROM "App"`) {
		t.Errorf("SQL missing base table: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `"branch" = $1`) {
		t.Errorf("SQL missing filter predicate: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `to_json("root")."id"`) && !strings.Contains(result.SQL, `"base"."id" AS "id"`) {
		t.Errorf("SQL missing id projection: %s", result.SQL)
	}
	if len(result.Params) != 1 || result.Params[0] != "main" {
		t.Errorf("Params = %#v, want [main]", result.Params)
	}
	if len(result.CacheTags) != 1 || result.CacheTags[0] != "App" {
		t.Errorf("CacheTags = %#v, want [App]", result.CacheTags)
	}
}

func TestTranslateDedupesRepeatedVariable(t *testing.T) {
	query := `
		query Dup($branch: String!) {
			App(filter: { branch: { eq: $branch } }) {
				id
				Component(filter: { branch: { eq: $branch } }) @relation(table: "Component", field: ["appId"], references: ["id"]) {
					id
				}
			}
		}
	`
	doc := mustParse(t, query)
	result, err := Translate(context.Background(), doc, map[string]interface{}{"branch": "main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(result.SQL, "$1"); got != 2 {
		t.Errorf("expected $1 to appear twice (deduped), got %d in %s", got, result.SQL)
	}
	if strings.Contains(result.SQL, "$2") {
		t.Errorf("expected only one parameter slot, got a second: %s", result.SQL)
	}
	if len(result.Params) != 1 {
		t.Errorf("Params = %#v, want a single deduped value", result.Params)
	}
}

func TestTranslateNestedRelationProducesLateralJoin(t *testing.T) {
	query := `
		query Nested {
			App {
				id
				Component @relation(table: "Component", field: ["appId"], references: ["id"]) {
					id
					name
				}
			}
		}
	`
	doc := mustParse(t, query)
	result, err := Translate(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.SQL, "LEFT JOIN LATERAL") {
		t.Errorf("expected a LATERAL join, got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `"base"."id" = "Component"."appId"`) {
		t.Errorf("expected join predicate on appId/id, got: %s", result.SQL)
	}
	if len(result.CacheTags) != 2 {
		t.Errorf("CacheTags = %#v, want App and Component", result.CacheTags)
	}
}

func TestTranslateAggregateField(t *testing.T) {
	query := `
		query Agg {
			Component_aggregate {
				count
				min { createdAt }
			}
		}
	`
	doc := mustParse(t, query)
	result, err := Translate(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.SQL, "COUNT(*)") {
		t.Errorf("expected COUNT(*), got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `MIN("createdAt")`) {
		t.Errorf("expected MIN(createdAt), got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, `FROM "Component"`) {
		t.Errorf("expected base table Component, got: %s", result.SQL)
	}
}

func TestTranslatePolymorphicFragments(t *testing.T) {
	query := `
		query Poly {
			Component {
				id
				... on PageMeta @relation(table: "PageMeta", field: ["componentId"], references: ["id"], single: true) {
					title
				}
				... on ComponentMeta @relation(table: "ComponentMeta", field: ["componentId"], references: ["id"], single: true) {
					description
				}
			}
		}
	`
	doc := mustParse(t, query)
	result, err := Translate(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.SQL, `to_jsonb("PageMeta")`) || !strings.Contains(result.SQL, `to_jsonb("ComponentMeta")`) {
		t.Errorf("expected fused fragment branches, got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, "jsonb_build_object()") {
		t.Errorf("expected an ELSE fallback, got: %s", result.SQL)
	}
	if !strings.Contains(result.SQL, "CAST(to_json(") {
		t.Errorf("expected base-row to_json cast, got: %s", result.SQL)
	}
}

func TestTranslateUnresolvedVariable(t *testing.T) {
	query := `
		query Missing {
			App(filter: { branch: { eq: $branch } }) {
				id
			}
		}
	`
	doc := mustParse(t, query)
	_, err := Translate(context.Background(), doc, nil)
	if !IsUnresolvedVariableErr(err) {
		t.Fatalf("expected UnresolvedVariable, got %v", err)
	}
}

func TestTranslateMissingRelation(t *testing.T) {
	query := `
		query Bad {
			App {
				id
				Component {
					id
				}
			}
		}
	`
	doc := mustParse(t, query)
	_, err := Translate(context.Background(), doc, nil)
	if !IsMissingRelationErr(err) {
		t.Fatalf("expected MissingRelation, got %v", err)
	}
}

func TestTranslateRecordsMetricsCarriedOnContext(t *testing.T) {
	query := `
		query Apps {
			App {
				id
			}
		}
	`
	doc := mustParse(t, query)

	metrics, err := observability.InitTranslateMetrics()
	if err != nil {
		t.Fatalf("failed to init metrics: %v", err)
	}
	ctx := observability.ContextWithTranslateMetrics(context.Background(), metrics)

	if _, err := Translate(ctx, doc, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTranslateDocumentWithNoOperation(t *testing.T) {
	query := `fragment F on App { id }`
	doc := mustParse(t, query)
	_, err := Translate(context.Background(), doc, nil)
	if !IsEmptyDocumentErr(err) {
		t.Fatalf("expected EmptyDocument, got %v", err)
	}
}
