package translate

import (
	"strings"
	"testing"
)

func TestCompileFilterNilIsEmpty(t *testing.T) {
	sql, err := compileFilter(nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sql != "" {
		t.Errorf("compileFilter(nil) = %q, want empty", sql)
	}
}

func TestCompileFilterSugaredSingleColumn(t *testing.T) {
	filter := map[string]interface{}{
		"status": map[string]interface{}{"eq": "published"},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"status" = 'published'`; sql != want {
		t.Errorf("compileFilter() = %q, want %q", sql, want)
	}
}

func TestCompileFilterSugaredAndAcrossColumns(t *testing.T) {
	filter := map[string]interface{}{
		"status": map[string]interface{}{"eq": "published"},
		"branch": map[string]interface{}{"eq": "main"},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, `"branch" = 'main'`) || !strings.Contains(sql, `"status" = 'published'`) {
		t.Errorf("compileFilter() = %q, missing expected conditions", sql)
	}
	if !strings.Contains(sql, " AND ") {
		t.Errorf("compileFilter() = %q, want AND-combined conditions", sql)
	}
}

func TestCompileFilterSugaredOr(t *testing.T) {
	filter := map[string]interface{}{
		"or": []interface{}{
			map[string]interface{}{"status": map[string]interface{}{"eq": "draft"}},
			map[string]interface{}{"status": map[string]interface{}{"eq": "published"}},
		},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, " OR ") {
		t.Errorf("compileFilter() = %q, want OR-combined conditions", sql)
	}
}

func TestCompileFilterInOperator(t *testing.T) {
	filter := map[string]interface{}{
		"status": map[string]interface{}{
			"in": []interface{}{"draft", "published"},
		},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"status" IN ('draft', 'published')`; sql != want {
		t.Errorf("compileFilter() = %q, want %q", sql, want)
	}
}

func TestCompileFilterIsNull(t *testing.T) {
	filter := map[string]interface{}{
		"deletedAt": map[string]interface{}{"is_null": true},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"deletedAt" IS NULL`; sql != want {
		t.Errorf("compileFilter() = %q, want %q", sql, want)
	}
}

func TestCompileFilterVariableAssignsPlaceholder(t *testing.T) {
	filter := map[string]interface{}{
		"branch": map[string]interface{}{"eq": VariableRef{Name: "branch"}},
	}
	params := newParamTable()
	sql, err := compileFilter(filter, map[string]interface{}{"branch": "main"}, params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"branch" = $1`; sql != want {
		t.Errorf("compileFilter() = %q, want %q", sql, want)
	}
	if len(params.Values()) != 1 || params.Values()[0] != "main" {
		t.Errorf("params.Values() = %#v, want [main]", params.Values())
	}
}

func TestCompileFilterUnknownOperator(t *testing.T) {
	filter := map[string]interface{}{
		"status": map[string]interface{}{"bogus": "x"},
	}
	_, err := compileFilter(filter, nil, newParamTable(), nil)
	if !IsUnknownOperatorErr(err) {
		t.Fatalf("expected UnknownOperator, got %v", err)
	}
}

func TestCompileFilterCanonicalShape(t *testing.T) {
	filter := map[string]interface{}{
		"logicalOperator": "AND",
		"children": []interface{}{
			map[string]interface{}{"field": "status", "operator": "eq", "value": "published"},
			map[string]interface{}{"field": "branch", "operator": "eq", "value": "main"},
		},
	}
	sql, err := compileFilter(filter, nil, newParamTable(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sql, `"status" = 'published'`) || !strings.Contains(sql, `"branch" = 'main'`) {
		t.Errorf("compileFilter() = %q, missing expected conditions", sql)
	}
}
