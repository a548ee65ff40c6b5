package translate

import "testing"

func TestParamTablePlaceholderDedupesByName(t *testing.T) {
	params := newParamTable()
	vars := map[string]interface{}{"branch": "main", "limit": 10}

	p1, err := params.Placeholder("branch", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1 != "$1" {
		t.Errorf("first placeholder = %q, want $1", p1)
	}

	p2, err := params.Placeholder("limit", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p2 != "$2" {
		t.Errorf("second placeholder = %q, want $2", p2)
	}

	p3, err := params.Placeholder("branch", vars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p3 != "$1" {
		t.Errorf("repeated reference = %q, want $1 (reused index)", p3)
	}

	values := params.Values()
	if len(values) != 2 || values[0] != "main" || values[1] != 10 {
		t.Errorf("Values() = %#v, want [main 10]", values)
	}
}

func TestParamTablePlaceholderUnresolvedVariable(t *testing.T) {
	params := newParamTable()
	_, err := params.Placeholder("missing", map[string]interface{}{})
	if !IsUnresolvedVariableErr(err) {
		t.Fatalf("expected UnresolvedVariable, got %v", err)
	}
}

func TestLowerValueLiteralsAndVariable(t *testing.T) {
	vars := map[string]interface{}{"name": "gql2sql"}
	params := newParamTable()

	cases := []struct {
		name  string
		value interface{}
		want  string
	}{
		{"nil", nil, "NULL"},
		{"string", "it's fine", `'it''s fine'`},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"raw literal", RawLiteral("42"), "42"},
		{"enum literal", EnumLiteral("ASC"), "ASC"},
		{"variable", VariableRef{Name: "name"}, "$1"},
	}
	for _, tc := range cases {
		got, err := LowerValue(tc.value, vars, params)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: LowerValue() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestLowerValueList(t *testing.T) {
	got, err := LowerValue([]interface{}{RawLiteral("1"), RawLiteral("2"), RawLiteral("3")}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "(1, 2, 3)"; got != want {
		t.Errorf("LowerValue(list) = %q, want %q", got, want)
	}
}

func TestLowerValueVariableWithNilParamsErrors(t *testing.T) {
	_, err := LowerValue(VariableRef{Name: "x"}, nil, nil)
	if err == nil {
		t.Fatal("expected an error lowering a variable reference with nil params")
	}
}
