package sqlast

import "testing"

func TestIdentRender(t *testing.T) {
	if got, want := Ident(`weird"name`).Render(), `"weird""name"`; got != want {
		t.Errorf("Ident.Render() = %q, want %q", got, want)
	}
}

func TestQualifiedRender(t *testing.T) {
	if got, want := (Qualified{Alias: "base.Component", Column: "id"}).Render(), `"base.Component"."id"`; got != want {
		t.Errorf("Qualified.Render() = %q, want %q", got, want)
	}
}

func TestFuncCallRender(t *testing.T) {
	f := FuncCall{Name: "MIN", Args: []Node{Qualified{Alias: "Component", Column: "createdAt"}}}
	if got, want := f.Render(), `MIN("Component"."createdAt")`; got != want {
		t.Errorf("FuncCall.Render() = %q, want %q", got, want)
	}
}

func TestAliasedRender(t *testing.T) {
	a := Aliased{Expr: Qualified{Alias: "base", Column: "name"}, Alias: "name"}
	if got, want := a.Render(), `"base"."name" AS "name"`; got != want {
		t.Errorf("Aliased.Render() = %q, want %q", got, want)
	}
	bare := Aliased{Expr: Raw("true")}
	if got, want := bare.Render(), "true"; got != want {
		t.Errorf("Aliased.Render() with no alias = %q, want %q", got, want)
	}
}

func TestKeyValueAndFuncCallCompose(t *testing.T) {
	pairs := KeyValue("count", FuncCall{Name: "COUNT", Args: []Node{Raw("*")}})
	call := FuncCall{Name: "json_build_object", Args: pairs}
	if got, want := call.Render(), `json_build_object('count', COUNT(*))`; got != want {
		t.Errorf("json_build_object render = %q, want %q", got, want)
	}
}

func TestListRender(t *testing.T) {
	l := List{Ident("a"), Ident("b")}
	if got, want := l.Render(), `"a", "b"`; got != want {
		t.Errorf("List.Render() = %q, want %q", got, want)
	}
}
