// Package sqlast is a small SQL expression AST and canonical-text emitter
// used by the translator wherever it assembles an expression out of parts
// rather than dropping in a single pre-rendered string: quoting follows
// sqlutil's fixed PostgreSQL rules, lists are comma-space separated, and
// output never spans multiple lines.
package sqlast

import (
	"strings"

	"gql2sql/internal/sqlutil"
)

// Node renders to its canonical SQL text.
type Node interface {
	Render() string
}

// Raw is SQL text emitted verbatim. Used for fragments already rendered by
// value lowering or the filter/order compilers, which need squirrel's
// boolean-expression composition rather than this package's node set.
type Raw string

func (r Raw) Render() string { return string(r) }

// Ident is an unqualified table or column identifier.
type Ident string

func (i Ident) Render() string { return sqlutil.QuoteIdentifier(string(i)) }

// Qualified is an alias-qualified column reference.
type Qualified struct {
	Alias  string
	Column string
}

func (q Qualified) Render() string { return sqlutil.QuoteQualified(q.Alias, q.Column) }

// StringLiteral is a single-quoted, doubling-escaped string literal.
type StringLiteral string

func (s StringLiteral) Render() string { return sqlutil.QuoteString(string(s)) }

// FuncCall renders Name(arg1, arg2, ...).
type FuncCall struct {
	Name string
	Args []Node
}

func (f FuncCall) Render() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.Render()
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Aliased renders expr AS "alias", or just expr when alias is empty.
type Aliased struct {
	Expr  Node
	Alias string
}

func (a Aliased) Render() string {
	if a.Alias == "" {
		return a.Expr.Render()
	}
	return a.Expr.Render() + " AS " + sqlutil.QuoteIdentifier(a.Alias)
}

// List renders a comma-space separated expression list.
type List []Node

func (l List) Render() string {
	parts := make([]string, len(l))
	for i, n := range l {
		parts[i] = n.Render()
	}
	return strings.Join(parts, ", ")
}

// KeyValue renders a json_build_object key/value pair as two consecutive
// FuncCall arguments: a string-literal key followed by its value expression.
func KeyValue(key string, value Node) []Node {
	return []Node{StringLiteral(key), value}
}
