package translate

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/mitchellh/mapstructure"
)

// RelationDirective decodes @relation(table, field, references, single,
// filter, distinct): the join and cardinality metadata attached to a
// nested selection or an inline fragment.
type RelationDirective struct {
	Table      string      `mapstructure:"table"`
	Field      []string    `mapstructure:"field"`
	References []string    `mapstructure:"references"`
	Single     bool        `mapstructure:"single"`
	Filter     interface{} `mapstructure:"filter"`
	Distinct   interface{} `mapstructure:"distinct"`
}

// StaticDirective decodes @static(value): a scalar leaf whose value comes
// from the query document instead of a table column.
type StaticDirective struct {
	Value interface{} `mapstructure:"value"`
}

// ArgsDirective is the shape of @args(params). Nothing in the translator
// decodes or checks it: a field carrying @args is lowered as if the
// directive were absent.
type ArgsDirective struct {
	Params []string `mapstructure:"params"`
}

func findDirective(directives []*ast.Directive, name string) *ast.Directive {
	for _, d := range directives {
		if d.Name != nil && d.Name.Value == name {
			return d
		}
	}
	return nil
}

// decodeDirective decodes a directive's arguments into out, a pointer to one
// of the directive structs above.
func decodeDirective(d *ast.Directive, out interface{}) error {
	raw := argumentMap(d.Arguments)
	cfg := &mapstructure.DecoderConfig{Result: out, WeaklyTypedInput: true}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// RelationDescriptor is the resolved join/cardinality context a nested
// selection inherits, produced either from an explicit @relation directive
// or the root-field/aggregate-suffix naming convention.
type RelationDescriptor struct {
	Table         string
	ParentColumns []string // @relation's references: parent-table columns
	ChildColumns  []string // @relation's field: child-table columns
	Single        bool
	ExtraFilter   interface{}
	ExtraDistinct interface{}
}

func hasConventionSuffix(name string) bool {
	return strings.HasSuffix(name, "_aggregate") || strings.HasSuffix(name, "_one")
}

// rootTableName strips the _aggregate/_one convention suffixes to recover
// the underlying table name for a directive-less field.
func rootTableName(fieldName string) string {
	switch {
	case strings.HasSuffix(fieldName, "_aggregate"):
		return strings.TrimSuffix(fieldName, "_aggregate")
	case strings.HasSuffix(fieldName, "_one"):
		return strings.TrimSuffix(fieldName, "_one")
	default:
		return fieldName
	}
}

// resolveRelation interprets the @relation directive on a field. A
// directive-less field is only accepted at the operation root or when its
// name carries the _aggregate/_one naming convention; anywhere else a
// nested selection without @relation cannot be joined to its parent and is
// a MissingRelation error.
func resolveRelation(fieldName string, directives []*ast.Directive, path []string, atRoot bool) (*RelationDescriptor, error) {
	d := findDirective(directives, "relation")
	if d == nil {
		if atRoot || hasConventionSuffix(fieldName) {
			return &RelationDescriptor{Table: rootTableName(fieldName)}, nil
		}
		return nil, &TranslateError{
			Kind:    MissingRelation,
			Message: fmt.Sprintf("field %q has no @relation directive", fieldName),
			Path:    path,
		}
	}

	var rd RelationDirective
	if err := decodeDirective(d, &rd); err != nil {
		return nil, &TranslateError{Kind: InvalidArgumentShape, Message: err.Error(), Path: path}
	}
	if len(rd.Field) != len(rd.References) {
		return nil, &TranslateError{
			Kind:    RelationArityMismatch,
			Message: fmt.Sprintf("@relation field/references length mismatch on %q (%d vs %d)", fieldName, len(rd.Field), len(rd.References)),
			Path:    path,
		}
	}

	table := rd.Table
	if table == "" {
		table = rootTableName(fieldName)
	}

	return &RelationDescriptor{
		Table:         table,
		ParentColumns: rd.References,
		ChildColumns:  rd.Field,
		Single:        rd.Single,
		ExtraFilter:   rd.Filter,
		ExtraDistinct: rd.Distinct,
	}, nil
}
