package translate

import (
	"fmt"
	"strings"

	"github.com/graphql-go/graphql/language/ast"

	"gql2sql/internal/sqlutil"
)

// ParamTable tracks the GraphQL variables referenced while lowering one
// Translate call, assigning each a positional $N index in first-occurrence
// order and capturing its runtime value from the variables map at the
// moment it is first seen.
type ParamTable struct {
	order  []string
	index  map[string]int
	values []interface{}
}

func newParamTable() *ParamTable {
	return &ParamTable{index: make(map[string]int)}
}

// Placeholder returns the $N text for a variable reference, assigning the
// next index and capturing its value on first occurrence; later references
// to the same name reuse the index already assigned.
func (p *ParamTable) Placeholder(name string, variables map[string]interface{}) (string, error) {
	if idx, ok := p.index[name]; ok {
		return fmt.Sprintf("$%d", idx+1), nil
	}
	value, ok := variables[name]
	if !ok {
		return "", &TranslateError{Kind: UnresolvedVariable, Message: fmt.Sprintf("variable %q is not defined", name)}
	}
	idx := len(p.order)
	p.index[name] = idx
	p.order = append(p.order, name)
	p.values = append(p.values, value)
	return fmt.Sprintf("$%d", idx+1), nil
}

// Values returns the captured parameter values in $N order, or nil if no
// variable was ever referenced.
func (p *ParamTable) Values() []interface{} {
	if len(p.values) == 0 {
		return nil
	}
	return p.values
}

// VariableRef marks a GraphQL variable reference inside a converted argument
// value. It is resolved to a $N placeholder only at render time, so a
// variable's parameter index reflects the order it is actually rendered in,
// not the order its surrounding argument happened to be declared.
type VariableRef struct{ Name string }

// RawLiteral is SQL text emitted verbatim: a GraphQL int/float literal, or a
// value already rendered by an earlier pass.
type RawLiteral string

// EnumLiteral is a bare, unquoted SQL identifier such as ASC/DESC produced
// from a GraphQL enum value.
type EnumLiteral string

// orderedObject preserves GraphQL input-object field declaration order.
// Most consumers only need key-based lookup and call Map(); the order
// compiler needs the original order and reads the []orderedField directly.
type orderedObject []orderedField

type orderedField struct {
	Key   string
	Value interface{}
}

// Map discards declaration order in favor of key-based lookup.
func (o orderedObject) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(o))
	for _, f := range o {
		m[f.Key] = f.Value
	}
	return m
}

// asMap accepts either representation an argument value can arrive in and
// returns an unordered lookup map, or false if v is not object-shaped.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case orderedObject:
		return t.Map(), true
	case map[string]interface{}:
		return t, true
	default:
		return nil, false
	}
}

// argValue converts one GraphQL AST value into the generic representation
// the filter/order/distinct compilers and directive decoding operate on.
// Variable references are preserved as VariableRef rather than resolved
// here.
func argValue(v ast.Value) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case *ast.Variable:
		if val.Name == nil {
			return nil
		}
		return VariableRef{Name: val.Name.Value}
	case *ast.StringValue:
		return val.Value
	case *ast.IntValue:
		return RawLiteral(val.Value)
	case *ast.FloatValue:
		return RawLiteral(val.Value)
	case *ast.BooleanValue:
		return val.Value
	case *ast.EnumValue:
		return EnumLiteral(val.Value)
	case *ast.ListValue:
		out := make([]interface{}, len(val.Values))
		for i, item := range val.Values {
			out[i] = argValue(item)
		}
		return out
	case *ast.ObjectValue:
		out := make(orderedObject, 0, len(val.Fields))
		for _, f := range val.Fields {
			if f.Name == nil {
				continue
			}
			out = append(out, orderedField{Key: f.Name.Value, Value: argValue(f.Value)})
		}
		return out
	default:
		return nil
	}
}

// argumentMap converts a field's or directive's argument list into the
// generic representation value lowering and directive decoding consume.
func argumentMap(args []*ast.Argument) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for _, a := range args {
		if a.Name == nil {
			continue
		}
		out[a.Name.Value] = argValue(a.Value)
	}
	return out
}

// LowerValue renders a generic argument value (as produced by argValue) into
// SQL text: a $N placeholder for a variable reference, or an inlined
// literal otherwise. params may be nil only when value is statically known
// not to contain a VariableRef (e.g. @static's decoded value).
func LowerValue(value interface{}, variables map[string]interface{}, params *ParamTable) (string, error) {
	switch v := value.(type) {
	case nil:
		return "NULL", nil
	case VariableRef:
		if params == nil {
			return "", &TranslateError{Kind: InvalidArgumentShape, Message: "variable reference not allowed here"}
		}
		return params.Placeholder(v.Name, variables)
	case RawLiteral:
		return string(v), nil
	case EnumLiteral:
		return string(v), nil
	case string:
		return sqlutil.QuoteString(v), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case []interface{}:
		parts := make([]string, len(v))
		for i, item := range v {
			rendered, err := LowerValue(item, variables, params)
			if err != nil {
				return "", err
			}
			parts[i] = rendered
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", &TranslateError{Kind: InvalidArgumentShape, Message: fmt.Sprintf("cannot lower value of type %T", value)}
	}
}
