package translate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a TranslateError so callers can branch on failure
// mode without parsing Message.
type ErrorKind int

const (
	// ParseError means the input was not a valid GraphQL document.
	ParseError ErrorKind = iota
	// EmptyDocument means the document had no operation to lower, or the
	// requested operation name could not be resolved unambiguously.
	EmptyDocument
	// UnresolvedVariable means a $variable reference had no entry in the
	// variables map. Default values declared on the operation's variable
	// definitions are not consulted.
	UnresolvedVariable
	// MissingRelation means a nested selection had no @relation directive
	// and its field name did not match a recognized naming convention.
	MissingRelation
	// RelationArityMismatch means an @relation directive's field and
	// references lists had different lengths.
	RelationArityMismatch
	// UnknownOperator means a filter used an operator this translator does
	// not implement.
	UnknownOperator
	// InvalidArgumentShape means an argument did not match the shape its
	// position requires (e.g. filter was not an object).
	InvalidArgumentShape
	// InternalInvariant means the translator reached a state its own
	// algorithm should have prevented.
	InternalInvariant
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "parse_error"
	case EmptyDocument:
		return "empty_document"
	case UnresolvedVariable:
		return "unresolved_variable"
	case MissingRelation:
		return "missing_relation"
	case RelationArityMismatch:
		return "relation_arity_mismatch"
	case UnknownOperator:
		return "unknown_operator"
	case InvalidArgumentShape:
		return "invalid_argument_shape"
	case InternalInvariant:
		return "internal_invariant"
	default:
		return "unknown"
	}
}

// TranslateError is the error type every translation failure is reported as.
// Path is a breadcrumb of GraphQL field aliases from the operation root down
// to the selection that failed. Errors raised while rendering a single value
// (an unresolved variable, a value that cannot be lowered) carry no Path.
type TranslateError struct {
	Kind    ErrorKind
	Message string
	Path    []string
}

func (e *TranslateError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, strings.Join(e.Path, "."))
}

// Is makes errors.Is(err, ErrMissingRelation) etc. match on Kind alone,
// ignoring Message and Path.
func (e *TranslateError) Is(target error) bool {
	t, ok := target.(*TranslateError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// withPath prepends segment to err's Path if err is a *TranslateError,
// returning a copy. Errors of any other type pass through unchanged.
func withPath(err error, segment string) error {
	var te *TranslateError
	if errors.As(err, &te) {
		cp := *te
		cp.Path = append([]string{segment}, cp.Path...)
		return &cp
	}
	return err
}

var (
	ErrParseError            = &TranslateError{Kind: ParseError}
	ErrEmptyDocument         = &TranslateError{Kind: EmptyDocument}
	ErrUnresolvedVariable    = &TranslateError{Kind: UnresolvedVariable}
	ErrMissingRelation       = &TranslateError{Kind: MissingRelation}
	ErrRelationArityMismatch = &TranslateError{Kind: RelationArityMismatch}
	ErrUnknownOperator       = &TranslateError{Kind: UnknownOperator}
	ErrInvalidArgumentShape  = &TranslateError{Kind: InvalidArgumentShape}
	ErrInternalInvariant     = &TranslateError{Kind: InternalInvariant}
)

func IsParseErr(err error) bool            { return errors.Is(err, ErrParseError) }
func IsEmptyDocumentErr(err error) bool    { return errors.Is(err, ErrEmptyDocument) }
func IsUnresolvedVariableErr(err error) bool {
	return errors.Is(err, ErrUnresolvedVariable)
}
func IsMissingRelationErr(err error) bool { return errors.Is(err, ErrMissingRelation) }
func IsRelationArityMismatchErr(err error) bool {
	return errors.Is(err, ErrRelationArityMismatch)
}
func IsUnknownOperatorErr(err error) bool      { return errors.Is(err, ErrUnknownOperator) }
func IsInvalidArgumentShapeErr(err error) bool { return errors.Is(err, ErrInvalidArgumentShape) }
func IsInternalInvariantErr(err error) bool    { return errors.Is(err, ErrInternalInvariant) }
