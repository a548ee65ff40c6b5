package translate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/graphql-go/graphql/language/ast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gql2sql/internal/observability"
	"gql2sql/internal/sqlutil"
)

const tracerName = "gql2sql/internal/translate"

// Result is the output of a single Translate call: the rendered SQL text,
// its positional parameter values in $N order, and the distinct set of
// tables the translation read from, for callers that invalidate a
// row-set cache by table name.
type Result struct {
	SQL       string
	Params    []interface{}
	CacheTags []string

	lateralJoins int
}

type options struct {
	operationName string
	metrics       *observability.TranslateMetrics
}

// Option customizes a single Translate call.
type Option func(*options)

// WithOperationName selects a named operation out of a multi-operation
// document. Required when doc has more than one operation definition.
func WithOperationName(name string) Option {
	return func(o *options) { o.operationName = name }
}

// WithMetrics records duration, parameter count, and LATERAL join count on m.
// Takes priority over metrics carried on ctx via
// observability.ContextWithTranslateMetrics.
func WithMetrics(m *observability.TranslateMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// Translate lowers a parsed GraphQL operation and its variables into one
// PostgreSQL SELECT returning a single JSON object shaped like the root
// selection set. It is a pure function of its inputs: the alias arena and
// parameter table backing any one call are allocated fresh and discarded on
// return, so the same (doc, variables) pair always yields byte-identical
// SQL.
func Translate(ctx context.Context, doc *ast.Document, variables map[string]interface{}, opts ...Option) (*Result, error) {
	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.metrics == nil {
		cfg.metrics = observability.TranslateMetricsFromContext(ctx)
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "gql2sql.translate")
	defer span.End()

	start := time.Now()
	result, err := runTranslate(doc, variables, cfg.operationName)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if cfg.metrics != nil {
			cfg.metrics.RecordError(ctx, duration, errorKindOf(err).String())
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("gql2sql.param_count", len(result.Params)),
		attribute.Int("gql2sql.cache_tag_count", len(result.CacheTags)),
	)
	if cfg.metrics != nil {
		cfg.metrics.RecordSuccess(ctx, duration, len(result.Params), result.lateralJoins)
	}
	return result, nil
}

func errorKindOf(err error) ErrorKind {
	var te *TranslateError
	if errors.As(err, &te) {
		return te.Kind
	}
	return InternalInvariant
}

// runTranslate is Translate's logic with no tracing/metrics attached, kept
// separate so it stays easy to test in isolation.
func runTranslate(doc *ast.Document, variables map[string]interface{}, operationName string) (*Result, error) {
	if variables == nil {
		variables = map[string]interface{}{}
	}

	op, fragments, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	if op.SelectionSet == nil || len(op.SelectionSet.Selections) == 0 {
		return nil, &TranslateError{Kind: EmptyDocument, Message: "operation has no selections"}
	}

	params := newParamTable()
	tables := make(map[string]struct{})
	lateralJoins := 0

	var parts []string
	for _, sel := range op.SelectionSet.Selections {
		field, ok := sel.(*ast.Field)
		if !ok || field.Name == nil {
			continue
		}
		key := fieldAlias(field)
		path := []string{key}

		fieldCtx := &lowerCtx{
			variables: variables,
			params:    params,
			fragments: fragments,
			arena:     newAliasArena(),
		}
		selectSQL, err := lowerTopLevelField(fieldCtx, field, path)
		if err != nil {
			return nil, err
		}
		for t := range fieldCtx.tables {
			tables[t] = struct{}{}
		}
		lateralJoins += fieldCtx.lateralJoins

		parts = append(parts, fmt.Sprintf("%s, (%s)", sqlutil.QuoteString(key), selectSQL))
	}

	outer := fmt.Sprintf(`SELECT json_build_object(%s) AS "data"`, strings.Join(parts, ", "))

	tags := make([]string, 0, len(tables))
	for t := range tables {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return &Result{
		SQL:          outer,
		Params:       params.Values(),
		CacheTags:    tags,
		lateralJoins: lateralJoins,
	}, nil
}

// selectOperation resolves which operation in doc to lower and collects its
// fragment definitions for later spread expansion.
func selectOperation(doc *ast.Document, operationName string) (*ast.OperationDefinition, map[string]ast.Definition, error) {
	if doc == nil {
		return nil, nil, &TranslateError{Kind: EmptyDocument, Message: "document is nil"}
	}

	fragments := make(map[string]ast.Definition)
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.OperationDefinition:
			operations = append(operations, d)
		case *ast.FragmentDefinition:
			if d.Name != nil {
				fragments[d.Name.Value] = d
			}
		}
	}

	if len(operations) == 0 {
		return nil, nil, &TranslateError{Kind: EmptyDocument, Message: "document has no operation"}
	}

	if operationName != "" {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == operationName {
				return op, fragments, nil
			}
		}
		return nil, nil, &TranslateError{Kind: EmptyDocument, Message: fmt.Sprintf("operation %q not found", operationName)}
	}

	if len(operations) == 1 {
		return operations[0], fragments, nil
	}
	return nil, nil, &TranslateError{Kind: EmptyDocument, Message: "document has multiple operations; an operationName is required"}
}
