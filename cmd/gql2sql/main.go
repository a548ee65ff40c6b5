package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"gql2sql/internal/config"
	"gql2sql/internal/logging"
	"gql2sql/internal/observability"
	"gql2sql/internal/translate"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

// request is the JSON envelope read from stdin: a GraphQL document, its
// variables, and, for multi-operation documents, the operation to run.
type request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// response mirrors translate.Result for stdout. Params is kept as
// []interface{} so arbitrary GraphQL scalar types round-trip through JSON
// unchanged.
type response struct {
	SQL       string        `json:"sql"`
	Params    []interface{} `json:"params"`
	CacheTags []string      `json:"cacheTags"`
}

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("gql2sql failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Printf("gql2sql %s\n", Version)
		return nil
	}

	validationResult := cfg.Validate()
	if validationResult.HasErrors() {
		for _, ferr := range validationResult.Errors {
			slog.Error("configuration error", slog.String("field", ferr.Field), slog.String("message", ferr.Message))
		}
		return fmt.Errorf("configuration validation failed")
	}

	logger := logging.NewLogger(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	tracerProvider, err := observability.InitTracerProvider(observability.Config{
		ServiceName:      cfg.Observability.ServiceName,
		ServiceVersion:   cfg.Observability.ServiceVersion,
		Environment:      cfg.Observability.Environment,
		TraceSampleRatio: cfg.Observability.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = tracerProvider.Shutdown(context.Background(), logger.Logger) }()

	var meterProvider *observability.MeterProvider
	var metrics *observability.TranslateMetrics
	if cfg.Observability.MetricsAddr != "" {
		meterProvider, err = observability.InitMeterProvider(observability.Config{
			ServiceName:      cfg.Observability.ServiceName,
			ServiceVersion:   cfg.Observability.ServiceVersion,
			Environment:      cfg.Observability.Environment,
			TraceSampleRatio: cfg.Observability.TraceSampleRatio,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
		defer func() { _ = meterProvider.Shutdown(context.Background(), logger.Logger) }()

		metrics, err = observability.InitMetrics(logger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize translate metrics: %w", err)
		}

		serveMetrics(logger, cfg.Observability.MetricsAddr)
	}

	requestID := uuid.NewString()
	ctx := logging.WithRequestIDContext(context.Background(), requestID)
	if metrics != nil {
		ctx = observability.ContextWithTranslateMetrics(ctx, metrics)
	}
	logger = logger.WithRequestID(requestID)

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return writeError(translate.ErrParseError, fmt.Sprintf("invalid request envelope: %v", err), nil)
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(req.Query), Name: "gql2sql"}),
	})
	if err != nil {
		return writeError(translate.ErrParseError, err.Error(), nil)
	}

	var opts []translate.Option
	if req.OperationName != "" {
		opts = append(opts, translate.WithOperationName(req.OperationName))
	}

	result, err := translate.Translate(ctx, doc, req.Variables, opts...)
	if err != nil {
		var te *translate.TranslateError
		if errors.As(err, &te) {
			return writeError(te, te.Message, te.Path)
		}
		return writeError(translate.ErrInternalInvariant, err.Error(), nil)
	}

	logger.Debug("translated query",
		slog.Int("param_count", len(result.Params)),
		slog.Int("cache_tag_count", len(result.CacheTags)),
	)

	return writeResponse(result)
}

func writeResponse(result *translate.Result) error {
	out := response{SQL: result.SQL, Params: result.Params, CacheTags: result.CacheTags}
	if out.Params == nil {
		out.Params = []interface{}{}
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(out)
}

// writeError prints a {kind, message, path} envelope to stdout and returns
// a non-nil error so run()'s caller exits non-zero.
func writeError(err error, message string, path []string) error {
	var te *translate.TranslateError
	kind := "internal_invariant"
	if errors.As(err, &te) {
		kind = te.Kind.String()
	}
	resp := errorResponse{Kind: kind, Message: message}
	if len(path) > 0 {
		resp.Path = fmt.Sprint(path)
	}
	enc := json.NewEncoder(os.Stdout)
	if encodeErr := enc.Encode(resp); encodeErr != nil {
		return encodeErr
	}
	return fmt.Errorf("%s: %s", kind, message)
}

// serveMetrics starts a background HTTP listener exposing /metrics. The
// process is short-lived (one translation per invocation), so it is never
// gracefully shut down: the listener dies with the process.
func serveMetrics(logger *logging.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics listener stopped", slog.String("error", err.Error()), slog.String("addr", addr))
		}
	}()
}
