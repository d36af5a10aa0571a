package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrMalformedResponse = errors.New("malformed structured response")
	ErrEmptyResponse     = errors.New("empty response")
)

// MissingKeyError reports a required top-level key absent from a
// structured response.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("response missing required key %q", e.Key)
}

// PromptSpec is one fully rendered generation request. Schema lists the
// top-level keys a structured response must contain.
type PromptSpec struct {
	Stage  string
	System string
	Prompt string
	Schema []string
}

// Outcome describes how a value was obtained. Fallback is set when the
// caller's deterministic substitute was returned; Cause says why.
type Outcome struct {
	Fallback bool
	Cause    error
}

// Generator turns prompts into text or typed values and never surfaces
// provider failures to its caller.
type Generator struct {
	client AIClient
	logger *slog.Logger
}

type GeneratorOption func(*Generator)

func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger.With("component", "generator")
	}
}

func NewGenerator(client AIClient, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client: client,
		logger: slog.Default().With("component", "generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Text returns free-form text with any code fence removed, or fallback.
func (g *Generator) Text(ctx context.Context, spec PromptSpec, fallback string) (string, Outcome) {
	ctx, span := tracer.Start(ctx, "agent.text", trace.WithAttributes(attribute.String("stage", spec.Stage)))
	defer span.End()

	raw, err := g.call(ctx, spec, false)
	if err == nil {
		if text := StripFences(raw); text != "" {
			return text, Outcome{}
		}
		err = ErrEmptyResponse
	}

	span.RecordError(err)
	g.logFallback(spec, raw, err)
	return fallback, Outcome{Fallback: true, Cause: err}
}

// Structured decodes a JSON response into T. Malformed JSON, a missing
// schema key or any upstream failure yields fallback() instead.
func Structured[T any](ctx context.Context, g *Generator, spec PromptSpec, fallback func() T) (T, Outcome) {
	ctx, span := tracer.Start(ctx, "agent.structured", trace.WithAttributes(attribute.String("stage", spec.Stage)))
	defer span.End()

	raw, err := g.call(ctx, spec, true)
	if err == nil {
		var out T
		if err = decodeResponse(raw, spec.Schema, &out); err == nil {
			return out, Outcome{}
		}
	}

	span.RecordError(err)
	span.SetAttributes(attribute.Bool("fallback", true))
	g.logFallback(spec, raw, err)
	return fallback(), Outcome{Fallback: true, Cause: err}
}

func (g *Generator) call(ctx context.Context, spec PromptSpec, wantJSON bool) (raw string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("text client panic: %v", r)
		}
	}()

	switch {
	case wantJSON && spec.System != "":
		return g.client.CompleteJSONWithSystem(ctx, spec.System, spec.Prompt)
	case wantJSON:
		return g.client.CompleteJSON(ctx, spec.Prompt)
	case spec.System != "":
		return g.client.CompleteWithSystem(ctx, spec.System, spec.Prompt)
	default:
		return g.client.Complete(ctx, spec.Prompt)
	}
}

func (g *Generator) logFallback(spec PromptSpec, raw string, err error) {
	g.logger.Warn("using fallback value",
		"stage", spec.Stage,
		"error", err,
		"response", truncate(raw, 200))
}

func decodeResponse(raw string, schema []string, out any) error {
	cleaned := CleanJSONResponse(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, key := range schema {
		v, ok := fields[key]
		if !ok || string(v) == "null" {
			return &MissingKeyError{Key: key}
		}
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
