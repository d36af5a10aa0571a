package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

var tracer = otel.Tracer("github.com/vampirenirmal/brandkit/internal/core")

// DefaultBounds splits overall progress across the four stages:
// strategy 5-20, visual 20-50, social 50-70, video 70-100.
var DefaultBounds = []int{5, 20, 50, 70, 100}

// Orchestrator runs its stages in order for each request. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	stages      []Stage
	bounds      []int
	minInterval time.Duration
	logger      *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.With("component", "orchestrator")
	}
}

// WithMinInterval enforces a minimum gap between emitted updates.
func WithMinInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.minInterval = d
	}
}

// WithBounds sets the overall-progress boundaries; it needs one more entry
// than there are stages and must be non-decreasing.
func WithBounds(bounds []int) Option {
	return func(o *Orchestrator) {
		o.bounds = bounds
	}
}

func New(stages []Stage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages: stages,
		logger: slog.Default().With("component", "orchestrator"),
	}
	if len(stages) == len(DefaultBounds)-1 {
		o.bounds = DefaultBounds
	} else {
		o.bounds = evenBounds(len(stages))
	}

	for _, opt := range opts {
		opt(o)
	}
	return o
}

func evenBounds(n int) []int {
	bounds := make([]int, n+1)
	bounds[0] = 5
	for i := 1; i <= n; i++ {
		bounds[i] = 5 + 95*i/n
	}
	return bounds
}

// Names returns the agent names in pipeline order.
func (o *Orchestrator) Names() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

// Run generates one package, calling sink for every progress update. The
// last update sink receives has Completed set. Stage work is detached from
// ctx cancellation: an in-flight external call finishes, then no further
// stage starts.
func (o *Orchestrator) Run(ctx context.Context, req domain.BrandRequest, sink Sink) (pkg *domain.BrandPackage, err error) {
	packageID := uuid.NewString()
	start := time.Now()
	log := o.logger.With("package_id", packageID)

	ctx, span := tracer.Start(ctx, "orchestrator.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("package_id", packageID),
		attribute.String("request_kind", string(req.Kind())),
	)

	t := newTracker(ctx, packageID, o.Names(), o.bounds, sink, o.minInterval)

	defer func() {
		if r := recover(); r != nil {
			err = NewStageError(o.stageName(t.Active()), fmt.Errorf("%w: %v", ErrUnexpected, r))
			log.Error("pipeline panicked", "error", err)
			t.Fail(fmt.Sprintf("Generation failed: %v", err))
			pkg = nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generation failed")
		}
	}()

	log.Info("brand generation started", "kind", req.Kind(), "stages", len(o.stages))

	var (
		strategy *domain.BrandStrategy
		assets   []domain.GeneratedAsset
	)
	stageCtx := context.WithoutCancel(ctx)

	for i, stage := range o.stages {
		if sinkErr := t.Err(); sinkErr != nil {
			log.Info("consumer gone, stopping", "error", sinkErr)
			return nil, fmt.Errorf("%w: %w", ErrConsumerGone, sinkErr)
		}
		if ctx.Err() != nil {
			log.Info("generation cancelled", "next_stage", stage.Name())
			t.Cancel("Generation cancelled")
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}

		t.Start(i, announce(stage))

		if i > 0 && strategy == nil {
			err := NewStageError(stage.Name(), ErrMissingDependency)
			t.Fail(err.Error())
			return nil, err
		}

		stageStart := time.Now()
		out, stageErr := o.execute(stageCtx, i, stage, t, StageInput{
			PackageID: packageID,
			Request:   req,
			Strategy:  strategy,
			Assets:    append([]domain.GeneratedAsset(nil), assets...),
		})
		if stageErr != nil {
			var se *StageError
			if !errors.As(stageErr, &se) {
				stageErr = NewStageError(stage.Name(), stageErr)
			}
			log.Error("stage failed",
				"stage", stage.Name(),
				"duration_ms", time.Since(stageStart).Milliseconds(),
				"error", stageErr)
			t.Fail(failureMessage(stage.Name(), stageErr))
			return nil, stageErr
		}

		if strategy == nil && out.Strategy != nil {
			strategy = out.Strategy
		}
		assets = append(assets, out.Assets...)

		msg := out.Message
		if msg == "" {
			msg = stage.Name() + " finished"
		}
		t.Complete(i, msg, out.Result)

		log.Info("stage completed",
			"stage", stage.Name(),
			"assets", len(out.Assets),
			"duration_ms", time.Since(stageStart).Milliseconds())
	}

	if strategy == nil {
		err := NewStageError(o.stageName(len(o.stages)-1), ErrMissingDependency)
		t.Fail(err.Error())
		return nil, err
	}

	pkg = &domain.BrandPackage{
		ID:                    packageID,
		Strategy:              *strategy,
		Assets:                assets,
		CreatedAt:             time.Now().UTC(),
		Status:                domain.PackageStatusCompleted,
		GenerationTimeSeconds: time.Since(start).Seconds(),
	}
	t.Finish(pkg, "Brand package generated successfully!")

	log.Info("brand generation completed",
		"company", strategy.CompanyName,
		"assets", len(assets),
		"duration_ms", time.Since(start).Milliseconds())

	if sinkErr := t.Err(); sinkErr != nil {
		return pkg, fmt.Errorf("%w: %w", ErrConsumerGone, sinkErr)
	}
	return pkg, nil
}

func (o *Orchestrator) execute(ctx context.Context, i int, stage Stage, t *Tracker, in StageInput) (StageOutput, error) {
	ctx, span := tracer.Start(ctx, "stage."+stage.Name())
	defer span.End()

	in.Report = func(percent int, message string) {
		t.Advance(i, percent, message)
	}

	out, err := stage.Execute(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage failed")
	}
	span.SetAttributes(attribute.Int("assets", len(out.Assets)))
	return out, err
}

// Stream runs the pipeline in a goroutine and delivers updates over an
// unbuffered channel, closed after the terminal update.
func (o *Orchestrator) Stream(ctx context.Context, req domain.BrandRequest) <-chan domain.ProgressUpdate {
	ch := make(chan domain.ProgressUpdate)
	go func() {
		defer close(ch)
		_, err := o.Run(ctx, req, func(u domain.ProgressUpdate) error {
			select {
			case ch <- u:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			o.logger.Debug("stream ended with error", "error", err)
		}
	}()
	return ch
}

func (o *Orchestrator) stageName(i int) string {
	if i < 0 || i >= len(o.stages) {
		return "orchestrator"
	}
	return o.stages[i].Name()
}

func announce(s Stage) string {
	if a, ok := s.(Announcer); ok {
		return a.Announce()
	}
	return s.Name() + " is working"
}

func failureMessage(stage string, err error) string {
	if IsValidationError(err) {
		return fmt.Sprintf("%s produced an invalid result: %v", stage, errors.Unwrap(err))
	}
	return fmt.Sprintf("%s failed: %v", stage, errors.Unwrap(err))
}
