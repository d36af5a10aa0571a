package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
)

// StrategyStage turns a request into the brand strategy every later stage
// reads.
type StrategyStage struct {
	base
	gen *agent.Generator
}

func NewStrategyStage(gen *agent.Generator, opts ...Option) *StrategyStage {
	return &StrategyStage{
		base: newBase(NameStrategy, "Analyzing your startup idea and crafting a brand strategy", opts...),
		gen:  gen,
	}
}

func (s *StrategyStage) Execute(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
	started := s.logStart(in)

	in.Progress(10, "Researching market position")
	strategy, outcome, err := s.Plan(ctx, in.Request)
	if err != nil {
		return core.StageOutput{}, err
	}

	msg := fmt.Sprintf("Brand strategy ready for %s", strategy.CompanyName)
	if outcome.Fallback {
		msg = "Brand strategy ready (default template)"
	}
	out := core.StageOutput{
		Strategy: &strategy,
		Result:   strategy,
		Message:  msg,
	}
	s.logComplete(in, out, started)
	return out, nil
}

// Plan generates, normalizes and validates a strategy. Provider failures
// yield the fallback strategy; only a schema violation after normalizing
// is returned as an error.
func (s *StrategyStage) Plan(ctx context.Context, req domain.BrandRequest) (domain.BrandStrategy, agent.Outcome, error) {
	spec := agent.PromptSpec{
		Stage:  s.name,
		System: strategistSystem,
		Prompt: strategyPrompt(req),
		Schema: domain.StrategyRequiredKeys,
	}
	strategy, outcome := agent.Structured(ctx, s.gen, spec, FallbackStrategy)
	if outcome.Fallback {
		s.logger.Warn("using fallback strategy", "cause", outcome.Cause)
	}

	strategy.Normalize()
	if err := domain.ValidateStrategy(strategy); err != nil {
		return domain.BrandStrategy{}, outcome, core.NewStageError(s.name, toValidationError(s.name, err))
	}
	return strategy, outcome, nil
}

func toValidationError(stage string, err error) *core.ValidationError {
	var se *domain.SchemaError
	if errors.As(err, &se) && len(se.Fields) > 0 {
		f := se.Fields[0]
		return core.NewValidationError(stage, f.Field, se.Error(), f.Value)
	}
	return core.NewValidationError(stage, "", err.Error(), nil)
}
