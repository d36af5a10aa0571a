// Package stage holds the four pipeline stages and out-of-band regeneration.
package stage

import (
	"log/slog"
	"time"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/media"
)

// Agent names shown in progress updates, in pipeline order.
const (
	NameStrategy = "Brand Director"
	NameVisual   = "Visual Creator"
	NameSocial   = "Social Media Agent"
	NameVideo    = "Video Creator"
)

// base provides naming and logging shared by every stage.
type base struct {
	name     string
	announce string
	logger   *slog.Logger
}

// Option customizes a stage.
type Option func(*base)

// WithLogger configures a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

func newBase(name, announce string, opts ...Option) base {
	b := base{
		name:     name,
		announce: announce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With("component", "stage", "stage", name)
	return b
}

func (b base) Name() string {
	return b.name
}

func (b base) Announce() string {
	return b.announce
}

func (b base) logStart(in core.StageInput) time.Time {
	b.logger.Info("stage started", "package_id", in.PackageID, "prior_assets", len(in.Assets))
	return time.Now()
}

func (b base) logComplete(in core.StageInput, out core.StageOutput, started time.Time) {
	b.logger.Info("stage finished",
		"package_id", in.PackageID,
		"assets", len(out.Assets),
		"duration_ms", time.Since(started).Milliseconds())
}

func (b base) requireStrategy(in core.StageInput) error {
	if in.Strategy == nil {
		return core.NewStageError(b.name, core.ErrMissingDependency)
	}
	return nil
}

// Pipeline returns the four stages in run order.
func Pipeline(gen *agent.Generator, studio *media.Studio, socialConcurrency int, opts ...Option) []core.Stage {
	return []core.Stage{
		NewStrategyStage(gen, opts...),
		NewVisualStage(studio, opts...),
		NewSocialStage(gen, studio, socialConcurrency, opts...),
		NewVideoStage(gen, studio, opts...),
	}
}
