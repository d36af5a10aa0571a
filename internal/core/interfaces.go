package core

import (
	"context"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

// Stage is one ordered step of the pipeline. Name is the agent name shown
// in progress updates.
type Stage interface {
	Name() string
	Execute(ctx context.Context, input StageInput) (StageOutput, error)
}

// Announcer lets a stage choose the message shown when it starts.
type Announcer interface {
	Announce() string
}

// Reporter receives intra-stage progress as a 0-100 percentage of the
// stage. It is safe for concurrent use.
type Reporter func(percent int, message string)

type StageInput struct {
	PackageID string
	Request   domain.BrandRequest
	// Strategy is nil only for the first stage.
	Strategy *domain.BrandStrategy
	// Assets produced by earlier stages, in order.
	Assets []domain.GeneratedAsset
	Report Reporter
}

// Progress forwards to Report when one is attached.
func (in StageInput) Progress(percent int, message string) {
	if in.Report != nil {
		in.Report(percent, message)
	}
}

// LogoURL returns the first logo asset's URL, or "".
func (in StageInput) LogoURL() string {
	for _, a := range in.Assets {
		if a.Type == domain.AssetLogo {
			return a.URL
		}
	}
	return ""
}

type StageOutput struct {
	// Strategy is set by the stage that produces it.
	Strategy *domain.BrandStrategy
	Assets   []domain.GeneratedAsset
	// Result is attached to the stage's AgentProgress on completion.
	Result  any
	Message string
}

// Sink consumes progress updates. It is called synchronously; a non-nil
// error means the consumer is gone.
type Sink func(domain.ProgressUpdate) error
