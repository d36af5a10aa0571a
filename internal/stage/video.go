package stage

import (
	"context"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
)

// VideoDuration is the promo length in seconds.
const VideoDuration = "8"

// Script is a promo broken into timed beats.
type Script struct {
	Hook                 string   `json:"hook"`
	ProblemVisualization string   `json:"problem_visualization"`
	SolutionReveal       string   `json:"solution_reveal"`
	BenefitDemonstration string   `json:"benefit_demonstration"`
	CTA                  string   `json:"cta"`
	KeyMessages          []string `json:"key_messages"`
	VisualDirections     string   `json:"visual_directions"`
	MusicMood            string   `json:"music_mood"`
}

var scriptKeys = []string{
	"hook", "problem_visualization", "solution_reveal", "benefit_demonstration",
	"cta", "key_messages", "visual_directions", "music_mood",
}

// VideoStage scripts the promo and renders it.
type VideoStage struct {
	base
	gen    *agent.Generator
	studio *media.Studio
}

func NewVideoStage(gen *agent.Generator, studio *media.Studio, opts ...Option) *VideoStage {
	return &VideoStage{
		base:   newBase(NameVideo, "Scripting your promotional video", opts...),
		gen:    gen,
		studio: studio,
	}
}

func (v *VideoStage) Execute(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
	if err := v.requireStrategy(in); err != nil {
		return core.StageOutput{}, err
	}
	started := v.logStart(in)
	s := *in.Strategy

	script, outcome := agent.Structured(ctx, v.gen, agent.PromptSpec{
		Stage:  v.name,
		Prompt: scriptPrompt(s),
		Schema: scriptKeys,
	}, func() Script { return FallbackScript(s) })
	if outcome.Fallback {
		v.logger.Warn("using fallback script", "cause", outcome.Cause)
	}
	if len(script.KeyMessages) < 3 {
		script.KeyMessages = FallbackScript(s).KeyMessages
	} else if len(script.KeyMessages) > 4 {
		script.KeyMessages = script.KeyMessages[:4]
	}
	in.Progress(40, "Script written, rendering video")

	asset := v.studio.GenerateVideo(ctx, media.VideoRequest{
		Prompt: videoPrompt(s, script, in.LogoURL()),
		Aspect: media.Aspect16x9,
		Audio:  true,
	})
	asset.Filename = domain.AssetFilename(domain.AssetVideo, s.CompanyName, "", false)
	asset.Metadata["script"] = script
	asset.Metadata["duration"] = VideoDuration
	asset.Metadata["audio_enabled"] = true

	out := core.StageOutput{
		Assets:  []domain.GeneratedAsset{asset},
		Result:  asset,
		Message: "Promotional video created",
	}
	v.logComplete(in, out, started)
	return out, nil
}
