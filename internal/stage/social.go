package stage

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
)

// Platforms are written for and rendered in this order.
var Platforms = []Platform{
	{
		Name:     "instagram",
		PostType: "carousel",
		Strategy: "problem-agitation-solution",
		Tone:     "conversational, visual, aspirational",
		Format:   "3-slide carousel with hook, problem, solution",
		Hashtags: "3-5",
		Size:     string(media.SizeSquareHD),
	},
	{
		Name:     "linkedin",
		PostType: "thought_leadership",
		Strategy: "industry_insight",
		Tone:     "professional, insightful, data-driven",
		Format:   "professional insight with statistics and a call to action",
		Hashtags: "3-5",
		Size:     string(media.SizeLandscape4x3),
	},
	{
		Name:     "twitter",
		PostType: "thread_starter",
		Strategy: "controversial_take",
		Tone:     "bold, concise, engaging",
		Format:   "provocative statement that sparks discussion",
		Hashtags: "2-3",
		Size:     string(media.SizeLandscape16x9),
	},
}

// DefaultPlatform is used when a social asset names no platform.
const DefaultPlatform = "instagram"

// PlatformSize returns the render size for a platform, falling back to the
// default platform's size.
func PlatformSize(name string) media.SizeClass {
	for _, p := range Platforms {
		if p.Name == name {
			return media.SizeClass(p.Size)
		}
	}
	return media.SizeSquareHD
}

// SocialStage writes per-platform copy and renders one image per post.
type SocialStage struct {
	base
	gen         *agent.Generator
	studio      *media.Studio
	concurrency int
}

// NewSocialStage renders at most concurrency posts at a time; values below
// one mean one.
func NewSocialStage(gen *agent.Generator, studio *media.Studio, concurrency int, opts ...Option) *SocialStage {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SocialStage{
		base:        newBase(NameSocial, "Writing social media copy for each platform", opts...),
		gen:         gen,
		studio:      studio,
		concurrency: concurrency,
	}
}

type post struct {
	platform Platform
	copy     string
}

func (st *SocialStage) Execute(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
	if err := st.requireStrategy(in); err != nil {
		return core.StageOutput{}, err
	}
	started := st.logStart(in)
	s := *in.Strategy
	total := len(Platforms)

	posts := make([]post, total)
	for i, p := range Platforms {
		text, outcome := st.gen.Text(ctx, agent.PromptSpec{
			Stage:  st.name,
			Prompt: copywriterPrompt(s, p),
		}, FallbackCopy(s, p.Name))
		if outcome.Fallback {
			st.logger.Warn("using fallback copy", "platform", p.Name, "cause", outcome.Cause)
		}
		posts[i] = post{platform: p, copy: text}
		in.Progress((i+1)*50/total, fmt.Sprintf("%s copy written", titleCase(p.Name)))
	}

	assets := make([]domain.GeneratedAsset, total)
	var rendered atomic.Int32

	g := new(errgroup.Group)
	g.SetLimit(st.concurrency)
	for i, p := range posts {
		g.Go(func() error {
			asset := st.studio.GenerateImage(ctx, media.ImageRequest{
				Kind:     domain.AssetSocialPost,
				Prompt:   socialImagePrompt(s, p.platform, p.copy),
				Size:     media.SizeClass(p.platform.Size),
				Quality:  media.QualityFast,
				Platform: p.platform.Name,
			})
			asset.Filename = domain.AssetFilename(domain.AssetSocialPost, s.CompanyName, p.platform.Name, false)
			asset.Metadata[domain.MetaPlatform] = p.platform.Name
			asset.Metadata["copy"] = p.copy
			assets[i] = asset

			n := int(rendered.Add(1))
			in.Progress(50+n*50/total, fmt.Sprintf("%s post rendered", titleCase(p.platform.Name)))
			return nil
		})
	}
	_ = g.Wait()

	out := core.StageOutput{
		Assets:  assets,
		Result:  assets,
		Message: fmt.Sprintf("%d social posts created", len(assets)),
	}
	st.logComplete(in, out, started)
	return out, nil
}
