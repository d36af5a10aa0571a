package stage

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
)

// VisualStage renders the logo and the landing-page mockup concurrently.
type VisualStage struct {
	base
	studio *media.Studio
}

func NewVisualStage(studio *media.Studio, opts ...Option) *VisualStage {
	return &VisualStage{
		base:   newBase(NameVisual, "Designing your logo and website mockup", opts...),
		studio: studio,
	}
}

func (v *VisualStage) Execute(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
	if err := v.requireStrategy(in); err != nil {
		return core.StageOutput{}, err
	}
	started := v.logStart(in)
	s := *in.Strategy

	var (
		logo, mockup domain.GeneratedAsset
		done         atomic.Int32
	)
	finished := func(what string) {
		n := done.Add(1)
		in.Progress(int(n)*50, what+" ready")
	}

	// Studio never fails, so the group only joins.
	var g errgroup.Group
	g.Go(func() error {
		logo = v.studio.GenerateImage(ctx, media.ImageRequest{
			Kind:    domain.AssetLogo,
			Prompt:  logoPrompt(s),
			Size:    media.SizeSquareHD,
			Quality: media.QualityHigh,
		})
		logo.Filename = domain.AssetFilename(domain.AssetLogo, s.CompanyName, "", false)
		logo.Metadata["style"] = s.LogoStyle
		finished("Logo")
		return nil
	})
	g.Go(func() error {
		mockup = v.studio.GenerateImage(ctx, media.ImageRequest{
			Kind:    domain.AssetMockup,
			Prompt:  mockupPrompt(s),
			Size:    media.SizeLandscape16x9,
			Quality: media.QualityFast,
		})
		mockup.Filename = domain.AssetFilename(domain.AssetMockup, s.CompanyName, "", false)
		mockup.Metadata["cta"] = CallToAction(s)
		finished("Website mockup")
		return nil
	})
	_ = g.Wait()

	assets := []domain.GeneratedAsset{logo, mockup}
	out := core.StageOutput{
		Assets:  assets,
		Result:  assets,
		Message: "Logo and website mockup created",
	}
	v.logComplete(in, out, started)
	return out, nil
}
