package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
)

// ErrUnknownAssetKind rejects a regeneration before any external call.
var ErrUnknownAssetKind = errors.New("unknown asset kind")

// RegenerateRequest replaces one asset using a caller-supplied prompt.
type RegenerateRequest struct {
	AssetType      string               `json:"asset_type"`
	OriginalPrompt string               `json:"original_prompt"`
	NewPrompt      string               `json:"new_prompt"`
	Strategy       domain.BrandStrategy `json:"brand_strategy"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
}

// Regenerator produces a single replacement asset. Unlike the pipeline it
// surfaces provider errors instead of returning a placeholder.
type Regenerator struct {
	studio *media.Studio
	logger *slog.Logger
}

func NewRegenerator(studio *media.Studio, logger *slog.Logger) *Regenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Regenerator{
		studio: studio,
		logger: logger.With("component", "regenerator"),
	}
}

func (r *Regenerator) Regenerate(ctx context.Context, req RegenerateRequest) (domain.GeneratedAsset, error) {
	kind, ok := domain.ParseAssetKind(req.AssetType)
	if !ok {
		return domain.GeneratedAsset{}, fmt.Errorf("%w: %q", ErrUnknownAssetKind, req.AssetType)
	}

	s := req.Strategy
	platform := ""
	if kind == domain.AssetSocialPost {
		platform, _ = req.Metadata[domain.MetaPlatform].(string)
		if platform == "" {
			platform = DefaultPlatform
		}
	}
	prompt := regenerationPrompt(kind, req.NewPrompt, s, platform)

	log := r.logger.With("kind", kind, "company", s.CompanyName)
	log.Info("regenerating asset")

	var (
		asset domain.GeneratedAsset
		err   error
	)
	switch kind {
	case domain.AssetLogo:
		asset, err = r.studio.TryImage(ctx, media.ImageRequest{
			Kind: kind, Prompt: prompt, Size: media.SizeSquareHD, Quality: media.QualityHigh,
		})
	case domain.AssetMockup:
		asset, err = r.studio.TryImage(ctx, media.ImageRequest{
			Kind: kind, Prompt: prompt, Size: media.SizeLandscape16x9, Quality: media.QualityFast,
		})
	case domain.AssetSocialPost:
		asset, err = r.studio.TryImage(ctx, media.ImageRequest{
			Kind: kind, Prompt: prompt, Size: PlatformSize(platform), Quality: media.QualityFast, Platform: platform,
		})
	case domain.AssetVideo:
		asset, err = r.studio.TryVideo(ctx, media.VideoRequest{
			Prompt: prompt, Aspect: media.Aspect16x9, Audio: true,
		})
		if err == nil {
			asset.Metadata["duration"] = VideoDuration
		}
	}
	if err != nil {
		log.Error("regeneration failed", "error", err)
		return domain.GeneratedAsset{}, fmt.Errorf("regenerate %s: %w", kind, err)
	}

	asset.Filename = domain.AssetFilename(kind, s.CompanyName, platform, true)
	asset.Metadata[domain.MetaCustomPrompt] = req.NewPrompt
	asset.Metadata[domain.MetaRegenerated] = true
	if req.OriginalPrompt != "" {
		asset.Metadata["original_prompt"] = req.OriginalPrompt
	}
	return asset, nil
}
