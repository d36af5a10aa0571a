package media

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

// SizeClass is a named output size understood by the image models.
type SizeClass string

const (
	SizeSquareHD      SizeClass = "square_hd"
	SizeLandscape4x3  SizeClass = "landscape_4_3"
	SizeLandscape16x9 SizeClass = "landscape_16_9"
)

// QualityTier trades latency for fidelity.
type QualityTier int

const (
	QualityHigh QualityTier = iota
	QualityFast
)

func (q QualityTier) String() string {
	if q == QualityHigh {
		return "high"
	}
	return "fast"
}

// Aspect is a video aspect ratio.
type Aspect string

const Aspect16x9 Aspect = "16:9"

// Models maps quality tiers and video onto provider model ids.
type Models struct {
	High  string `yaml:"high"`
	Fast  string `yaml:"fast"`
	Video string `yaml:"video"`
}

func DefaultModels() Models {
	return Models{
		High:  "fal-ai/flux/dev",
		Fast:  "fal-ai/flux/schnell",
		Video: "fal-ai/veo3",
	}
}

type ImageRequest struct {
	Kind     domain.AssetKind
	Prompt   string
	Size     SizeClass
	Quality  QualityTier
	Platform string
}

type VideoRequest struct {
	Prompt string
	Aspect Aspect
	Audio  bool
}

// Studio produces assets from prompts. Generate* never fail and fall back
// to a placeholder; Try* surface the error instead.
type Studio struct {
	runner Runner
	models Models
	logger *slog.Logger
}

type StudioOption func(*Studio)

func WithModels(m Models) StudioOption {
	return func(s *Studio) {
		s.models = m
	}
}

func WithStudioLogger(logger *slog.Logger) StudioOption {
	return func(s *Studio) {
		s.logger = logger.With("component", "studio")
	}
}

func NewStudio(runner Runner, opts ...StudioOption) *Studio {
	s := &Studio{
		runner: runner,
		models: DefaultModels(),
		logger: slog.Default().With("component", "studio"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Studio) GenerateImage(ctx context.Context, req ImageRequest) domain.GeneratedAsset {
	asset, err := s.TryImage(ctx, req)
	if err != nil {
		return s.placeholder(req.Kind, req.Platform, req.Prompt, err)
	}
	return asset
}

func (s *Studio) GenerateVideo(ctx context.Context, req VideoRequest) domain.GeneratedAsset {
	asset, err := s.TryVideo(ctx, req)
	if err != nil {
		return s.placeholder(domain.AssetVideo, "", req.Prompt, err)
	}
	return asset
}

func (s *Studio) TryImage(ctx context.Context, req ImageRequest) (domain.GeneratedAsset, error) {
	input := map[string]any{
		"prompt":                req.Prompt,
		"image_size":            string(req.Size),
		"enable_safety_checker": true,
	}
	model := s.models.Fast
	if req.Quality == QualityHigh {
		model = s.models.High
		input["num_inference_steps"] = 50
		input["guidance_scale"] = 7.5
	} else {
		input["num_inference_steps"] = 4
	}

	asset, err := s.run(ctx, model, input, req.Kind)
	if err != nil {
		return domain.GeneratedAsset{}, err
	}
	asset.Metadata["size"] = string(req.Size)
	asset.Metadata["quality"] = req.Quality.String()
	if req.Platform != "" {
		asset.Metadata[domain.MetaPlatform] = req.Platform
	}
	return asset, nil
}

func (s *Studio) TryVideo(ctx context.Context, req VideoRequest) (domain.GeneratedAsset, error) {
	aspect := req.Aspect
	if aspect == "" {
		aspect = Aspect16x9
	}
	input := map[string]any{
		"prompt":         req.Prompt,
		"aspect_ratio":   string(aspect),
		"generate_audio": req.Audio,
		"enhance_prompt": true,
	}

	asset, err := s.run(ctx, s.models.Video, input, domain.AssetVideo)
	if err != nil {
		return domain.GeneratedAsset{}, err
	}
	asset.Metadata["aspect_ratio"] = string(aspect)
	asset.Metadata["audio_enabled"] = req.Audio
	return asset, nil
}

// run is the single call site for the provider; panics become errors.
func (s *Studio) run(ctx context.Context, model string, input map[string]any, kind domain.AssetKind) (asset domain.GeneratedAsset, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("media runner panic: %v", r)
		}
	}()

	res, err := s.runner.Run(ctx, model, input)
	if err != nil {
		return domain.GeneratedAsset{}, fmt.Errorf("%s generation: %w", kind, err)
	}
	url, err := res.URL()
	if err != nil {
		return domain.GeneratedAsset{}, fmt.Errorf("%s generation: %w", kind, err)
	}

	return domain.GeneratedAsset{
		Type: kind,
		URL:  url,
		Metadata: map[string]any{
			domain.MetaPrompt: input["prompt"],
			domain.MetaModel:  model,
		},
	}, nil
}

func (s *Studio) placeholder(kind domain.AssetKind, platform, prompt string, cause error) domain.GeneratedAsset {
	s.logger.Warn("asset generation failed, using placeholder",
		"kind", kind,
		"platform", platform,
		"error", cause)
	return Placeholder(kind, platform, prompt, cause)
}

// PlaceholderURL returns a fixed, publicly resolvable stand-in per kind.
func PlaceholderURL(kind domain.AssetKind, platform string) string {
	switch kind {
	case domain.AssetLogo:
		return "https://via.placeholder.com/512x512/6366f1/ffffff?text=LOGO"
	case domain.AssetMockup:
		return "https://via.placeholder.com/800x450/8b5cf6/ffffff?text=WEBSITE+MOCKUP"
	case domain.AssetVideo:
		return "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_1mb.mp4"
	default:
		label := strings.ToUpper(platform)
		if label == "" {
			label = "SOCIAL"
		}
		return "https://via.placeholder.com/400x400/06b6d4/ffffff?text=" + label + "+POST"
	}
}

// Placeholder builds the asset returned in place of a failed generation.
func Placeholder(kind domain.AssetKind, platform, prompt string, cause error) domain.GeneratedAsset {
	meta := map[string]any{
		domain.MetaPrompt:      prompt,
		domain.MetaError:       cause.Error(),
		domain.MetaPlaceholder: true,
	}
	if platform != "" {
		meta[domain.MetaPlatform] = platform
	}
	return domain.GeneratedAsset{
		Type:     kind,
		URL:      PlaceholderURL(kind, platform),
		Metadata: meta,
	}
}
