package stage_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/brandkit/internal/agent"
	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/media"
	"github.com/vampirenirmal/brandkit/internal/stage"
)

const sampleIdea = "AI-powered fitness app that creates personalized workout plans"

type harness struct {
	text   *agent.MockClient
	images *media.MockClient
	gen    *agent.Generator
	studio *media.Studio
}

func newHarness(text *agent.MockClient) *harness {
	if text == nil {
		text = agent.NewMockClient()
	}
	images := media.NewMockClient()
	return &harness{
		text:   text,
		images: images,
		gen:    agent.NewGenerator(text),
		studio: media.NewStudio(images),
	}
}

func (h *harness) run(t *testing.T) (*domain.BrandPackage, []domain.ProgressUpdate) {
	t.Helper()
	req, err := domain.NewSimpleRequest(sampleIdea)
	require.NoError(t, err)

	var updates []domain.ProgressUpdate
	orch := core.New(stage.Pipeline(h.gen, h.studio, 3))
	pkg, err := orch.Run(context.Background(), req, func(u domain.ProgressUpdate) error {
		updates = append(updates, u)
		return nil
	})
	require.NoError(t, err)
	return pkg, updates
}

func TestPipelineProducesFullPackage(t *testing.T) {
	h := newHarness(nil)
	pkg, updates := h.run(t)

	require.NotNil(t, pkg)
	assert.Equal(t, "Repforge", pkg.Strategy.CompanyName)
	assert.NotContains(t, pkg.Strategy.ColorScheme, "rationale")

	require.Len(t, pkg.Assets, 6)
	assert.Len(t, pkg.AssetsOf(domain.AssetLogo), 1)
	assert.Len(t, pkg.AssetsOf(domain.AssetMockup), 1)
	assert.Len(t, pkg.AssetsOf(domain.AssetSocialPost), 3)
	assert.Len(t, pkg.AssetsOf(domain.AssetVideo), 1)
	for _, a := range pkg.Assets {
		assert.False(t, a.Failed(), "%s should not be a placeholder", a.Filename)
		assert.NotEmpty(t, a.Prompt(), a.Filename)
	}

	last := updates[len(updates)-1]
	assert.True(t, last.Succeeded())
	assert.Equal(t, 100, last.OverallProgress)

	names := make([]string, 0, len(last.Agents))
	for _, a := range last.Agents {
		names = append(names, a.AgentName)
	}
	assert.Equal(t, []string{stage.NameStrategy, stage.NameVisual, stage.NameSocial, stage.NameVideo}, names)
}

func TestVisualStageQualityTiers(t *testing.T) {
	h := newHarness(nil)
	pkg, _ := h.run(t)

	logo := pkg.AssetsOf(domain.AssetLogo)[0]
	mockup := pkg.AssetsOf(domain.AssetMockup)[0]
	assert.Equal(t, "high", logo.Metadata["quality"])
	assert.Equal(t, "fast", mockup.Metadata["quality"])
	assert.Equal(t, "logo_repforge.png", logo.Filename)
	assert.Equal(t, "mockup_repforge.png", mockup.Filename)
	assert.Equal(t, "Start Free Trial", mockup.Metadata["cta"])
	assert.Contains(t, logo.Prompt(), "dumbbells")
}

func TestSocialStageKeepsPlatformOrder(t *testing.T) {
	h := newHarness(nil)
	pkg, _ := h.run(t)

	posts := pkg.AssetsOf(domain.AssetSocialPost)
	require.Len(t, posts, 3)
	for i, p := range stage.Platforms {
		assert.Equal(t, p.Name, posts[i].Metadata[domain.MetaPlatform])
		assert.Equal(t, p.Size, posts[i].Metadata["size"])
		assert.Equal(t, "social_"+p.Name+"_repforge.png", posts[i].Filename)
	}
	assert.Contains(t, posts[1].Metadata["copy"], "Most training plans")
	assert.Contains(t, posts[2].Metadata["copy"], "2010 idea")
}

func TestVideoStageUsesLogoAndScript(t *testing.T) {
	h := newHarness(nil)
	pkg, _ := h.run(t)

	logo := pkg.AssetsOf(domain.AssetLogo)[0]
	video := pkg.AssetsOf(domain.AssetVideo)[0]
	assert.Contains(t, video.Prompt(), logo.URL)
	assert.Contains(t, video.Prompt(), "A stopwatch freezes mid-rep")
	assert.Equal(t, stage.VideoDuration, video.Metadata["duration"])
	assert.Equal(t, true, video.Metadata["audio_enabled"])

	script, ok := video.Metadata["script"].(stage.Script)
	require.True(t, ok)
	assert.Len(t, script.KeyMessages, 3)
}

func TestPipelineSurvivesMockupFailure(t *testing.T) {
	h := newHarness(nil)
	h.images.FailWhen = media.PromptContains("landing page mockup", errors.New("model overloaded"))
	pkg, updates := h.run(t)

	require.Len(t, pkg.Assets, 6)
	mockup := pkg.AssetsOf(domain.AssetMockup)[0]
	logo := pkg.AssetsOf(domain.AssetLogo)[0]

	assert.True(t, mockup.Failed())
	assert.Contains(t, mockup.Metadata[domain.MetaError], "model overloaded")
	assert.Equal(t, media.PlaceholderURL(domain.AssetMockup, ""), mockup.URL)
	assert.False(t, logo.Failed())
	assert.True(t, updates[len(updates)-1].Succeeded())
}

func TestPipelineFallsBackWhenTextProviderDown(t *testing.T) {
	down := agent.NewMockClientWith(agent.MockRule{Match: []string{""}, Err: errors.New("503")})
	h := newHarness(down)
	pkg, _ := h.run(t)

	assert.Equal(t, "StartupCo", pkg.Strategy.CompanyName)
	require.Len(t, pkg.Assets, 6)

	posts := pkg.AssetsOf(domain.AssetSocialPost)
	assert.Equal(t, stage.FallbackCopy(stage.FallbackStrategy(), "linkedin"), posts[1].Metadata["copy"])

	video := pkg.AssetsOf(domain.AssetVideo)[0]
	assert.Equal(t, stage.FallbackScript(stage.FallbackStrategy()), video.Metadata["script"])
}

func TestStrategyStageRejectsInvalidStrategy(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*domain.BrandStrategy)
		wantErr       bool
		wantArchetype string
	}{
		{
			name:    "unknown archetype",
			mutate:  func(s *domain.BrandStrategy) { s.BrandArchetype = "Wizard" },
			wantErr: true,
		},
		{
			name:    "required color not hex",
			mutate:  func(s *domain.BrandStrategy) { s.ColorScheme["primary"] = "navy" },
			wantErr: true,
		},
		{
			name:          "extra color slot not hex",
			mutate:        func(s *domain.BrandStrategy) { s.ColorScheme["background"] = "off-white" },
			wantArchetype: "Creator",
		},
		{
			name:          "archetype with article",
			mutate:        func(s *domain.BrandStrategy) { s.BrandArchetype = "The Creator" },
			wantArchetype: "Creator",
		},
		{
			name:          "archetype lowercase",
			mutate:        func(s *domain.BrandStrategy) { s.BrandArchetype = "regular person" },
			wantArchetype: "Regular Person",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := stage.FallbackStrategy()
			tt.mutate(&strategy)
			raw, err := json.Marshal(strategy)
			require.NoError(t, err)

			text := agent.NewMockClientWith(agent.MockRule{Match: []string{"brand strategist"}, Response: string(raw)})
			st := stage.NewStrategyStage(agent.NewGenerator(text))

			req, _ := domain.NewSimpleRequest(sampleIdea)
			out, err := st.Execute(context.Background(), core.StageInput{Request: req})

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsStageError(err))
				assert.True(t, core.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, out.Strategy)
			assert.Equal(t, tt.wantArchetype, out.Strategy.BrandArchetype)
			assert.NotContains(t, out.Strategy.ColorScheme, "background")
		})
	}
}

func TestStrategyStageMissingKeyFallsBack(t *testing.T) {
	text := agent.NewMockClientWith(agent.MockRule{
		Match:    []string{"brand strategist"},
		Response: `{"company_name": "Halfdone", "tagline": "Almost"}`,
	})
	st := stage.NewStrategyStage(agent.NewGenerator(text))

	req, _ := domain.NewSimpleRequest(sampleIdea)
	s, outcome, err := st.Plan(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, outcome.Fallback)

	var missing *agent.MissingKeyError
	assert.ErrorAs(t, outcome.Cause, &missing)
	assert.Equal(t, "StartupCo", s.CompanyName)
}

func TestLaterStagesRequireStrategy(t *testing.T) {
	h := newHarness(nil)
	for _, st := range stage.Pipeline(h.gen, h.studio, 1)[1:] {
		_, err := st.Execute(context.Background(), core.StageInput{})
		assert.ErrorIs(t, err, core.ErrMissingDependency, st.Name())
	}
	assert.Empty(t, h.images.Jobs())
}

func TestRegenerate(t *testing.T) {
	strategy := stage.FallbackStrategy()
	custom := "Neon skyline behind a single bold wordmark"

	tests := []struct {
		name     string
		req      stage.RegenerateRequest
		filename string
		size     string
	}{
		{
			name:     "logo",
			req:      stage.RegenerateRequest{AssetType: "logo", NewPrompt: custom, Strategy: strategy},
			filename: "logo_startupco_regenerated.png",
			size:     string(media.SizeSquareHD),
		},
		{
			name:     "mockup",
			req:      stage.RegenerateRequest{AssetType: "mockup", NewPrompt: custom, Strategy: strategy},
			filename: "mockup_startupco_regenerated.png",
			size:     string(media.SizeLandscape16x9),
		},
		{
			name: "social with platform",
			req: stage.RegenerateRequest{
				AssetType: "social_post", NewPrompt: custom, Strategy: strategy,
				Metadata: map[string]any{"platform": "linkedin"},
			},
			filename: "social_linkedin_startupco_regenerated.png",
			size:     string(media.SizeLandscape4x3),
		},
		{
			name:     "social defaults to instagram",
			req:      stage.RegenerateRequest{AssetType: "social_post", NewPrompt: custom, Strategy: strategy},
			filename: "social_instagram_startupco_regenerated.png",
			size:     string(media.SizeSquareHD),
		},
		{
			name:     "video",
			req:      stage.RegenerateRequest{AssetType: "video", NewPrompt: custom, Strategy: strategy},
			filename: "promo_startupco_regenerated.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := media.NewMockClient()
			r := stage.NewRegenerator(media.NewStudio(images), nil)

			asset, err := r.Regenerate(context.Background(), tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.filename, asset.Filename)
			assert.True(t, strings.HasPrefix(asset.Prompt(), custom))
			assert.Equal(t, custom, asset.Metadata[domain.MetaCustomPrompt])
			assert.Equal(t, true, asset.Metadata[domain.MetaRegenerated])
			assert.False(t, asset.Failed())
			if tt.size != "" {
				assert.Equal(t, tt.size, asset.Metadata["size"])
			}
			assert.Len(t, images.Jobs(), 1)
		})
	}
}

func TestRegenerateSurfacesFailure(t *testing.T) {
	images := media.NewMockClient()
	images.FailWhen = func(string, map[string]any) error { return errors.New("quota exceeded") }
	r := stage.NewRegenerator(media.NewStudio(images), nil)

	asset, err := r.Regenerate(context.Background(), stage.RegenerateRequest{
		AssetType: "logo",
		NewPrompt: "Something new",
		Strategy:  stage.FallbackStrategy(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, asset.URL)
}

func TestRegenerateUnknownKind(t *testing.T) {
	images := media.NewMockClient()
	r := stage.NewRegenerator(media.NewStudio(images), nil)

	_, err := r.Regenerate(context.Background(), stage.RegenerateRequest{AssetType: "banner", NewPrompt: "x"})
	assert.ErrorIs(t, err, stage.ErrUnknownAssetKind)
	assert.Empty(t, images.Jobs())
}
