package stage

import (
	"fmt"
	"strings"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

// FallbackStrategy is the complete, valid strategy used when the text
// provider cannot produce one.
func FallbackStrategy() domain.BrandStrategy {
	return domain.BrandStrategy{
		CompanyName:          "StartupCo",
		AlternativeNames:     []string{"InnovateCo", "TechVenture", "NextGen"},
		Tagline:              "Innovation Made Simple",
		PositioningStatement: "For forward-thinking professionals who need cutting-edge solutions, StartupCo is the technology platform that delivers innovation made simple",
		Industry:             "Technology",
		TargetAudience:       "Tech-savvy professionals aged 25-45 looking for innovative solutions",
		CustomerPainPoints: []string{
			"Complex existing solutions",
			"High costs of current alternatives",
			"Lack of integration capabilities",
		},
		UniqueValueProposition: "10x faster implementation with AI-powered automation",
		CompetitiveAdvantage:   "Proprietary AI technology with network effects",
		BrandPersonality:       []string{"innovative", "reliable", "modern", "approachable"},
		BrandArchetype:         "Creator",
		BrandValues: []domain.BrandValue{
			{Value: "Innovation", Explanation: "Constantly pushing boundaries to create better solutions"},
			{Value: "Simplicity", Explanation: "Making complex technology accessible to everyone"},
			{Value: "Reliability", Explanation: "Building trust through consistent performance"},
		},
		BrandStory: "Born from frustration with overcomplicated enterprise software, StartupCo exists to democratize access to powerful technology. We believe innovation should empower, not overwhelm.",
		ColorScheme: map[string]string{
			domain.ColorPrimary:   "#6366f1",
			domain.ColorSecondary: "#8b5cf6",
			domain.ColorAccent:    "#06b6d4",
		},
		LogoStyle:      "modern geometric design with subtle gradients",
		VisualElements: []string{"clean lines", "geometric shapes", "gradient accents", "open space", "forward motion"},
		TypographyRecommendations: map[string]string{
			"primary":   "Inter or SF Pro Display",
			"secondary": "Inter or SF Pro Text",
		},
		DomainSuggestions: []string{"startupco.com", "getstartupco.com", "startupco.io"},
		SocialHandlesAvailability: map[string]bool{
			"instagram": true,
			"twitter":   true,
			"linkedin":  true,
			"tiktok":    true,
		},
	}
}

func firstPainPoint(s domain.BrandStrategy, def string) string {
	if len(s.CustomerPainPoints) > 0 {
		return s.CustomerPainPoints[0]
	}
	return def
}

func firstAudience(s domain.BrandStrategy) string {
	return strings.TrimSpace(strings.Split(s.TargetAudience, ",")[0])
}

// FallbackCopy is the deterministic post copy for a platform.
func FallbackCopy(s domain.BrandStrategy, platform string) string {
	switch platform {
	case "instagram":
		return fmt.Sprintf(`Tired of %s?

We get it. That's why we built %s.

%s

Swipe to see how we're changing the game for %s →

#startup #%s #innovation #futureofwork`,
			strings.ToLower(firstPainPoint(s, "the status quo")),
			s.CompanyName, s.Tagline, s.TargetAudience,
			hashtag(s.Industry))
	case "linkedin":
		return fmt.Sprintf(`The %s industry is broken.

%s.

At %s, we're taking a different approach: %s

%s

Ready to see it for yourself?

#%s #Innovation #StartupLife #Leadership`,
			s.Industry,
			firstPainPoint(s, "Current solutions fall short"),
			s.CompanyName, s.UniqueValueProposition,
			s.PositioningStatement,
			hashtag(s.Industry))
	case "twitter":
		return fmt.Sprintf(`%s is killing productivity.

There's a better way: %s

Introducing %s. %s

#%s #buildinpublic`,
			firstPainPoint(s, "The old way"),
			s.Tagline,
			s.CompanyName, s.UniqueValueProposition,
			hashtag(s.CompanyName))
	}
	return s.Tagline + " - " + s.CompanyName
}

// FallbackScript is the deterministic promo script for a strategy.
func FallbackScript(s domain.BrandStrategy) Script {
	return Script{
		Hook:                 fmt.Sprintf("What if %s was actually simple?", strings.ToLower(s.Industry)),
		ProblemVisualization: "Frustrated professionals struggling with " + strings.ToLower(firstPainPoint(s, "complex solutions")),
		SolutionReveal:       s.CompanyName + " interface appearing with a smooth, modern reveal",
		BenefitDemonstration: "Happy users achieving " + s.UniqueValueProposition,
		CTA:                  "Join thousands already using " + s.CompanyName,
		KeyMessages: []string{
			s.Tagline,
			"For " + firstAudience(s),
			"Start free today",
			s.CompanyName,
		},
		VisualDirections: fmt.Sprintf("%s aesthetic with %s accents",
			strings.Join(s.BrandPersonality, ", "), s.Color(domain.ColorPrimary, defaultPrimary)),
		MusicMood: "upbeat and inspirational",
	}
}

func hashtag(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "").Replace(s))
}
