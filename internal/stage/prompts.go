package stage

import (
	"fmt"
	"strings"

	"github.com/vampirenirmal/brandkit/internal/domain"
)

const notSpecified = "Not specified"

// Default hex values used when a strategy leaves a color slot empty.
const (
	defaultPrimary   = "#6366f1"
	defaultSecondary = "#8b5cf6"
)

const strategistSystem = `You are a Silicon Valley brand strategist who has worked with Y Combinator startups and Fortune 500 companies.

Analyze the startup idea through multiple strategic lenses and produce a comprehensive, actionable brand strategy as JSON with exactly these keys:
{
  "company_name": "unique, trademark-friendly name with strong recall",
  "alternative_names": ["3-4 alternatives"],
  "tagline": "benefit-driven, 3-8 words",
  "positioning_statement": "For [target] who [need], [brand] is the [category] that [unique benefit]",
  "industry": "primary industry",
  "target_audience": "demographics, psychographics and behavior",
  "customer_pain_points": ["3-5 specific, urgent problems"],
  "unique_value_proposition": "what makes this 10x better",
  "competitive_advantage": "sustainable moat",
  "brand_personality": ["3-5 traits"],
  "brand_archetype": "one of: Explorer, Sage, Hero, Outlaw, Magician, Regular Person, Lover, Jester, Caregiver, Creator, Ruler, Innocent",
  "brand_values": [{"value": "name", "explanation": "how it shows up"}],
  "brand_story": "50-100 word narrative",
  "color_scheme": {"primary": "#hex with WCAG AA contrast", "secondary": "#hex", "accent": "#hex"},
  "logo_style": "specific direction avoiding cliches",
  "visual_elements": ["5-7 elements"],
  "typography_recommendations": {"primary": "headline font", "secondary": "body font"},
  "domain_suggestions": ["3-5 .com domains"],
  "social_handles_availability": {"instagram": true, "twitter": true, "linkedin": true, "tiktok": true}
}

Guidelines:
1. Identify a defensible niche in the competitive landscape.
2. Avoid generic names and taglines.
3. Names must be distinctive and unlikely to conflict with existing trademarks.
4. Every recommendation must be immediately actionable.

Respond with valid JSON only.`

func strategyPrompt(req domain.BrandRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Startup idea to analyze: %s\n", req.Idea())

	if d, ok := req.(domain.DetailedRequest); ok {
		b.WriteString("\nAdditional context:\n")
		fmt.Fprintf(&b, "- Business model: %s\n", orDefault(d.BusinessModel))
		fmt.Fprintf(&b, "- Industry vertical: %s\n", orDefault(d.IndustryVertical))
		fmt.Fprintf(&b, "- Target demographics: %s\n", orDefault(d.TargetDemographics))
		fmt.Fprintf(&b, "- Key differentiators: %s\n", orDefault(d.KeyDifferentiators))
		fmt.Fprintf(&b, "- Known competitors: %s\n", joinOrDefault(d.Competitors))
		fmt.Fprintf(&b, "- Personality preferences: %s\n", joinOrDefault(d.BrandPersonalityPreferences))
		fmt.Fprintf(&b, "- Visual style preferences: %s\n", orDefault(d.VisualStylePreferences))
		fmt.Fprintf(&b, "- Budget: %s\n", orDefault(d.BudgetConstraints))
		fmt.Fprintf(&b, "- Timeline: %s\n", orDefault(d.Timeline))
		b.WriteString("\nTailor the strategy to these needs and constraints.\n")
	}
	return b.String()
}

var industryCliches = map[string]string{
	"Technology": "lightbulbs, gears, circuit boards, generic globe icons",
	"Healthcare": "cross symbols, stethoscopes, heartbeat lines, pills",
	"Finance":    "dollar signs, piggy banks, ascending graphs, handshakes",
	"Education":  "graduation caps, books, apples, pencils",
	"E-commerce": "shopping carts, bags, generic storefronts",
	"Fitness":    "dumbbells, running figures, flexing arms",
	"Food":       "chef hats, forks and knives, generic plates",
}

// IndustryCliches returns the imagery a logo for industry should avoid.
func IndustryCliches(industry string) string {
	if c, ok := industryCliches[industry]; ok {
		return c
	}
	return "generic symbols, overused icons"
}

// CallToAction derives the mockup button text from a strategy. It depends
// only on the value proposition and industry.
func CallToAction(s domain.BrandStrategy) string {
	uvp := strings.ToLower(s.UniqueValueProposition)
	industry := strings.ToLower(s.Industry)
	switch {
	case strings.Contains(uvp, "free"):
		return "Start Free Trial"
	case strings.Contains(uvp, "demo"):
		return "Book a Demo"
	case strings.Contains(industry, "marketplace"):
		return "Join Now"
	case strings.Contains(industry, "service"):
		return "Get Started"
	}
	return "Try It Now"
}

func logoPrompt(s domain.BrandStrategy) string {
	colors := "primary color " + s.Color(domain.ColorPrimary, defaultPrimary)
	if c := s.Color(domain.ColorSecondary, ""); c != "" {
		colors += " and secondary color " + c
	}
	if c := s.Color(domain.ColorAccent, ""); c != "" {
		colors += " with accent " + c
	}

	return fmt.Sprintf(`Create a professional logo for %s, a %s company.

Logo requirements:
- Symbol that represents: %s
- Style: %s matching the %s archetype
- Must work at 16x16px favicon size
- Include logomark and logotype versions
- Colors: %s (ensure WCAG AA contrast)
- Brand personality: %s
- Visual elements: %s

Context: %s
Target audience: %s

Avoid these industry cliches: %s

White background, vector style, clean lines, scalable design.`,
		s.CompanyName, s.Industry,
		s.UniqueValueProposition,
		s.LogoStyle, s.BrandArchetype,
		colors,
		strings.Join(s.BrandPersonality, ", "),
		strings.Join(s.VisualElements, ", "),
		s.PositioningStatement,
		s.TargetAudience,
		IndustryCliches(s.Industry))
}

func mockupPrompt(s domain.BrandStrategy) string {
	return fmt.Sprintf(`Create a landing page mockup for %s.

Above the fold:
- Headline: %s
- Subheadline: %s
- Hero section showing the product in use by %s
- CTA button: "%s"
- 3 key benefits addressing: %s

Visual style: %s feeling, %s design
Color scheme: primary %s, secondary %s
Layout: modern %s standards, mobile-first

Include features with icons, testimonials and trust badges.
High-quality, realistic mockup, professional UI design.`,
		s.CompanyName,
		s.Tagline,
		s.PositioningStatement,
		s.TargetAudience,
		CallToAction(s),
		strings.Join(s.TopPainPoints(3), ", "),
		strings.Join(s.BrandPersonality, ", "), s.LogoStyle,
		s.Color(domain.ColorPrimary, defaultPrimary), s.Color(domain.ColorSecondary, defaultSecondary),
		s.Industry)
}

// Platform describes how one social network is written for and rendered.
type Platform struct {
	Name     string
	PostType string
	Strategy string
	Tone     string
	Format   string
	Hashtags string
	Size     string
}

func copywriterPrompt(s domain.BrandStrategy, p Platform) string {
	return fmt.Sprintf(`You are a social media copywriter for %s.

Create a %s post for %s.

Brand context:
- Tagline: %s
- Value proposition: %s
- Target audience: %s
- Pain points: %s
- Personality: %s
- Story: %s

Platform requirements:
- Content strategy: %s
- Tone: %s
- Format: %s

Hook attention in the first line, address one pain point, present the solution naturally,
end with a clear call to action and use %s hashtags.
Return only the post copy.`,
		s.CompanyName,
		p.PostType, p.Name,
		s.Tagline,
		s.UniqueValueProposition,
		s.TargetAudience,
		strings.Join(s.TopPainPoints(3), ", "),
		strings.Join(s.BrandPersonality, ", "),
		s.BrandStory,
		p.Strategy, p.Tone, p.Format,
		p.Hashtags)
}

func socialImagePrompt(s domain.BrandStrategy, p Platform, copy string) string {
	return fmt.Sprintf(`Create a %s %s for %s.

Post copy to include: "%s"

Visual requirements:
- Overlay the text with readable placement
- Show %s benefiting from the product
- Brand personality: %s
- Primary color %s
- Subtle brand elements: %s

Professional, engaging design that complements the copy.`,
		titleCase(p.Name), p.PostType, s.CompanyName,
		copy,
		s.TargetAudience,
		strings.Join(s.BrandPersonality, ", "),
		s.Color(domain.ColorPrimary, defaultPrimary),
		strings.Join(firstN(s.VisualElements, 3), ", "))
}

const scriptSchemaHint = `{
  "hook": "opening scene that grabs attention (0-1s)",
  "problem_visualization": "the problem, shown visually (1-3s)",
  "solution_reveal": "dramatic reveal of the product (3-5s)",
  "benefit_demonstration": "the transformation (5-7s)",
  "cta": "call to action text (7-8s)",
  "key_messages": ["3-4 short text overlays"],
  "visual_directions": "visual style and mood",
  "music_mood": "background music"
}`

func scriptPrompt(s domain.BrandStrategy) string {
	return fmt.Sprintf(`You write the video script for short startup promos.

Create a compelling %s-second video script for %s.

Brand context:
- Tagline: %s
- Value proposition: %s
- Target audience: %s
- Pain points: %s
- Story: %s

Use exactly this structure:
%s

Make it emotional and focused on transformation. Return only the JSON.`,
		VideoDuration, s.CompanyName,
		s.Tagline,
		s.UniqueValueProposition,
		s.TargetAudience,
		strings.Join(s.TopPainPoints(3), ", "),
		s.BrandStory,
		scriptSchemaHint)
}

func videoPrompt(s domain.BrandStrategy, sc Script, logoURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an %s-second promotional video for %s.\n\n", VideoDuration, s.CompanyName)
	b.WriteString("Timeline:\n")
	fmt.Fprintf(&b, "- Hook (0-1s): %s\n", sc.Hook)
	fmt.Fprintf(&b, "- Problem (1-3s): %s\n", sc.ProblemVisualization)
	fmt.Fprintf(&b, "- Solution (3-5s): %s\n", sc.SolutionReveal)
	fmt.Fprintf(&b, "- Benefit (5-7s): %s\n", sc.BenefitDemonstration)
	fmt.Fprintf(&b, "- CTA (7-8s): %s\n\n", sc.CTA)
	fmt.Fprintf(&b, "Text overlays: %s\n", strings.Join(sc.KeyMessages, ", "))
	fmt.Fprintf(&b, "Visual style: %s\n", sc.VisualDirections)
	fmt.Fprintf(&b, "Audio: %s background music with synchronized voiceover\n\n", sc.MusicMood)
	b.WriteString("Brand elements:\n")
	fmt.Fprintf(&b, "- Colors: %s primary palette\n", s.Color(domain.ColorPrimary, defaultPrimary))
	fmt.Fprintf(&b, "- Style: %s\n", s.LogoStyle)
	fmt.Fprintf(&b, "- Personality: %s\n", strings.Join(s.BrandPersonality, ", "))
	if logoURL != "" {
		fmt.Fprintf(&b, "- Logo reference: %s\n", logoURL)
	}
	b.WriteString("\nProfessional cinematography, smooth transitions, bright lighting.")
	return b.String()
}

// regenerationPrompt keeps the caller's prompt verbatim and appends the
// brand context the asset kind needs.
func regenerationPrompt(kind domain.AssetKind, custom string, s domain.BrandStrategy, platform string) string {
	personality := strings.Join(s.BrandPersonality, ", ")
	primary := s.Color(domain.ColorPrimary, defaultPrimary)

	var ctx string
	switch kind {
	case domain.AssetLogo:
		ctx = fmt.Sprintf("Company: %s\nIndustry: %s\nBrand personality: %s\nColor scheme: Primary %s",
			s.CompanyName, s.Industry, personality, primary)
	case domain.AssetMockup:
		ctx = fmt.Sprintf("Company: %s\nTagline: %s\nColors: %s", s.CompanyName, s.Tagline, primary)
	case domain.AssetSocialPost:
		ctx = fmt.Sprintf("Platform: %s\nCompany: %s\nBrand style: %s", platform, s.CompanyName, personality)
	case domain.AssetVideo:
		ctx = fmt.Sprintf("Company: %s\nTagline: %s\nBrand style: %s", s.CompanyName, s.Tagline, personality)
	}
	return custom + "\n\n" + ctx
}

func orDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func joinOrDefault(items []string) string {
	if len(items) == 0 {
		return notSpecified
	}
	return strings.Join(items, ", ")
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
