package domain

import "strings"

// Archetypes is the closed set of brand archetypes a strategy may name.
var Archetypes = []string{
	"Explorer", "Sage", "Hero", "Outlaw", "Magician", "Regular Person",
	"Lover", "Jester", "Caregiver", "Creator", "Ruler", "Innocent",
}

// Color slots every scheme must define.
const (
	ColorPrimary   = "primary"
	ColorSecondary = "secondary"
	ColorAccent    = "accent"
)

// BrandValue is one named value with how it shows up in the brand.
type BrandValue struct {
	Value       string `json:"value" validate:"required"`
	Explanation string `json:"explanation" validate:"required"`
}

// BrandStrategy is produced once per package and read by every later stage.
type BrandStrategy struct {
	CompanyName          string   `json:"company_name" validate:"required"`
	AlternativeNames     []string `json:"alternative_names"`
	Tagline              string   `json:"tagline" validate:"required"`
	PositioningStatement string   `json:"positioning_statement" validate:"required"`

	Industry               string   `json:"industry" validate:"required"`
	TargetAudience         string   `json:"target_audience" validate:"required"`
	CustomerPainPoints     []string `json:"customer_pain_points"`
	UniqueValueProposition string   `json:"unique_value_proposition" validate:"required"`
	CompetitiveAdvantage   string   `json:"competitive_advantage" validate:"required"`

	BrandPersonality []string     `json:"brand_personality" validate:"required,min=1,dive,required"`
	BrandArchetype   string       `json:"brand_archetype" validate:"required,archetype"`
	BrandValues      []BrandValue `json:"brand_values" validate:"dive"`
	BrandStory       string       `json:"brand_story" validate:"required"`

	ColorScheme               map[string]string `json:"color_scheme" validate:"required,palette,dive,hexcolor"`
	LogoStyle                 string            `json:"logo_style" validate:"required"`
	VisualElements            []string          `json:"visual_elements" validate:"required,min=1"`
	TypographyRecommendations map[string]string `json:"typography_recommendations"`

	DomainSuggestions         []string        `json:"domain_suggestions"`
	SocialHandlesAvailability map[string]bool `json:"social_handles_availability"`
}

// StrategyRequiredKeys lists the top-level keys a generated strategy must
// carry before it is decoded.
var StrategyRequiredKeys = []string{
	"company_name", "tagline", "positioning_statement", "industry",
	"target_audience", "unique_value_proposition", "competitive_advantage",
	"brand_personality", "brand_archetype", "brand_story", "color_scheme",
	"logo_style", "visual_elements",
}

// Normalize repairs the common ways a generated strategy is only partly
// well-formed: extra color slots that are not hex are dropped, the
// archetype is matched to its canonical spelling, and optional collections
// are defaulted. Required slots and unknown archetypes are left for
// validation to reject.
func (s *BrandStrategy) Normalize() {
	for slot, c := range s.ColorScheme {
		if isRequiredColor(slot) {
			continue
		}
		if !isHexColor(c) {
			delete(s.ColorScheme, slot)
		}
	}
	s.BrandArchetype = CanonicalArchetype(s.BrandArchetype)

	if s.AlternativeNames == nil {
		s.AlternativeNames = []string{}
	}
	if s.CustomerPainPoints == nil {
		s.CustomerPainPoints = []string{}
	}
	if s.BrandValues == nil {
		s.BrandValues = []BrandValue{}
	}
	if s.DomainSuggestions == nil {
		s.DomainSuggestions = []string{}
	}
	if s.SocialHandlesAvailability == nil {
		s.SocialHandlesAvailability = map[string]bool{}
	}
}

// CanonicalArchetype maps "the creator", "Creator " and similar spellings
// onto an entry of Archetypes. Unknown names come back trimmed but
// otherwise unchanged.
func CanonicalArchetype(name string) string {
	name = strings.TrimSpace(name)
	bare := name
	if len(bare) > 4 && strings.EqualFold(bare[:4], "the ") {
		bare = strings.TrimSpace(bare[4:])
	}
	for _, a := range Archetypes {
		if strings.EqualFold(a, bare) {
			return a
		}
	}
	return name
}

func isRequiredColor(slot string) bool {
	return slot == ColorPrimary || slot == ColorSecondary || slot == ColorAccent
}

// Color returns the hex value of a slot, or def when the slot is unset.
func (s BrandStrategy) Color(slot, def string) string {
	if c, ok := s.ColorScheme[slot]; ok && c != "" {
		return c
	}
	return def
}

// TopPainPoints returns at most n pain points.
func (s BrandStrategy) TopPainPoints(n int) []string {
	if len(s.CustomerPainPoints) <= n {
		return s.CustomerPainPoints
	}
	return s.CustomerPainPoints[:n]
}
