package domain

import (
	"fmt"
	"strings"
)

// AssetKind identifies what an asset is.
type AssetKind string

const (
	AssetLogo       AssetKind = "logo"
	AssetMockup     AssetKind = "mockup"
	AssetSocialPost AssetKind = "social_post"
	AssetVideo      AssetKind = "video"
)

// ParseAssetKind accepts only the four known kinds.
func ParseAssetKind(s string) (AssetKind, bool) {
	switch k := AssetKind(s); k {
	case AssetLogo, AssetMockup, AssetSocialPost, AssetVideo:
		return k, true
	}
	return "", false
}

// GeneratedAsset is one produced artifact. Metadata always carries the
// prompt the asset was generated from under "prompt".
type GeneratedAsset struct {
	Type     AssetKind      `json:"type"`
	URL      string         `json:"url"`
	Filename string         `json:"filename"`
	Metadata map[string]any `json:"metadata"`
}

// Metadata keys shared across producers.
const (
	MetaPrompt       = "prompt"
	MetaError        = "error"
	MetaPlatform     = "platform"
	MetaModel        = "model"
	MetaPlaceholder  = "placeholder"
	MetaCustomPrompt = "custom_prompt"
	MetaRegenerated  = "regenerated"
)

// Prompt returns metadata.prompt, or "" when absent.
func (a GeneratedAsset) Prompt() string {
	s, _ := a.Metadata[MetaPrompt].(string)
	return s
}

// Failed reports whether the asset is a placeholder standing in for a
// failed generation.
func (a GeneratedAsset) Failed() bool {
	_, ok := a.Metadata[MetaError]
	return ok
}

// AssetFilename names an asset after the company, e.g. logo_acme_labs.png
// or social_linkedin_acme_labs_regenerated.png.
func AssetFilename(kind AssetKind, company, platform string, regenerated bool) string {
	slug := slugify(company)
	if slug == "" {
		slug = "brand"
	}
	platform = slugify(platform)
	suffix := ""
	if regenerated {
		suffix = "_regenerated"
	}

	switch kind {
	case AssetLogo:
		return fmt.Sprintf("logo_%s%s.png", slug, suffix)
	case AssetMockup:
		return fmt.Sprintf("mockup_%s%s.png", slug, suffix)
	case AssetSocialPost:
		return fmt.Sprintf("social_%s_%s%s.png", platform, slug, suffix)
	case AssetVideo:
		return fmt.Sprintf("promo_%s%s.mp4", slug, suffix)
	}
	return fmt.Sprintf("%s_%s%s", kind, slug, suffix)
}

// slugify lowercases s and keeps only [a-z0-9], collapsing every other run
// of characters into a single underscore.
func slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}
