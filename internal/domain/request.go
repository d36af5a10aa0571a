package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRequest marks a request rejected at ingress.
var ErrInvalidRequest = errors.New("invalid brand request")

// RequestKind discriminates the two request shapes on the wire.
type RequestKind string

const (
	KindSimple   RequestKind = "simple"
	KindDetailed RequestKind = "detailed"
)

// BrandRequest is either a SimpleRequest or a DetailedRequest. Callers
// distinguish the two with a type switch.
type BrandRequest interface {
	Kind() RequestKind
	Idea() string
	brandRequest()
}

// SimpleRequest carries only the idea text.
type SimpleRequest struct {
	StartupIdea string `json:"startup_idea" validate:"required,min=10,max=1000"`
}

func (SimpleRequest) Kind() RequestKind { return KindSimple }
func (r SimpleRequest) Idea() string    { return r.StartupIdea }
func (SimpleRequest) brandRequest()     {}

// DetailedRequest adds business context used to tailor the strategy.
type DetailedRequest struct {
	StartupIdea                 string   `json:"startup_idea" validate:"required,min=10,max=1000"`
	BusinessModel               string   `json:"business_model" validate:"required"`
	TargetDemographics          string   `json:"target_demographics" validate:"required"`
	KeyDifferentiators          string   `json:"key_differentiators" validate:"required"`
	Competitors                 []string `json:"competitors,omitempty"`
	BrandPersonalityPreferences []string `json:"brand_personality_preferences,omitempty"`
	VisualStylePreferences      string   `json:"visual_style_preferences,omitempty"`
	BudgetConstraints           string   `json:"budget_constraints,omitempty"`
	Timeline                    string   `json:"timeline,omitempty"`
	IndustryVertical            string   `json:"industry_vertical" validate:"required"`
}

func (DetailedRequest) Kind() RequestKind { return KindDetailed }
func (r DetailedRequest) Idea() string    { return r.StartupIdea }
func (DetailedRequest) brandRequest()     {}

// NewSimpleRequest builds and validates a simple request.
func NewSimpleRequest(idea string) (SimpleRequest, error) {
	req := SimpleRequest{StartupIdea: strings.TrimSpace(idea)}
	if err := ValidateRequest(req); err != nil {
		return SimpleRequest{}, err
	}
	return req, nil
}

// detailedOnlyKeys are fields only a DetailedRequest carries. A body with
// any of them and no "kind" is decoded as detailed.
var detailedOnlyKeys = []string{
	"business_model", "target_demographics", "key_differentiators",
	"competitors", "brand_personality_preferences", "visual_style_preferences",
	"budget_constraints", "timeline", "industry_vertical",
}

// DecodeBrandRequest decodes a request body. The "kind" field selects the
// shape; without it the shape is inferred from the keys present. A
// non-empty force overrides both.
func DecodeBrandRequest(data []byte, force RequestKind) (BrandRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var kind RequestKind
	if raw, ok := fields["kind"]; ok {
		if err := json.Unmarshal(raw, &kind); err != nil {
			return nil, fmt.Errorf("%w: kind: %v", ErrInvalidRequest, err)
		}
	}
	if force != "" {
		kind = force
	}
	if kind == "" {
		kind = inferKind(fields)
	}

	var req BrandRequest
	switch kind {
	case KindSimple:
		var r SimpleRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		r.StartupIdea = strings.TrimSpace(r.StartupIdea)
		req = r
	case KindDetailed:
		var r DetailedRequest
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		r.StartupIdea = strings.TrimSpace(r.StartupIdea)
		req = r
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, kind)
	}

	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func inferKind(fields map[string]json.RawMessage) RequestKind {
	for _, k := range detailedOnlyKeys {
		if raw, ok := fields[k]; ok && string(raw) != "null" {
			return KindDetailed
		}
	}
	return KindSimple
}
