package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockRule answers any prompt containing all of Match (case-insensitive).
type MockRule struct {
	Match    []string
	Response string
	Err      error
}

// MockClient provides canned responses for offline runs and tests.
type MockClient struct {
	mu    sync.Mutex
	rules []MockRule
	calls []string
}

// NewMockClient answers every pipeline prompt with a plausible response.
func NewMockClient() *MockClient {
	return NewMockClientWith(
		MockRule{Match: []string{"video script"}, Response: mockScript},
		MockRule{Match: []string{"copywriter", "linkedin"}, Response: mockLinkedIn},
		MockRule{Match: []string{"copywriter", "twitter"}, Response: mockTwitter},
		MockRule{Match: []string{"copywriter"}, Response: mockInstagram},
		MockRule{Match: []string{"brand strategist"}, Response: mockStrategy},
	)
}

// NewMockClientWith evaluates rules in order; the first match wins.
func NewMockClientWith(rules ...MockRule) *MockClient {
	return &MockClient{rules: rules}
}

// Calls returns every prompt received so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.respond(prompt)
}

// CompleteJSON returns the matched response unchecked so malformed canned
// payloads reach the caller's fallback path.
func (m *MockClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return m.respond(prompt)
}

func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.respond(systemPrompt + "\n\n" + userPrompt)
}

func (m *MockClient) CompleteJSONWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.CompleteJSON(ctx, systemPrompt+"\n\n"+userPrompt)
}

func (m *MockClient) respond(prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()

	lower := strings.ToLower(prompt)
	for _, rule := range m.rules {
		if matchesAll(lower, rule.Match) {
			if rule.Err != nil {
				return "", rule.Err
			}
			return rule.Response, nil
		}
	}
	return "", fmt.Errorf("mock: no response for prompt %q", truncate(prompt, 60))
}

func matchesAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, strings.ToLower(w)) {
			return false
		}
	}
	return true
}

const mockStrategy = "```json\n" + `{
  "company_name": "Repforge",
  "alternative_names": ["Setwise", "Liftloop", "Formkit"],
  "tagline": "Every rep, rewritten for you",
  "positioning_statement": "For busy professionals who want real progress, Repforge is the training app that rebuilds your plan after every session",
  "industry": "Fitness",
  "target_audience": "Time-poor professionals aged 25-45 who train at home or in small gyms",
  "customer_pain_points": ["Generic plans stop working", "No time to research programming", "Plateaus kill motivation", "Coaches are expensive"],
  "unique_value_proposition": "Start free with a plan that adapts to every workout you log",
  "competitive_advantage": "Adaptive programming model trained on anonymized session data",
  "brand_personality": ["energetic", "knowledgeable", "encouraging", "direct"],
  "brand_archetype": "Hero",
  "brand_values": [
    {"value": "Progress", "explanation": "Every session moves the plan forward"},
    {"value": "Honesty", "explanation": "Straight feedback, no fluff"}
  ],
  "brand_story": "Repforge started in a garage gym where three engineers kept hitting the same plateau. They built a plan that listened, and it worked.",
  "color_scheme": {"primary": "#ff5a1f", "secondary": "#1f2937", "accent": "#10b981", "rationale": "Heat, grit and growth"},
  "logo_style": "bold forged monogram with a subtle upward notch",
  "visual_elements": ["forged metal texture", "upward arrows", "tight grids", "motion blur", "chalk dust"],
  "typography_recommendations": {"primary": "Space Grotesk", "secondary": "Inter"},
  "domain_suggestions": ["repforge.com", "getrepforge.com", "repforge.app"],
  "social_handles_availability": {"instagram": true, "twitter": false, "linkedin": true, "tiktok": true}
}
` + "```"

const mockInstagram = `Plateaued again? 😤

Your plan should change when you do. Repforge rewrites every workout from the one you just logged.

Every rep, rewritten for you. Swipe to see how →

#fitness #homeworkout #trainsmarter #repforge`

const mockLinkedIn = `Most training plans are written once and followed forever. That is why most people stall by week six.

At Repforge we treat programming like software: ship, measure, adapt. Every logged session updates the next one.

Start free and see what adaptive training does for your team.

#FutureOfFitness #Wellness #HealthTech #Productivity`

const mockTwitter = `Static workout plans are a 2010 idea.

Repforge adapts after every rep you log. Start free.

#fitness #buildinpublic`

const mockScript = `{
  "hook": "A stopwatch freezes mid-rep",
  "problem_visualization": "The same printed plan taped to a wall, week after week",
  "solution_reveal": "The plan ignites and reforms into a glowing Repforge screen",
  "benefit_demonstration": "A lifter hits a new personal best and grins",
  "cta": "Start free at repforge.com",
  "key_messages": ["Plans that adapt", "Every rep counts", "Start free today"],
  "visual_directions": "High contrast, warm orange light, fast cuts",
  "music_mood": "driving electronic with a big drop"
}`
