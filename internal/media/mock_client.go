package media

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Job records one call made to a MockClient.
type Job struct {
	Model string
	Input map[string]any
}

// MockClient returns deterministic URLs. FailWhen, if set, is consulted
// before each job and a non-nil error fails it.
type MockClient struct {
	FailWhen func(model string, input map[string]any) error

	mu   sync.Mutex
	jobs []Job
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Run(ctx context.Context, model string, input map[string]any) (Result, error) {
	m.mu.Lock()
	m.jobs = append(m.jobs, Job{Model: model, Input: input})
	n := len(m.jobs)
	m.mu.Unlock()

	if m.FailWhen != nil {
		if err := m.FailWhen(model, input); err != nil {
			return Result{}, err
		}
	}

	slug := strings.NewReplacer("/", "-", ".", "-").Replace(model)
	var res Result
	if _, isVideo := input["aspect_ratio"]; isVideo {
		res.Video = &File{URL: fmt.Sprintf("https://media.example.test/%s/%d.mp4", slug, n)}
		return res, nil
	}
	res.Images = append(res.Images, File{URL: fmt.Sprintf("https://media.example.test/%s/%d.png", slug, n)})
	return res, nil
}

// Jobs returns every job received so far.
func (m *MockClient) Jobs() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Job(nil), m.jobs...)
}

// PromptContains is a FailWhen helper that fails jobs whose prompt
// contains substr.
func PromptContains(substr string, err error) func(string, map[string]any) error {
	return func(_ string, input map[string]any) error {
		if p, _ := input["prompt"].(string); strings.Contains(p, substr) {
			return err
		}
		return nil
	}
}
