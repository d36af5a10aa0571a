package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vampirenirmal/brandkit/internal/core"
	"github.com/vampirenirmal/brandkit/internal/domain"
)

type mockStage struct {
	name        string
	executeFunc func(context.Context, core.StageInput) (core.StageOutput, error)
	calls       int
}

func (m *mockStage) Name() string {
	return m.name
}

func (m *mockStage) Execute(ctx context.Context, input core.StageInput) (core.StageOutput, error) {
	m.calls++
	if m.executeFunc != nil {
		return m.executeFunc(ctx, input)
	}
	return core.StageOutput{
		Assets: []domain.GeneratedAsset{{Type: domain.AssetLogo, URL: "https://x/" + m.name}},
	}, nil
}

func sampleStrategy() *domain.BrandStrategy {
	return &domain.BrandStrategy{
		CompanyName:    "Acme",
		Tagline:        "Build faster",
		BrandArchetype: "Creator",
		ColorScheme: map[string]string{
			domain.ColorPrimary:   "#112233",
			domain.ColorSecondary: "#445566",
			domain.ColorAccent:    "#778899",
		},
	}
}

func strategyStage() *mockStage {
	return &mockStage{
		name: "Brand Director",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			in.Progress(50, "Thinking")
			return core.StageOutput{Strategy: sampleStrategy(), Message: "Strategy ready"}, nil
		},
	}
}

func pipeline(extra ...*mockStage) ([]core.Stage, []*mockStage) {
	mocks := append([]*mockStage{strategyStage()}, extra...)
	names := []string{"Visual Creator", "Social Media Agent", "Video Creator"}
	for len(mocks) < 4 {
		mocks = append(mocks, &mockStage{name: names[len(mocks)-1]})
	}
	stages := make([]core.Stage, len(mocks))
	for i, m := range mocks {
		stages[i] = m
	}
	return stages, mocks
}

func sampleRequest(t *testing.T) domain.BrandRequest {
	t.Helper()
	req, err := domain.NewSimpleRequest("A marketplace for local bakers")
	require.NoError(t, err)
	return req
}

type recorder struct {
	mu      sync.Mutex
	updates []domain.ProgressUpdate
}

func (r *recorder) sink(u domain.ProgressUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
	return nil
}

func (r *recorder) last() domain.ProgressUpdate {
	return r.updates[len(r.updates)-1]
}

func checkStreamInvariants(t *testing.T, updates []domain.ProgressUpdate) {
	t.Helper()
	require.NotEmpty(t, updates, "no updates emitted")

	prev := 0
	terminal := 0
	for i, u := range updates {
		assert.GreaterOrEqual(t, u.OverallProgress, prev, "update %d: overall progress went backwards", i)
		prev = u.OverallProgress
		if u.Completed {
			terminal++
			assert.Equal(t, len(updates)-1, i, "terminal update is not last")
		}
		assert.Equal(t, updates[0].PackageID, u.PackageID, "update %d: package id changed", i)
	}
	assert.Equal(t, 1, terminal, "expected exactly one terminal update")
}

func TestOrchestratorRunSuccess(t *testing.T) {
	stages, mocks := pipeline()
	rec := &recorder{}

	pkg, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)
	require.NoError(t, err)
	checkStreamInvariants(t, rec.updates)

	for _, m := range mocks {
		assert.Equal(t, 1, m.calls, m.name)
	}

	assert.Equal(t, "Acme", pkg.Strategy.CompanyName)
	assert.Len(t, pkg.Assets, 3)
	assert.Equal(t, domain.PackageStatusCompleted, pkg.Status)

	last := rec.last()
	assert.True(t, last.Succeeded())
	assert.Equal(t, 100, last.OverallProgress)
	assert.Equal(t, core.AgentCompleted, last.CurrentAgent)
	require.NotNil(t, last.Result)
	assert.Equal(t, last.PackageID, last.Result.ID)
	for _, a := range last.Agents {
		assert.Equal(t, domain.StatusCompleted, a.Status, a.AgentName)
		assert.Equal(t, 100, a.Progress, a.AgentName)
	}
}

func TestOrchestratorStageBoundaries(t *testing.T) {
	stages, _ := pipeline()
	rec := &recorder{}

	_, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)
	require.NoError(t, err)

	first := rec.updates[0]
	assert.Equal(t, 5, first.OverallProgress)
	assert.Equal(t, "Brand Director", first.CurrentAgent)
	assert.Equal(t, domain.StatusInProgress, first.Agents[0].Status)

	// 50% of the 5-20 band
	assert.Equal(t, 12, rec.updates[1].OverallProgress)

	want := map[string]int{
		"Brand Director":     20,
		"Visual Creator":     50,
		"Social Media Agent": 70,
		"Video Creator":      100,
	}
	for _, u := range rec.updates {
		if u.Completed {
			continue
		}
		for _, a := range u.Agents {
			if a.AgentName == u.CurrentAgent && a.Status == domain.StatusCompleted {
				assert.Equal(t, want[a.AgentName], u.OverallProgress, a.AgentName)
			}
		}
	}
}

func TestOrchestratorStageFailure(t *testing.T) {
	failing := &mockStage{
		name: "Brand Director",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			return core.StageOutput{}, errors.New("upstream exploded")
		},
	}
	stages, mocks := pipeline()
	stages[0] = failing

	rec := &recorder{}
	pkg, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)

	assert.Nil(t, pkg)
	require.True(t, core.IsStageError(err), "expected StageError, got %v", err)
	checkStreamInvariants(t, rec.updates)

	last := rec.last()
	assert.Nil(t, last.Result)
	assert.False(t, last.Succeeded())
	assert.Equal(t, core.AgentError, last.CurrentAgent)
	assert.Equal(t, domain.StatusFailed, last.Agents[0].Status)
	for _, a := range last.Agents[1:] {
		assert.Equal(t, domain.StatusPending, a.Status, a.AgentName)
	}
	for _, m := range mocks[1:] {
		assert.Zero(t, m.calls, "stage %s should not run", m.name)
	}
}

func TestOrchestratorValidationFailureInLaterStage(t *testing.T) {
	video := &mockStage{
		name: "Video Creator",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			return core.StageOutput{}, core.NewStageError("Video Creator",
				core.NewValidationError("Video Creator", "script", "missing beats", nil))
		},
	}
	stages, _ := pipeline()
	stages[3] = video

	rec := &recorder{}
	_, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)
	require.True(t, core.IsValidationError(err), "expected validation error, got %v", err)

	last := rec.last()
	assert.Equal(t, domain.StatusFailed, last.Agents[3].Status)
	for _, a := range last.Agents[:3] {
		assert.Equal(t, domain.StatusCompleted, a.Status, a.AgentName)
	}
	assert.GreaterOrEqual(t, last.OverallProgress, 70, "overall progress must not drop on failure")
}

func TestOrchestratorRecoversPanic(t *testing.T) {
	panicking := &mockStage{
		name: "Visual Creator",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			panic("nil map")
		},
	}
	stages, _ := pipeline(panicking)

	rec := &recorder{}
	pkg, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)

	assert.Nil(t, pkg)
	require.ErrorIs(t, err, core.ErrUnexpected)
	checkStreamInvariants(t, rec.updates)
	assert.Equal(t, domain.StatusFailed, rec.last().Agents[1].Status)
}

func TestOrchestratorMissingStrategy(t *testing.T) {
	noStrategy := &mockStage{name: "Brand Director"}
	stages, mocks := pipeline()
	stages[0] = noStrategy

	rec := &recorder{}
	_, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)

	require.ErrorIs(t, err, core.ErrMissingDependency)
	assert.Zero(t, mocks[1].calls, "visual stage should not run without a strategy")
	checkStreamInvariants(t, rec.updates)
}

func TestOrchestratorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	visual := &mockStage{
		name: "Visual Creator",
		executeFunc: func(stageCtx context.Context, in core.StageInput) (core.StageOutput, error) {
			cancel()
			assert.NoError(t, stageCtx.Err(), "stage context should not observe caller cancellation")
			return core.StageOutput{}, nil
		},
	}
	stages, mocks := pipeline(visual)

	rec := &recorder{}
	pkg, err := core.New(stages).Run(ctx, sampleRequest(t), rec.sink)

	assert.Nil(t, pkg)
	require.ErrorIs(t, err, core.ErrCancelled)
	assert.Zero(t, mocks[2].calls)
	assert.Zero(t, mocks[3].calls)
	checkStreamInvariants(t, rec.updates)

	last := rec.last()
	assert.Equal(t, core.AgentCancelled, last.CurrentAgent)
	for _, a := range last.Agents {
		assert.NotEqual(t, domain.StatusFailed, a.Status, a.AgentName)
	}
	assert.Equal(t, domain.StatusCompleted, last.Agents[1].Status, "in-flight stage should finish")
}

func TestOrchestratorConsumerGone(t *testing.T) {
	stages, mocks := pipeline()
	sinkErr := errors.New("client disconnected")

	var seen int
	sink := func(u domain.ProgressUpdate) error {
		seen++
		if seen == 2 {
			return sinkErr
		}
		return nil
	}

	_, err := core.New(stages).Run(context.Background(), sampleRequest(t), sink)

	assert.ErrorIs(t, err, core.ErrConsumerGone)
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 2, seen, "sink should not be called after it failed")
	assert.Zero(t, mocks[1].calls, "pipeline should stop once the consumer is gone")
}

func TestOrchestratorConcurrentReports(t *testing.T) {
	visual := &mockStage{
		name: "Visual Creator",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					in.Progress(p*5, "rendering")
				}(i)
			}
			wg.Wait()
			return core.StageOutput{}, nil
		},
	}
	stages, _ := pipeline(visual)

	rec := &recorder{}
	_, err := core.New(stages).Run(context.Background(), sampleRequest(t), rec.sink)
	require.NoError(t, err)
	checkStreamInvariants(t, rec.updates)

	prev := 0
	for _, u := range rec.updates {
		p := u.Agents[1].Progress
		assert.GreaterOrEqual(t, p, prev, "visual agent progress went backwards")
		prev = p
	}
}

func TestOrchestratorStream(t *testing.T) {
	stages, _ := pipeline()

	var updates []domain.ProgressUpdate
	for u := range core.New(stages).Stream(context.Background(), sampleRequest(t)) {
		updates = append(updates, u)
	}
	checkStreamInvariants(t, updates)
	assert.True(t, updates[len(updates)-1].Succeeded())
}

func TestOrchestratorStreamFailure(t *testing.T) {
	failing := &mockStage{
		name: "Social Media Agent",
		executeFunc: func(ctx context.Context, in core.StageInput) (core.StageOutput, error) {
			return core.StageOutput{}, errors.New("copy provider down")
		},
	}
	stages, _ := pipeline()
	stages[2] = failing

	var updates []domain.ProgressUpdate
	for u := range core.New(stages).Stream(context.Background(), sampleRequest(t)) {
		updates = append(updates, u)
	}
	checkStreamInvariants(t, updates)

	last := updates[len(updates)-1]
	assert.True(t, last.Completed)
	assert.Nil(t, last.Result)
	assert.Equal(t, core.AgentError, last.CurrentAgent)
}

func TestOrchestratorNames(t *testing.T) {
	stages, _ := pipeline()
	assert.Equal(t,
		[]string{"Brand Director", "Visual Creator", "Social Media Agent", "Video Creator"},
		core.New(stages).Names())
}
