package server

import (
	"context"

	"github.com/vampirenirmal/brandkit/internal/domain"
	"github.com/vampirenirmal/brandkit/internal/stage"
)

// SampleIdea is the fixed idea used to probe the strategy stage.
const SampleIdea = "AI-powered fitness app that creates personalized workout plans"

const (
	DiagnosticSuccess = "success"
	DiagnosticWarning = "warning"
	DiagnosticError   = "error"
)

type DiagnosticReport struct {
	Status          string                `json:"status"`
	Message         string                `json:"message"`
	TextGeneration  string                `json:"text_generation"`
	MediaGeneration string                `json:"media_generation"`
	SampleStrategy  *domain.BrandStrategy `json:"sample_strategy,omitempty"`
}

// Diagnose runs the strategy stage alone on SampleIdea. Without a text
// credential it reports a warning and makes no call.
func Diagnose(ctx context.Context, strategy *stage.StrategyStage, status Status) DiagnosticReport {
	report := DiagnosticReport{
		TextGeneration:  configured(status.TextConfigured),
		MediaGeneration: configured(status.MediaConfigured),
	}
	if !status.TextConfigured {
		report.Status = DiagnosticWarning
		report.Message = "Text generation is not configured; set GOOGLE_API_KEY"
		return report
	}

	req, err := domain.NewSimpleRequest(SampleIdea)
	if err != nil {
		report.Status = DiagnosticError
		report.Message = err.Error()
		return report
	}

	s, outcome, err := strategy.Plan(ctx, req)
	switch {
	case err != nil:
		report.Status = DiagnosticError
		report.Message = "Strategy generation failed: " + err.Error()
	case outcome.Fallback:
		report.Status = DiagnosticWarning
		report.Message = "Text provider unavailable, fallback strategy used: " + outcome.Cause.Error()
		report.SampleStrategy = &s
	default:
		report.Status = DiagnosticSuccess
		report.Message = "Strategy stage is working"
		report.SampleStrategy = &s
	}
	if report.Status == DiagnosticSuccess && !status.MediaConfigured {
		report.Status = DiagnosticWarning
		report.Message = "Strategy stage is working; media generation is not configured, assets will be placeholders"
	}
	return report
}
