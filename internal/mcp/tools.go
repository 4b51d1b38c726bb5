package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blackwell-systems/siteinsight/internal/agent"
	"github.com/blackwell-systems/siteinsight/internal/insight"
	"github.com/blackwell-systems/siteinsight/internal/metrics"
)

// AnalysisResult is the analyze_site payload.
type AnalysisResult struct {
	Report              string                `json:"report"`
	DateRange           metrics.DateRange     `json:"date_range"`
	InsightCount        int                   `json:"insight_count"`
	TopRecommendations  []string              `json:"top_recommendations"`
	Score               *int                  `json:"performance_score,omitempty"`
	ScoreInterpretation string                `json:"score_interpretation,omitempty"`
	Failures            []agent.FamilyFailure `json:"failures,omitempty"`
}

var (
	analyzeSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"start_date":{"type":"string","description":"Start date in YYYY-MM-DD format"},` +
		`"end_date":{"type":"string","description":"End date in YYYY-MM-DD format"}},` +
		`"additionalProperties":false}`)
	askSchema = json.RawMessage(`{"type":"object","properties":{` +
		`"question":{"type":"string","description":"Question about traffic, engagement, sources, pages, or demographics"}},` +
		`"required":["question"],"additionalProperties":false}`)
)

// addTools registers the registry tools followed by the analysis tools.
func addTools(s *Server) {
	if s.registry != nil {
		for _, t := range s.registry.List() {
			name := t.Name
			s.registerTool(toolDef{
				Name:        name,
				Description: t.Description,
				InputSchema: t.InputSchema(),
				Handler: func(_ context.Context, args json.RawMessage) (any, error) {
					var params map[string]any
					if err := json.Unmarshal(args, &params); err != nil {
						return nil, fmt.Errorf("decoding arguments: %w", err)
					}
					return s.registry.Call(name, params)
				},
			})
		}
	}
	if s.agent != nil {
		s.registerTool(toolDef{
			Name:        "analyze_site",
			Description: "Run the full insight analysis over traffic, engagement, and traffic sources and return the report.",
			InputSchema: analyzeSchema,
			Handler:     s.handleAnalyze,
		})
	}
	if s.answerer != nil {
		s.registerTool(toolDef{
			Name:        "ask_question",
			Description: "Answer a plain-language question about the site's analytics in one sentence.",
			InputSchema: askSchema,
			Handler:     s.handleAsk,
		})
	}
}

func (s *Server) handleAnalyze(ctx context.Context, args json.RawMessage) (any, error) {
	var dr metrics.DateRange
	if err := json.Unmarshal(args, &dr); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	var rng *metrics.DateRange
	if dr.Start != "" || dr.End != "" {
		if dr.Start == "" || dr.End == "" {
			return nil, errors.New("start_date and end_date must be given together")
		}
		if err := dr.Validate(); err != nil {
			return nil, err
		}
		rng = &dr
	}

	res := s.agent.Analyze(ctx, rng)
	out := AnalysisResult{
		Report:             res.Text(),
		DateRange:          res.Range,
		InsightCount:       res.Report.Len(),
		TopRecommendations: res.Report.TopRecommendations,
		Failures:           res.Failures,
	}
	if res.Scored {
		score := res.Score
		out.Score = &score
		out.ScoreInterpretation = insight.ScoreInterpretation(score)
	}
	return out, nil
}

func (s *Server) handleAsk(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Question string `json:"question"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	if params.Question == "" {
		return nil, errors.New("question is required")
	}
	return s.answerer.Ask(ctx, params.Question), nil
}
