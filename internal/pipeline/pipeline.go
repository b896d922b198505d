// Package pipeline composes schema introspection, query synthesis,
// execution, and summarization into one request/response cycle. The
// orchestrator is the only component with external visibility; every step
// failure is absorbed here and converted into response fields.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aytaditya/salessense/internal/dataset"
	"github.com/Aytaditya/salessense/internal/engine"
	"github.com/Aytaditya/salessense/internal/llm"
	"github.com/Aytaditya/salessense/internal/observability"
	"github.com/Aytaditya/salessense/internal/summarize"
	"github.com/Aytaditya/salessense/internal/synth"
)

// Stage names the orchestrator's progress through one request.
type Stage string

const (
	StageReceived         Stage = "received"
	StageSchemaBuilt      Stage = "schema_built"
	StageQuerySynthesized Stage = "query_synthesized"
	StageQueryExecuted    Stage = "query_executed"
	StageSummarized       Stage = "summarized"
	StageCompleted        Stage = "completed"
	StageFailed           Stage = "failed"
)

// SummaryUnavailable replaces the summary when the second generation call
// fails; the rows are still returned.
const SummaryUnavailable = "A natural-language summary could not be generated; the raw result rows are included."

// AnswerBundle is the full response payload for one question. It is
// created fresh per request and has no persistence beyond it. On failure,
// Error is set and whatever partial state was already computed is kept.
type AnswerBundle struct {
	Interpretation string           `json:"interpretation"`
	CodeExecuted   string           `json:"code_executed"`
	Answer         []map[string]any `json:"answer"`
	Summary        string           `json:"natural_language_summary"`
	Error          string           `json:"error,omitempty"`
}

// Config wires one pipeline instance. Generator and Engine are required.
type Config struct {
	Generator   llm.Generator
	Engine      engine.Engine
	Dialect     synth.Dialect
	Logger      *slog.Logger
	SampleRows  int
	RowLimit    int
	LLMTimeout  time.Duration
	AllowWrites bool
}

type Pipeline struct {
	cfg         Config
	logger      *slog.Logger
	synthesizer *synth.Synthesizer
	summarizer  *summarize.Summarizer
}

func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SampleRows <= 0 {
		cfg.SampleRows = dataset.DefaultSampleRows
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 15 * time.Second
	}
	return &Pipeline{
		cfg:         cfg,
		logger:      logger,
		synthesizer: synth.NewSynthesizer(cfg.Generator, cfg.Dialect),
		summarizer:  summarize.NewSummarizer(cfg.Generator),
	}
}

// Ask runs the full cycle for one question. It never returns an error:
// business-logic failures become fields of the AnswerBundle, and partial
// state already computed when a later step fails is kept.
func (p *Pipeline) Ask(ctx context.Context, ds *dataset.Dataset, question string) AnswerBundle {
	stage := StageReceived
	logger := p.logger.With(slog.String("dialect", string(p.cfg.Dialect)))

	var schema dataset.SchemaContext
	if ds != nil {
		ds = ds.Sanitize()
		ds.NormalizeNonFinite()
		schema = ds.SchemaContext(p.cfg.SampleRows)
	}
	stage = StageSchemaBuilt

	synthesized, err := p.synthesize(ctx, question, schema)
	if err != nil {
		synthErr := &SynthesisError{Interpretation: synthesized.Interpretation, Err: err}
		return p.fail(ctx, logger, stage, synthErr, AnswerBundle{
			Interpretation: synthesized.Interpretation,
			Error:          synthErr.Error(),
		})
	}
	stage = StageQuerySynthesized

	result, err := p.cfg.Engine.Execute(ctx, engine.Request{
		Dataset:     ds,
		Query:       synthesized.Query,
		RowLimit:    p.cfg.RowLimit,
		AllowWrites: p.cfg.AllowWrites,
	})
	if err != nil {
		execErr := &ExecutionError{Query: synthesized.Query, Err: err}
		observability.IncrementExecutionFailure(string(p.cfg.Dialect))
		return p.fail(ctx, logger, stage, execErr, AnswerBundle{
			Interpretation: synthesized.Interpretation,
			CodeExecuted:   synthesized.Query,
			Error:          execErr.Error(),
		})
	}
	stage = StageQueryExecuted

	bundle := AnswerBundle{
		Interpretation: synthesized.Interpretation,
		CodeExecuted:   synthesized.Query,
		Answer:         result.Rows,
	}
	if bundle.Answer == nil {
		bundle.Answer = []map[string]any{}
	}

	summary, err := p.summarizeResult(ctx, question, synthesized.Interpretation, result)
	if err != nil {
		sumErr := &SummarizationError{Err: err}
		logger.WarnContext(ctx, "pipeline_summary_failed",
			slog.String("stage", string(stage)),
			slog.Any("error", sumErr),
		)
		observability.ObserveAsk(string(p.cfg.Dialect), "summary_unavailable")
		bundle.Summary = SummaryUnavailable
		return bundle
	}
	stage = StageSummarized
	bundle.Summary = summary

	stage = StageCompleted
	observability.ObserveAsk(string(p.cfg.Dialect), "completed")
	logger.InfoContext(ctx, "pipeline_completed",
		slog.String("stage", string(stage)),
		slog.Int("rows", len(bundle.Answer)),
		slog.Duration("engine_duration", result.Duration),
	)
	return bundle
}

func (p *Pipeline) synthesize(ctx context.Context, question string, schema dataset.SchemaContext) (synth.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	result, err := p.synthesizer.Synthesize(callCtx, question, schema)
	observability.ObserveLLMCall("synthesis", time.Since(start))
	return result, err
}

func (p *Pipeline) summarizeResult(ctx context.Context, question, interpretation string, result engine.Result) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()
	summary, err := p.summarizer.Summarize(callCtx, question, interpretation, result)
	observability.ObserveLLMCall("summary", time.Since(start))
	return summary, err
}

func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, stage Stage, cause error, bundle AnswerBundle) AnswerBundle {
	observability.ObserveAsk(string(p.cfg.Dialect), "failed")
	logger.WarnContext(ctx, "pipeline_failed",
		slog.String("stage", string(stage)),
		slog.String("final_stage", string(StageFailed)),
		slog.Any("error", cause),
	)
	return bundle
}
