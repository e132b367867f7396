package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"aioseo_meta_workflow/generator"
	"aioseo_meta_workflow/metrics"
	"aioseo_meta_workflow/publisher"
)

const (
	DefaultContext = "SEO hotéis RJ, 5 estrelas, reservas"
	tracerName     = "aioseo_meta_workflow/workflow"
)

// Agents are the fixed agent labels reported with every run and by the health check.
var Agents = []string{"seo-specialist", "wp-updater", "logger"}

// DefaultROI is the fixed ROI annotation attached to every successful run.
var DefaultROI = ROI{TruSEOScore: 94, LeadTimeImprovementPct: 90, CTRLiftPct: 32}

// Request is one webhook invocation. SiteURL is accepted but unused.
type Request struct {
	PostID      int    `json:"post_id"`
	SiteURL     string `json:"site_url,omitempty"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

func (r Request) Validate() error {
	if r.PostID < 1 {
		return fmt.Errorf("%w: post_id must be >= 1, got %d", ErrInvalidRequest, r.PostID)
	}
	return nil
}

type ROI struct {
	TruSEOScore            int `json:"tru_seo_score"`
	LeadTimeImprovementPct int `json:"lead_time_improvement_pct"`
	CTRLiftPct             int `json:"ctr_lift_pct"`
}

// RunResult is returned to the webhook caller.
type RunResult struct {
	RunID   string         `json:"run_id"`
	Meta    generator.Meta `json:"meta"`
	Steps   StepTrace      `json:"steps"`
	Context string         `json:"context"`
	Agents  []string       `json:"mcp_agents"`
	ROI     ROI            `json:"roi"`
}

// RunEntry is what the run logger records for a successful run.
type RunEntry struct {
	RunID       string
	PostID      int
	Meta        generator.Meta
	Steps       StepTrace
	TriggeredBy string
}

// PostStore reads posts and writes their SEO meta.
type PostStore interface {
	FetchPost(ctx context.Context, id int) (publisher.Post, error)
	UpdateMeta(ctx context.Context, id int, title, description string) error
	FetchURL(id int) string
	PostURL(id int) string
}

// PrimaryGenerator is the language-model path; it reports failure in the Result.
type PrimaryGenerator interface {
	Generate(ctx context.Context, content generator.Content) generator.Result
	Enabled() bool
}

// RunLogger records completed runs. Implementations must not fail the run.
type RunLogger interface {
	LogRun(ctx context.Context, entry RunEntry)
}

type Option func(*Orchestrator)

// WithContext sets the niche description echoed in results and the health check.
func WithContext(niche string) Option {
	return func(o *Orchestrator) {
		if niche != "" {
			o.niche = niche
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIDGenerator overrides run id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// Orchestrator runs fetch -> generate -> update -> log for one post at a time.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	store    PostStore
	primary  PrimaryGenerator
	fallback generator.FallbackGenerator
	runs     RunLogger
	niche    string
	logger   *zap.Logger
	tracer   trace.Tracer
	newID    func() string
}

func New(store PostStore, primary PrimaryGenerator, fallback generator.FallbackGenerator, runs RunLogger, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback generator is required")
	}
	if primary == nil {
		primary = generator.NewAgent(nil)
	}
	o := &Orchestrator{
		store:    store,
		primary:  primary,
		fallback: fallback,
		runs:     runs,
		niche:    DefaultContext,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Health describes the orchestrator for the health endpoint.
type Health struct {
	Context       string
	LLMConfigured bool
	Agents        []string
}

func (o *Orchestrator) Health() Health {
	return Health{Context: o.niche, LLMConfigured: o.primary.Enabled(), Agents: append([]string(nil), Agents...)}
}

// Run executes one workflow. On failure it returns a *RunError and nothing after the
// failed stage is executed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (RunResult, error) {
	if err := req.Validate(); err != nil {
		return RunResult{}, err
	}

	runID := o.newID()
	log := o.logger.With(zap.String("runId", runID), zap.Int("post", req.PostID))
	ctx, span := o.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("post.id", req.PostID),
	))
	defer span.End()

	start := time.Now()
	var steps StepTrace

	fail := func(stage Stage, code ErrorCode, step string, err error) (RunResult, error) {
		steps.Append(step, StatusError, map[string]any{"error": err.Error()})
		metrics.WorkflowStepsTotal.WithLabelValues(step, string(StatusError)).Inc()
		metrics.WorkflowRunsTotal.WithLabelValues("failed").Inc()
		metrics.WorkflowRunDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		log.Error("workflow run failed",
			zap.String("stage", string(stage)),
			zap.String("code", string(code)),
			zap.Strings("steps", steps.Names()),
			zap.Error(err),
		)
		return RunResult{}, &RunError{Stage: stage, Code: code, Steps: steps.Clone(), Err: err}
	}

	// 1. Fetch
	post, err := o.fetch(ctx, req.PostID)
	if err != nil {
		return fail(StageFetch, ErrCodeRecordFetchFailed, StepFetch, err)
	}
	o.record(&steps, StepFetch, StatusOK, map[string]any{"url": o.store.FetchURL(req.PostID)})

	// 2. Generate
	meta, err := o.generate(ctx, post, &steps, log)
	if err != nil {
		return fail(StageGeneration, ErrCodeFallbackGenerationFailed, StepGenerateFallback, err)
	}

	// 3. Update
	if err := o.update(ctx, req.PostID, meta); err != nil {
		return fail(StageUpdate, ErrCodeRecordUpdateFailed, StepUpdate, err)
	}
	o.record(&steps, StepUpdate, StatusOK, map[string]any{"url": o.store.PostURL(req.PostID)})

	// 4. Log
	if o.runs != nil {
		o.runs.LogRun(ctx, RunEntry{
			RunID:       runID,
			PostID:      req.PostID,
			Meta:        meta,
			Steps:       steps.Clone(),
			TriggeredBy: req.TriggeredBy,
		})
	}

	metrics.WorkflowRunsTotal.WithLabelValues("succeeded").Inc()
	metrics.WorkflowRunDuration.WithLabelValues("succeeded").Observe(time.Since(start).Seconds())

	return RunResult{
		RunID:   runID,
		Meta:    meta,
		Steps:   steps,
		Context: o.niche,
		Agents:  append([]string(nil), Agents...),
		ROI:     DefaultROI,
	}, nil
}

func (o *Orchestrator) fetch(ctx context.Context, id int) (publisher.Post, error) {
	ctx, span := o.tracer.Start(ctx, StepFetch)
	defer span.End()
	return o.store.FetchPost(ctx, id)
}

// generate tries the primary generator once and falls back on any failure.
func (o *Orchestrator) generate(ctx context.Context, post publisher.Post, steps *StepTrace, log *zap.Logger) (generator.Meta, error) {
	ctx, span := o.tracer.Start(ctx, StepGenerate)
	defer span.End()

	res := o.primary.Generate(ctx, generator.Content{
		Title:   post.Title.Rendered,
		Excerpt: post.Excerpt.Rendered,
		Content: post.Content.Rendered,
	})
	if res.OK() {
		o.record(steps, StepGenerate, StatusOK, map[string]any{"engine": res.Engine})
		return res.Meta, nil
	}

	log.Warn("primary generator unavailable, using fallback", zap.Error(res.Err))
	o.record(steps, StepGenerate, StatusFallback, map[string]any{"engine": res.Engine, "error": res.Err.Error()})
	span.SetAttributes(attribute.Bool("generate.fallback", true))

	meta, err := o.fallback.Generate(ctx, generator.Sanitize(post.Title.Rendered), generator.FocusPhrase)
	if err != nil {
		return generator.Meta{}, err
	}
	o.record(steps, StepGenerateFallback, StatusOK, map[string]any{"engine": o.fallback.Engine()})
	return meta, nil
}

func (o *Orchestrator) update(ctx context.Context, id int, meta generator.Meta) error {
	ctx, span := o.tracer.Start(ctx, StepUpdate)
	defer span.End()
	return o.store.UpdateMeta(ctx, id, meta.Title, meta.Description)
}

func (o *Orchestrator) record(steps *StepTrace, name string, status Status, detail map[string]any) {
	steps.Append(name, status, detail)
	metrics.WorkflowStepsTotal.WithLabelValues(name, string(status)).Inc()
}
