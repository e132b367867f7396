package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const EngineOpenAI = "openai"

var errLLMNotConfigured = errors.New("language model not configured")

// Agent is the primary metadata generator backed by a language model.
type Agent struct {
	llm    LLMClient
	niche  string
	engine string
	logger *zap.Logger
}

type AgentOption func(*Agent)

// WithNiche sets the free-text SEO context added to the system prompt.
func WithNiche(niche string) AgentOption {
	return func(a *Agent) { a.niche = niche }
}

func WithEngine(engine string) AgentOption {
	return func(a *Agent) { a.engine = engine }
}

func WithLogger(logger *zap.Logger) AgentOption {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAgent builds the primary generator. A nil llm yields a disabled agent whose
// every Generate call reports ErrGenerationUnavailable.
func NewAgent(llm LLMClient, opts ...AgentOption) *Agent {
	a := &Agent{llm: llm, engine: EngineOpenAI, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether a language model is configured.
func (a *Agent) Enabled() bool {
	return a != nil && a.llm != nil
}

func (a *Agent) Engine() string {
	return a.engine
}

// Generate sanitizes the post fields, prompts the model and parses its answer.
// It never returns an error directly; failures are carried in Result.Err.
func (a *Agent) Generate(ctx context.Context, content Content) Result {
	if !a.Enabled() {
		return unavailable(a.engine, errLLMNotConfigured)
	}

	prompt := BuildMetaPrompt(
		a.niche,
		Sanitize(content.Title),
		Sanitize(content.Excerpt),
		Sanitize(content.Content),
	)

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("llm call failed", zap.Error(err))
		return unavailable(a.engine, fmt.Errorf("llm call: %w", err))
	}
	meta, err := ParseMeta(raw)
	if err != nil {
		a.logger.Warn("llm response rejected", zap.Error(err), zap.Int("responseLen", len(raw)))
		return unavailable(a.engine, fmt.Errorf("parse response: %w", err))
	}
	return Result{Meta: meta, Engine: a.engine}
}
