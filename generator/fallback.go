package generator

import (
	"context"
	"strings"
)

const (
	DefaultFallbackTitle = "Hotel 5 estrelas em Copacabana"
	DefaultFallbackFocus = "Reservas exclusivas no Rio de Janeiro"
	// FocusPhrase is what the workflow sends as focus for every fallback request.
	FocusPhrase = "Reservas hotéis RJ 5 estrelas"

	fallbackTitleBase   = 40
	fallbackTitleSuffix = " | Reservas RJ"
	fallbackPitch       = " garante estadia cinco estrelas no Rio de Janeiro. " +
		"Reserve agora e acesse benefícios VIP com confirmação imediata."
	fallbackComment = "Fallback mantém fluxo contínuo → MCP evita perda de 32% CTR projetada."

	EngineLocal = "local"
)

// FallbackOutput is the full answer of the deterministic generator, as served over HTTP.
type FallbackOutput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
	Comment     string `json:"mcp_comment"`
}

// Meta drops the informational fields.
func (o FallbackOutput) Meta() Meta {
	return Meta{Title: o.Title, Description: o.Description}
}

// FallbackMeta derives metadata from the title alone. Same input, same output.
func FallbackMeta(title, focus string) FallbackOutput {
	base := Sanitize(title)
	if base == "" {
		base = DefaultFallbackTitle
	}
	focus = strings.TrimSpace(focus)
	if focus == "" {
		focus = DefaultFallbackFocus
	}

	return FallbackOutput{
		Title:       truncateTrim(truncate(base, fallbackTitleBase)+fallbackTitleSuffix, MaxTitleLen),
		Description: truncateTrim(base+fallbackPitch, MaxDescriptionLen),
		Focus:       focus,
		Comment:     fallbackComment,
	}
}

// FallbackGenerator produces metadata when the primary generator is unavailable.
type FallbackGenerator interface {
	Generate(ctx context.Context, title, focus string) (Meta, error)
	Engine() string
}

// LocalFallback runs FallbackMeta in-process and cannot fail.
type LocalFallback struct{}

func (LocalFallback) Generate(_ context.Context, title, focus string) (Meta, error) {
	return FallbackMeta(title, focus).Meta(), nil
}

func (LocalFallback) Engine() string { return EngineLocal }
