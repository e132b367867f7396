package generator

import (
	"fmt"
	"strings"
)

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// BuildMetaPrompt renders the SEO-specialist instruction for one post.
// Inputs must already be sanitized; content is cut to MaxContentPrompt runes.
func BuildMetaPrompt(niche, title, excerpt, content string) Prompt {
	var sb strings.Builder
	sb.WriteString("Atue como especialista SEO de hotéis cinco estrelas no Rio de Janeiro.\n")
	sb.WriteString("Gere metadados orientados a reservas e aumento de CTR (+32% meta).\n")
	sb.WriteString("Regras:\n")
	sb.WriteString(fmt.Sprintf("- Title ≤ %d caracteres com CTA explícito.\n", MaxTitleLen))
	sb.WriteString(fmt.Sprintf("- Description ≤ %d caracteres mencionando 5 estrelas, Rio de Janeiro e reservas.\n", MaxDescriptionLen))
	sb.WriteString("\nDados do post:\n")
	sb.WriteString(fmt.Sprintf("Título original: %s\n", title))
	sb.WriteString(fmt.Sprintf("Excerto: %s\n", excerpt))
	sb.WriteString(fmt.Sprintf("Conteúdo: %s\n", truncate(content, MaxContentPrompt)))
	sb.WriteString("\nResponda APENAS em JSON com as chaves \"title\" e \"description\".")

	system := "Responda somente com um objeto JSON, sem explicações."
	if niche = strings.TrimSpace(niche); niche != "" {
		system += "\nContexto: " + niche
	}

	return Prompt{
		System: system,
		User:   sb.String(),
	}
}
