package generator

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

var reOriginalTitle = regexp.MustCompile(`(?m)^Título original: (.*)$`)

// MockLLM is an offline stand-in for local runs; it never calls a model.
// It answers with a JSON object built from the title line of the prompt.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	title := "Hotel cinco estrelas no Rio"
	if match := reOriginalTitle.FindStringSubmatch(prompt.User); len(match) == 2 && strings.TrimSpace(match[1]) != "" {
		title = strings.TrimSpace(match[1])
	}
	out, err := json.Marshal(Meta{
		Title:       title + " | Reserve já",
		Description: title + ": hotel 5 estrelas no Rio de Janeiro. Garanta sua reserva hoje.",
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
