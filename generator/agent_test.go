package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM records the prompt it receives and answers with a canned response.
type stubLLM struct {
	response string
	err      error
	calls    int
	last     Prompt
}

func (s *stubLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	s.calls++
	s.last = prompt
	return s.response, s.err
}

func TestAgent_Disabled(t *testing.T) {
	agent := NewAgent(nil)
	assert.False(t, agent.Enabled())

	res := agent.Generate(context.Background(), Content{Title: "x"})
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrGenerationUnavailable)
	assert.Contains(t, res.Err.Error(), "not configured")
	assert.Equal(t, EngineOpenAI, res.Engine)
}

func TestAgent_Success(t *testing.T) {
	llm := &stubLLM{response: `{"title":"Suite Luxo no Rio | Reserve","description":"Hotel 5 estrelas no Rio de Janeiro."}`}
	agent := NewAgent(llm, WithNiche("SEO hotéis RJ"))

	res := agent.Generate(context.Background(), Content{
		Title:   "<b>Luxury Suite</b>",
		Excerpt: "<p>Vista   mar</p>",
		Content: "<div>Great stay</div>",
	})

	require.True(t, res.OK())
	assert.Equal(t, "Suite Luxo no Rio | Reserve", res.Meta.Title)
	assert.Equal(t, 1, llm.calls)
	assert.Contains(t, llm.last.User, "Título original: Luxury Suite\n")
	assert.Contains(t, llm.last.User, "Excerto: Vista mar\n")
	assert.Contains(t, llm.last.User, "Conteúdo: Great stay\n")
	assert.Contains(t, llm.last.System, "SEO hotéis RJ")
}

func TestAgent_ContentIsBoundedInPrompt(t *testing.T) {
	llm := &stubLLM{response: `{"title":"t","description":"d"}`}
	agent := NewAgent(llm)

	agent.Generate(context.Background(), Content{Content: strings.Repeat("x", 5000)})

	line := ""
	for _, l := range strings.Split(llm.last.User, "\n") {
		if strings.HasPrefix(l, "Conteúdo: ") {
			line = strings.TrimPrefix(l, "Conteúdo: ")
		}
	}
	assert.Equal(t, MaxContentPrompt, utf8.RuneCountInString(line))
}

func TestAgent_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		llm  *stubLLM
	}{
		{name: "network error", llm: &stubLLM{err: errors.New("dial tcp: connection refused")}},
		{name: "malformed json", llm: &stubLLM{response: "{title: nope"}},
		{name: "missing field", llm: &stubLLM{response: `{"title":"only"}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewAgent(tt.llm).Generate(context.Background(), Content{Title: "x"})
			assert.False(t, res.OK())
			assert.ErrorIs(t, res.Err, ErrGenerationUnavailable)
			assert.Equal(t, Meta{}, res.Meta)
		})
	}
}

func TestAgent_TruncatesOverlongFields(t *testing.T) {
	llm := &stubLLM{response: `{"title":"` + strings.Repeat("a", 200) + `","description":"` + strings.Repeat("b", 600) + `"}`}

	res := NewAgent(llm).Generate(context.Background(), Content{Title: "x"})
	require.True(t, res.OK())
	assert.Len(t, res.Meta.Title, MaxTitleLen)
	assert.Len(t, res.Meta.Description, MaxDescriptionLen)
}

func TestMockLLM_ProducesParsableMeta(t *testing.T) {
	res := NewAgent(MockLLM{}).Generate(context.Background(), Content{Title: "<b>Luxury Suite</b>"})
	require.True(t, res.OK())
	assert.True(t, strings.HasPrefix(res.Meta.Title, "Luxury Suite"))
}
