package generator

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackMeta_Deterministic(t *testing.T) {
	a := FallbackMeta("<b>Luxury Suite</b>", FocusPhrase)
	b := FallbackMeta("<b>Luxury Suite</b>", FocusPhrase)
	assert.Equal(t, a, b)

	assert.Equal(t, "Luxury Suite | Reservas RJ", a.Title)
	assert.True(t, strings.HasPrefix(a.Description, "Luxury Suite garante estadia cinco estrelas"))
	assert.Equal(t, FocusPhrase, a.Focus)
	assert.NotEmpty(t, a.Comment)
}

func TestFallbackMeta_DefaultsForEmptyInput(t *testing.T) {
	out := FallbackMeta("   ", "")
	assert.Equal(t, "Hotel 5 estrelas em Copacabana | Reservas RJ", out.Title)
	assert.True(t, strings.HasPrefix(out.Description, DefaultFallbackTitle))
	assert.Equal(t, DefaultFallbackFocus, out.Focus)
}

func TestFallbackMeta_Bounds(t *testing.T) {
	long := strings.Repeat("Suíte presidencial com vista ", 20)
	inputs := []string{"", "x", long, "<h1>" + long + "</h1>", strings.Repeat("é", 300)}

	for _, in := range inputs {
		out := FallbackMeta(in, FocusPhrase)
		assert.LessOrEqual(t, utf8.RuneCountInString(out.Title), MaxTitleLen)
		assert.LessOrEqual(t, utf8.RuneCountInString(out.Description), MaxDescriptionLen)
		assert.Equal(t, strings.TrimRight(out.Title, " "), out.Title)
		assert.Equal(t, strings.TrimRight(out.Description, " "), out.Description)
	}
}

func TestFallbackMeta_TitleKeepsFirst40Runes(t *testing.T) {
	in := strings.Repeat("a", 50)
	out := FallbackMeta(in, "")
	assert.Equal(t, strings.Repeat("a", 40)+" | Reservas RJ", out.Title)
}

func TestLocalFallback(t *testing.T) {
	var gen FallbackGenerator = LocalFallback{}
	meta, err := gen.Generate(context.Background(), "Luxury Suite", FocusPhrase)
	require.NoError(t, err)
	assert.Equal(t, FallbackMeta("Luxury Suite", FocusPhrase).Meta(), meta)
	assert.Equal(t, EngineLocal, gen.Engine())
}
