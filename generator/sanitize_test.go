package generator

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "only whitespace", in: " \n\t ", want: ""},
		{name: "bold title", in: "<b>Luxury Suite</b>", want: "Luxury Suite"},
		{name: "paragraphs", in: "<p>Great\n\nstay</p>\n<p>in Rio</p>", want: "Great stay in Rio"},
		{name: "attributes", in: `<a href="/x" class="y">Book</a> now`, want: "Book now"},
		{name: "tags glue words", in: "one<br/>two", want: "one two"},
		{name: "nbsp collapsed", in: "a\u00a0 \u2003b", want: "a b"},
		{name: "unclosed bracket kept", in: "5 < 6", want: "5 < 6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	markup := regexp.MustCompile(`<[^>]+>`)
	doubleSpace := regexp.MustCompile(`[\s\v\x{85}\p{Z}]{2,}`)

	inputs := []string{
		"",
		"plain",
		"<<b>>nested<</b>>",
		"<a <b>c</b>",
		"  lead and trail  ",
		"<div>\r\n\t<span>x</span>  y</div>",
		"<>empty tag<>",
		"tab\tsep\vvert",
		"<p>Hotel &amp; Spa</p>",
	}

	for _, in := range inputs {
		out := Sanitize(in)
		assert.False(t, markup.MatchString(out), "markup left in %q", out)
		assert.False(t, doubleSpace.MatchString(out), "whitespace run left in %q", out)
		assert.Equal(t, out, Sanitize(out), "not idempotent for %q", in)
	}
}

func TestTruncate_Runes(t *testing.T) {
	assert.Equal(t, "ção", truncate("çãoé", 3))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncateTrim("ab  cd", 4))
}
