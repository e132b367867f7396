package generator

import (
	"errors"
	"fmt"
)

const (
	MaxTitleLen       = 58
	MaxDescriptionLen = 155
	// MaxContentPrompt bounds the post body sent to the model.
	MaxContentPrompt = 800
)

var (
	// ErrGenerationUnavailable marks any primary-path failure; callers fall back.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrFallbackFailed is returned when the fallback generator cannot produce metadata.
	ErrFallbackFailed = errors.New("fallback generation failed")
)

// Meta is the SEO title/description pair written to a post.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Content holds the raw (unsanitized) post fields used to build a prompt.
type Content struct {
	Title   string
	Excerpt string
	Content string
}

// Result is the outcome of the primary generator: either Meta or the reason it is unavailable.
type Result struct {
	Meta   Meta
	Engine string
	Err    error
}

// OK reports whether the result carries usable metadata.
func (r Result) OK() bool {
	return r.Err == nil
}

func unavailable(engine string, err error) Result {
	if !errors.Is(err, ErrGenerationUnavailable) {
		err = fmt.Errorf("%w: %w", ErrGenerationUnavailable, err)
	}
	return Result{Engine: engine, Err: err}
}
