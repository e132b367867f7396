package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const metaSchemaJSON = `{
  "type": "object",
  "required": ["title", "description"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string", "minLength": 1}
  }
}`

var (
	metaSchema = mustSchema(metaSchemaJSON)
	mdParser   = goldmark.New().Parser()
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("generator: invalid schema: %v", err))
	}
	return s
}

// ParseMeta extracts the JSON object returned by the model and clamps its fields.
// The object may be bare, wrapped in a fenced code block, or embedded in prose.
func ParseMeta(raw string) (Meta, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Meta{}, errors.New("model returned empty response")
	}

	var lastErr error
	for _, candidate := range jsonCandidates(raw) {
		meta, err := decodeMeta([]byte(candidate))
		if err == nil {
			return meta, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no JSON object in model response")
	}
	return Meta{}, lastErr
}

func decodeMeta(data []byte) (Meta, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Meta{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validateAgainst(metaSchema, doc); err != nil {
		return Meta{}, err
	}
	return requireText(clampMeta(doc["title"].(string), doc["description"].(string)))
}

func validateAgainst(schema *gojsonschema.Schema, doc any) error {
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("unexpected response shape: %s", strings.Join(msgs, "; "))
}

func clampMeta(title, description string) Meta {
	return Meta{
		Title:       truncate(strings.TrimSpace(title), MaxTitleLen),
		Description: truncate(strings.TrimSpace(description), MaxDescriptionLen),
	}
}

// requireText rejects meta whose fields are blank once trimmed.
func requireText(m Meta) (Meta, error) {
	if m.Title == "" || m.Description == "" {
		return Meta{}, errors.New("title and description must not be blank")
	}
	return m, nil
}

// jsonCandidates lists the substrings worth decoding, most specific first.
func jsonCandidates(raw string) []string {
	candidates := []string{raw}
	candidates = append(candidates, fencedBlocks(raw)...)
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	return candidates
}

// fencedBlocks returns the bodies of markdown code blocks, as models often wrap JSON in ```json fences.
func fencedBlocks(raw string) []string {
	src := []byte(raw)
	doc := mdParser.Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		cb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := cb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		if body := strings.TrimSpace(buf.String()); body != "" {
			blocks = append(blocks, body)
		}
		return ast.WalkSkipChildren, nil
	})
	return blocks
}
