// Package compose calls a local text-generation endpoint to draft a note
// title and body from user keywords.
package compose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the local Ollama generate endpoint.
	DefaultEndpoint = "http://127.0.0.1:11434/api/generate"

	// DefaultModel is the generation model asked for by default.
	DefaultModel = "qwen2.5:14b"

	// DefaultTitle is used when the response yields no usable title line.
	DefaultTitle = "视频分享"

	defaultTimeout = 60 * time.Second
)

// Transport issues HTTP requests. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Draft is a generated title and body.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Generator drafts note content through one synchronous generation call.
type Generator struct {
	endpoint string
	model    string
	http     Transport
}

// Option configures a Generator.
type Option func(*Generator)

// WithEndpoint overrides the generation endpoint.
func WithEndpoint(endpoint string) Option {
	return func(g *Generator) { g.endpoint = endpoint }
}

// WithModel overrides the generation model.
func WithModel(model string) Option {
	return func(g *Generator) { g.model = model }
}

// WithTransport overrides the HTTP transport.
func WithTransport(t Transport) Option {
	return func(g *Generator) { g.http = t }
}

// NewGenerator creates a Generator with the default local endpoint and model.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		endpoint: DefaultEndpoint,
		model:    DefaultModel,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate drafts a title and body from the given keywords.
func (g *Generator) Generate(ctx context.Context, keywords string) (*Draft, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, fmt.Errorf("keywords must not be empty")
	}

	payload := map[string]any{
		"model":  g.model,
		"prompt": buildPrompt(keywords),
		"stream": false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generation endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}

	draft := ParseDraft(out.Response)
	return &draft, nil
}

// ParseDraft extracts a Draft from the raw model response. The model is
// asked for JSON, optionally fenced; when parsing fails the first non-empty
// line becomes the title and the remainder the body.
func ParseDraft(text string) Draft {
	cleaned := stripFences(strings.TrimSpace(text))

	var draft Draft
	if err := json.Unmarshal([]byte(cleaned), &draft); err == nil && draft.Title != "" && draft.Content != "" {
		return draft
	}

	return splitDraft(cleaned)
}

// stripFences removes a surrounding ```json ... ``` fence, if present.
func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// splitDraft is the fallback: first non-empty line as title, the rest as body.
func splitDraft(text string) Draft {
	var title string
	var content []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if title == "" {
			title = line
			continue
		}
		content = append(content, line)
	}

	draft := Draft{Title: title, Content: strings.Join(content, "\n")}
	if draft.Content == "" {
		draft.Content = text
	}
	if draft.Title == "" {
		draft.Title = DefaultTitle
	}
	return draft
}

func buildPrompt(keywords string) string {
	return strings.Join([]string{
		"You are a professional short-video copywriter for a lifestyle content platform.",
		"Write a video post from the following keywords, as JSON with exactly two fields:",
		`title (short, punchy, may include emoji) and content (lively body text with 3-5 relevant hashtags).`,
		"Return only the JSON, no extra text.",
		"",
		"Keywords: " + keywords,
	}, "\n")
}
