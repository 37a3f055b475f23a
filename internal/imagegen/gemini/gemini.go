// Package gemini implements imagegen.Provider on top of the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/vbonduro/kissthem/internal/imagegen"
)

type Provider struct {
	nameModel  string
	imageModel string
	httpClient *http.Client
	baseURL    string
}

type Option func(*Provider)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

func NewProvider(nameModel, imageModel string, opts ...Option) *Provider {
	p := &Provider{nameModel: nameModel, imageModel: imageModel}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Model(ctx context.Context, apiKey string) (imagegen.Model, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &model{client: client, nameModel: p.nameModel, imageModel: p.imageModel}, nil
}

type model struct {
	client     *genai.Client
	nameModel  string
	imageModel string
}

func userContent(text string, img imagegen.Image) []*genai.Content {
	return []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(text),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}
}

func (m *model) SuggestName(ctx context.Context, img imagegen.Image, request string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.nameModel, userContent(imagegen.NamingPrompt(request), img), nil)
	if err != nil {
		return "", fmt.Errorf("failed to call gemini: %w", err)
	}

	parts := firstParts(resp)
	if len(parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}
	return imagegen.CleanName(parts[0].Text), nil
}

func (m *model) Edit(ctx context.Context, instruction string, img imagegen.Image) (*imagegen.EditResult, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	resp, err := m.client.Models.GenerateContent(ctx, m.imageModel, userContent(instruction, img), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to call gemini: %w", err)
	}

	parts := firstParts(resp)
	if parts == nil {
		return &imagegen.EditResult{NoContent: true}, nil
	}

	result := &imagegen.EditResult{}
	var text strings.Builder
	for _, part := range parts {
		if part == nil || part.Thought {
			continue
		}
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") && len(part.InlineData.Data) > 0 {
			result.Image = &imagegen.Image{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}
			continue
		}
		text.WriteString(part.Text)
	}
	result.Text = text.String()

	slog.Debug("gemini edit finished", "model", m.imageModel, "image", result.Image != nil, "text_len", len(result.Text))
	return result, nil
}

// firstParts returns the parts of the first candidate, or nil when the
// response has no candidate content.
func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}
	parts := resp.Candidates[0].Content.Parts
	if parts == nil {
		return []*genai.Part{}
	}
	return parts
}
