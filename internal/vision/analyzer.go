// Package vision tags images through a multimodal model. Tagging is best
// effort: every failure degrades to an empty tag list.
package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/structures"
	json "github.com/goccy/go-json"
	"google.golang.org/genai"
)

const prompt = "Analyze this image and return a JSON object with a list of 'tags' (strings) describing objects, mood, colors, and location."

type AnalyzerInterface interface {
	Analyze(ctx context.Context, image []byte, mimeType string) []string
}

type GeminiAnalyzer struct {
	client    *genai.Client
	model     string
	maxTokens int32
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
}

func NewAnalyzer(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) (AnalyzerInterface, error) {
	if conf.Vision.APIKey == "" {
		logger.Warnf(providers.TypeApp, "Vision API key not configured, uploads will not be tagged")
		return &noopAnalyzer{}, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  conf.Vision.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &GeminiAnalyzer{
		client:    client,
		model:     conf.Vision.Model,
		maxTokens: int32(conf.Vision.MaxTokens),
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func (a *GeminiAnalyzer) Analyze(ctx context.Context, image []byte, mimeType string) []string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
		},
	}}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  a.maxTokens,
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		a.fail("Vision request failed: %s", err)
		return []string{}
	}

	tags, err := ParseTags(responseText(resp))
	if err != nil {
		a.fail("Vision response not understood: %s", err)
		return []string{}
	}
	return tags
}

func (a *GeminiAnalyzer) fail(format string, err error) {
	a.metrics.IncVisionFailures()
	a.logger.Warnf(providers.TypeApp, format, err)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

// ParseTags extracts the "tags" list from a model answer, tolerating a
// markdown code fence around the JSON. Blank tags are dropped.
func ParseTags(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var out tagsResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(out.Tags))
	for _, t := range out.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

type noopAnalyzer struct{}

func (n *noopAnalyzer) Analyze(_ context.Context, _ []byte, _ string) []string {
	return []string{}
}
