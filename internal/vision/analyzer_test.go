package vision

import (
	"context"
	"testing"

	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/borkya1/smart-gallery/internal/testutil"
	"google.golang.org/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", `{"tags": ["beach", "sunset"]}`, []string{"beach", "sunset"}},
		{"fenced", "```json\n{\"tags\": [\"cat\"]}\n```", []string{"cat"}},
		{"bare fence", "```\n{\"tags\": [\"dog\"]}\n```", []string{"dog"}},
		{"blanks dropped", `{"tags": [" red ", "", "  "]}`, []string{"red"}},
		{"missing key", `{"labels": ["x"]}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTags(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTags_Invalid(t *testing.T) {
	_, err := ParseTags("I see a beach")
	assert.Error(t, err)
}

func TestNewAnalyzer_WithoutKeyIsNoop(t *testing.T) {
	logger := &testutil.MockLogger{}
	a, err := NewAnalyzer(&structures.Config{}, logger, testutil.NewMockMetrics())

	require.NoError(t, err)
	assert.IsType(t, &noopAnalyzer{}, a)
	assert.Equal(t, []string{}, a.Analyze(context.Background(), []byte{1}, "image/png"))
	assert.Equal(t, 1, logger.Count("warn"))
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{
			{Text: "considering the scene", Thought: true},
			{Text: `{"tags": `},
			{Text: `["beach"]}`},
		}},
	}}}

	assert.Equal(t, `{"tags": ["beach"]}`, responseText(resp))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
}
