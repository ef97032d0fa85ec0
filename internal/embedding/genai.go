package embedding

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAI embeds text with the Gemini embedding models
type GenAI struct {
	client *genai.Client
	model  string
	dims   int
}

// NewGenAI creates a Gemini embedding client
func NewGenAI(ctx context.Context, apiKey, model string, dims int) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY required for genai embeddings")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}
	if dims <= 0 {
		dims = 768
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAI{client: client, model: model, dims: dims}, nil
}

func (g *GenAI) Name() string {
	return "genai:" + g.model
}

func (g *GenAI) Dimensions() int {
	return g.dims
}

func (g *GenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	dims := int32(g.dims)
	result, err := g.client.Models.EmbedContent(ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			TaskType:             "SEMANTIC_SIMILARITY",
			OutputDimensionality: &dims,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("genai embedding request failed: %w", err)
	}
	if result == nil || len(result.Embeddings) == 0 || len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("genai returned no embedding")
	}

	return result.Embeddings[0].Values, nil
}
