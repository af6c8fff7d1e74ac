package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type client struct {
	openAIClient *openai.Client
	modelName    string
	dimension    int
}

type Service interface {
	// CreateEmbeddings converts texts to vectors in one batch call.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the fixed vector length the corpus was embedded at.
	Dimension() int
}

func NewClient(openAIClient *openai.Client, modelName string, dimension int) Service {
	return &client{
		openAIClient: openAIClient,
		modelName:    modelName,
		dimension:    dimension,
	}
}

func (c *client) Dimension() int {
	return c.dimension
}

func (c *client) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.modelName),
	}

	resp, err := c.openAIClient.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		if c.dimension > 0 && len(data.Embedding) != c.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", c.dimension, len(data.Embedding))
		}
		embeddings[i] = data.Embedding
	}

	return embeddings, nil
}
