package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/strataops/strata-triage/model/common"
	"github.com/strataops/strata-triage/model/config"
	"github.com/strataops/strata-triage/model/enum"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type LlmSize string

const (
	ModelSmall  LlmSize = "small"
	ModelMedium LlmSize = "medium"
	ModelLarge  LlmSize = "large"
)

type client struct {
	log        *logrus.Logger
	llmClients map[LlmSize]*openai.Client
	llmConfigs []config.Llm
}

type Service interface {
	// ChatCompletion runs one exchange with optional history.
	ChatCompletionWithHistory(ctx context.Context, size LlmSize, systemPrompt enum.SystemPrompt, content string, history []common.LlmMessage, temperature ...float32) (string, error)
	// GetCompletion is a one-shot generation, typically for background tasks.
	GetCompletion(ctx context.Context, size LlmSize, systemPrompt enum.SystemPrompt, content string, temperature ...float32) (string, error)
}

func NewClient(log *logrus.Logger, clients map[LlmSize]*openai.Client, configs []config.Llm) Service {
	return &client{
		log:        log,
		llmClients: clients,
		llmConfigs: configs,
	}
}

func (c *client) getLlmConfig(size LlmSize) *config.Llm {
	for i := range c.llmConfigs {
		if LlmSize(c.llmConfigs[i].Size) == size {
			return &c.llmConfigs[i]
		}
	}
	// Fall back to the first configured model when the size is missing.
	if len(c.llmConfigs) > 0 {
		return &c.llmConfigs[0]
	}
	return nil
}

// filterContent strips reasoning tags from the raw model output.
func (c *client) filterContent(rawAnswer string) string {
	if parts := strings.SplitN(rawAnswer, "</think>", 2); len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(rawAnswer)
}

func (c *client) complete(ctx context.Context, size LlmSize, systemPrompt enum.SystemPrompt, content string, history []common.LlmMessage, temperature ...float32) (string, error) {
	llmClient, ok := c.llmClients[size]
	if !ok {
		return "", errors.New("no LLM client configured for requested size")
	}
	llmConfig := c.getLlmConfig(size)
	if llmConfig == nil || llmConfig.Model == "" {
		return "", errors.New("no LLM model configuration found")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: string(systemPrompt),
	})
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: content,
	})

	req := openai.ChatCompletionRequest{
		Model:    llmConfig.Model,
		Messages: messages,
	}

	// Explicit temperature beats config, which beats the provider default.
	if len(temperature) > 0 {
		req.Temperature = temperature[0]
	} else if llmConfig.Temperature != nil {
		req.Temperature = *llmConfig.Temperature
	}

	resp, err := llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		c.log.Errorf("LLM API call failed: %v", err)
		return "", common.Transient("LLM service unavailable: %v", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", common.Transient("LLM returned an empty result")
	}
	return c.filterContent(resp.Choices[0].Message.Content), nil
}

func (c *client) ChatCompletionWithHistory(ctx context.Context, size LlmSize, systemPrompt enum.SystemPrompt, content string, history []common.LlmMessage, temperature ...float32) (string, error) {
	return c.complete(ctx, size, systemPrompt, content, history, temperature...)
}

func (c *client) GetCompletion(ctx context.Context, size LlmSize, systemPrompt enum.SystemPrompt, content string, temperature ...float32) (string, error) {
	return c.complete(ctx, size, systemPrompt, content, nil, temperature...)
}
