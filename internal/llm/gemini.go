package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fachebot/chat-insight/internal/config"
	"google.golang.org/genai"
)

// GeminiClient 基于 Google Gemini API 的总结后端
type GeminiClient struct {
	config         *config.LLM
	prompts        *config.Prompts
	client         *genai.Client
	maxInputTokens int
}

func newGeminiClient(cfg *config.LLM, prompts *config.Prompts) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &GeminiClient{
		config:         cfg,
		prompts:        prompts,
		client:         client,
		maxInputTokens: cfg.MaxTokens - 2000,
	}, nil
}

// Summarize 生成总结文本
func (c *GeminiClient) Summarize(ctx context.Context, transcript string, role Role, params map[string]string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	transcript = truncateTranscript(transcript, c.maxInputTokens)
	prompt := buildPrompt(c.prompts, role, params, transcript)

	temperature := float32(0.3)
	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("调用 Gemini API 失败: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("Gemini API 返回空结果")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}

	return strings.TrimSpace(sb.String()), nil
}
