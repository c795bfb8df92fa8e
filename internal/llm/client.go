package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client 基于 OpenAI 兼容端点的总结后端
type Client struct {
	config         *config.LLM
	prompts        *config.Prompts
	openaiClient   openAIClientInterface
	maxInputTokens int
}

// NewClient 创建 OpenAI 兼容后端，transport 非 nil 时走代理
func NewClient(cfg *config.LLM, prompts *config.Prompts, transport *http.Transport) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if transport != nil {
		openaiConfig.HTTPClient = &http.Client{Transport: transport}
	}

	client := &Client{
		config:         cfg,
		prompts:        prompts,
		openaiClient:   openai.NewClientWithConfig(openaiConfig),
		maxInputTokens: cfg.MaxTokens - 2000, // 预留 2000 tokens 给提示词和输出
	}

	return client
}

// estimateTokens 估算文本的 token 数量
func estimateTokens(text string) int {
	// 简单估算：中文约 1.5 token/字，英文约 1.3 token/词
	chineseChars := 0

	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			chineseChars++
		}
	}

	// 英文词数估算（简单按空格分割）
	englishWords := len(strings.Fields(text))

	// 总 token 估算
	tokens := int(float64(chineseChars)*1.5 + float64(englishWords)*1.3)
	if tokens < len(text)/4 {
		// 如果估算值太小，使用字符数的 1/4 作为下限
		tokens = len(text) / 4
	}

	return tokens
}

// elisionNote 对话记录被截断时加在开头的提示行
const elisionNote = "[更早的消息因长度限制已省略]"

// truncateTranscript 对话记录超出 token 预算时从头部截断，保留最近的行
// 对话记录按时间升序排列，尾部是最新消息，截掉的是最早的部分
func truncateTranscript(transcript string, maxTokens int) string {
	if estimateTokens(transcript) <= maxTokens {
		return transcript
	}

	lines := strings.Split(transcript, "\n")
	kept := make([]string, 0, len(lines))
	budget := maxTokens - estimateTokens(elisionNote)

	// 从尾部向前累计，超出预算即停止
	total := 0
	for i := len(lines) - 1; i >= 0; i-- {
		tokens := estimateTokens(lines[i])
		if total+tokens > budget && len(kept) > 0 {
			break
		}
		kept = append(kept, lines[i])
		total += tokens
	}

	// 反转回时间升序
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	logger.Warnf("[LLM] 对话记录过长, 已截断至最近 %d/%d 行", len(kept), len(lines))
	return elisionNote + "\n" + strings.Join(kept, "\n")
}

// Summarize 生成总结文本
// role 决定使用整体模板还是发言者模板，params 携带模板需要的替换项（如发言者名称）
func (c *Client) Summarize(ctx context.Context, transcript string, role Role, params map[string]string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	transcript = truncateTranscript(transcript, c.maxInputTokens)
	prompt := buildPrompt(c.prompts, role, params, transcript)

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM API 返回空结果")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
