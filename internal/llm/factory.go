package llm

import (
	"context"
	"net/http"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/logger"
)

// Summarizer 可插拔的总结后端
// 实现方对可预期的失败返回 error，由调用方决定如何降级
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, role Role, params map[string]string) (string, error)
}

// NewSummarizer 根据模型名称选择后端：gemini 开头走 Gemini，其余走 OpenAI 兼容端点
func NewSummarizer(cfg *config.LLM, prompts *config.Prompts, transport *http.Transport) (Summarizer, error) {
	if cfg.IsGeminiModel() {
		logger.Infof("[LLM] 使用 Gemini 后端, 模型: %s", cfg.Model)
		return newGeminiClient(cfg, prompts)
	}

	logger.Infof("[LLM] 使用 OpenAI 兼容后端, 模型: %s, 端点: %s", cfg.Model, cfg.BaseURL)
	return NewClient(cfg, prompts, transport), nil
}
