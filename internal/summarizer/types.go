package summarizer

import (
	"context"

	"github.com/fachebot/chat-insight/internal/llm"
)

// textSummarizer 调用 LLM 生成总结文本（便于测试注入 mock）
type textSummarizer interface {
	Summarize(ctx context.Context, transcript string, role llm.Role, params map[string]string) (string, error)
}

// outcome 单个总结任务的结果
// 失败不通过 error 通道传递，直接在 summary 中携带错误说明文本，
// 保证汇聚时不会因为单个任务失败而丢弃其他结果
type outcome struct {
	participant string
	overall     bool
	summary     string
}
