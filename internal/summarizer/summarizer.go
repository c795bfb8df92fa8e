package summarizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/fachebot/chat-insight/internal/analyzer"
	"github.com/fachebot/chat-insight/internal/llm"
	"github.com/fachebot/chat-insight/internal/logger"
)

// Coordinator 并发调度总结请求：一个整体总结加每个发言者各一个
// 各请求相互独立，单个失败不取消其他请求，失败槽位以错误说明文本代替
type Coordinator struct {
	llmClient textSummarizer
}

func NewCoordinator(llmClient llm.Summarizer) *Coordinator {
	return &Coordinator{
		llmClient: llmClient,
	}
}

// GenerateSummaries 生成整体总结和按发言者的分组总结
// 返回的 map 以传入的发言者名称为键，与完成顺序无关
func (c *Coordinator) GenerateSummaries(
	ctx context.Context,
	extended []analyzer.Message,
	participants map[string][]analyzer.Message,
) (string, map[string]string) {
	logger.Infof("[Summarizer] 开始生成总结: 1 个整体 + %d 个发言者", len(participants))

	results := make(chan outcome, len(participants)+1)
	var wg sync.WaitGroup

	// 整体总结
	wg.Add(1)
	go func() {
		defer wg.Done()
		transcript := analyzer.FormatTranscript(extended, "")
		results <- outcome{
			overall: true,
			summary: c.dispatch(ctx, transcript, llm.RoleOverall, nil),
		}
	}()

	// 每个发言者一个总结请求，单独渲染该发言者的对话记录
	// 渲染时统一使用分组键作为发言者名称，转发行的归属保持一致
	for name, msgs := range participants {
		wg.Add(1)
		go func(name string, msgs []analyzer.Message) {
			defer wg.Done()
			transcript := analyzer.FormatTranscript(msgs, name)
			results <- outcome{
				participant: name,
				summary: c.dispatch(ctx, transcript, llm.RoleParticipant, map[string]string{
					"participant": name,
				}),
			}
		}(name, msgs)
	}

	wg.Wait()
	close(results)

	var overall string
	byParticipant := make(map[string]string, len(participants))
	for r := range results {
		if r.overall {
			overall = r.summary
		} else {
			byParticipant[r.participant] = r.summary
		}
	}

	logger.Infof("[Summarizer] 总结完成")
	return overall, byParticipant
}

// dispatch 执行单个总结请求，失败（含 panic）转换为错误说明文本
func (c *Coordinator) dispatch(ctx context.Context, transcript string, role llm.Role, params map[string]string) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Summarizer] 总结请求发生 panic: %v", r)
			summary = errorMarker(fmt.Errorf("%v", r))
		}
	}()

	result, err := c.llmClient.Summarize(ctx, transcript, role, params)
	if err != nil {
		logger.Errorf("[Summarizer] 总结请求失败 (role=%s): %v", role, err)
		return errorMarker(err)
	}
	return result
}

// errorMarker 生成占位的错误说明文本，保持结果结构统一
func errorMarker(err error) string {
	return fmt.Sprintf("生成总结失败: %v", err)
}
