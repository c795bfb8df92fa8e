package analyzer

import (
	"context"

	"github.com/fachebot/chat-insight/internal/logger"
)

// MessageSource 拉取会话消息的外部来源
// 拉取失败时应吞掉错误并返回空列表（而不是向上传播），
// 空列表由分析流程统一当作"未找到消息"处理
type MessageSource interface {
	FetchMessages(ctx context.Context, chatID int64, limit int) ([]Message, string, error)
}

// SummaryGenerator 生成整体总结和按发言者的分组总结
// 单个调用失败不应中断整批，失败的槽位以错误说明文本代替
type SummaryGenerator interface {
	GenerateSummaries(ctx context.Context, extended []Message, participants map[string][]Message) (string, map[string]string)
}

// Options 单次分析的参数
type Options struct {
	ChatID                int64
	TargetUsers           []string // 为空时不过滤
	Limit                 int
	Summarize             bool
	NormalizeParticipants bool
}

type Analyzer struct {
	source    MessageSource
	summaries SummaryGenerator
}

func NewAnalyzer(source MessageSource, summaries SummaryGenerator) *Analyzer {
	return &Analyzer{
		source:    source,
		summaries: summaries,
	}
}

// Analyze 执行完整分析流程：拉取 -> 过滤扩展 -> 分组 -> 总结 -> 组装结果
// 只有"未找到消息"会产生 error 状态的结果；总结阶段的局部失败不影响整体成功
func (a *Analyzer) Analyze(ctx context.Context, opts Options) *Result {
	messages, chatTitle, err := a.source.FetchMessages(ctx, opts.ChatID, opts.Limit)
	if err != nil {
		logger.Errorf("[Analyzer] 拉取消息失败: %v", err)
		messages = nil
	}

	if len(messages) == 0 {
		return &Result{
			Status:  StatusError,
			Message: "指定会话中未找到消息",
		}
	}

	logger.Infof("[Analyzer] 已拉取 %d 条消息, 会话: %s", len(messages), chatTitle)

	// 过滤目标用户消息并补充回复上下文
	filtered, extended := FilterAndExtend(messages, opts.TargetUsers)
	logger.Infof("[Analyzer] 过滤后 %d 条消息, 含上下文 %d 条", len(filtered), len(extended))

	// 按发言者分组
	participants := PartitionByParticipant(extended, opts.NormalizeParticipants)

	var summaries *Summaries
	if opts.Summarize && a.summaries != nil && len(extended) > 0 {
		overall, byParticipant := a.summaries.GenerateSummaries(ctx, extended, participants)
		summaries = &Summaries{
			Overall:       overall,
			ByParticipant: byParticipant,
		}
	}

	return &Result{
		Status:      StatusSuccess,
		ChatTitle:   chatTitle,
		TargetUsers: opts.TargetUsers,
		MessageCount: &MessageCount{
			Total:       len(messages),
			Filtered:    len(filtered),
			WithContext: len(extended),
		},
		DateRange: dateRange(filtered),
		Summaries: summaries,
	}
}

// dateRange 计算过滤后消息的时间范围
// 消息来源按新到旧的顺序产出，因此最新的是第一条、最早的是最后一条，
// 这里必须按接收顺序取两端，不能重新排序
func dateRange(filtered []Message) *DateRange {
	if len(filtered) == 0 {
		return nil
	}
	return &DateRange{
		Earliest: filtered[len(filtered)-1].Timestamp,
		Latest:   filtered[0].Timestamp,
	}
}
