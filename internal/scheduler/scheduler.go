package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fachebot/chat-insight/internal/analyzer"
	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/formatter"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/notify"
	"github.com/robfig/cron/v3"
)

// Scheduler 定时执行会话分析并把文本结果发送到 Telegram
// 每次运行相互独立，不保存历史结果，失败只影响本轮
type Scheduler struct {
	cron     *cron.Cron
	analyzer *analyzer.Analyzer
	notifier *notify.Notifier
	config   *config.Schedule
	opts     analyzer.Options
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
}

func NewScheduler(
	an *analyzer.Analyzer,
	notifier *notify.Notifier,
	cfg *config.Schedule,
	opts analyzer.Options,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		analyzer: an,
		notifier: notifier,
		config:   cfg,
		opts:     opts,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	// 注册定时分析任务
	_, err := s.cron.AddFunc(s.config.Cron, s.runScheduledAnalysis)
	if err != nil {
		return fmt.Errorf("注册定时分析任务失败: %w", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动, 定时分析任务: %s", s.config.Cron)

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] 调度器已停止")
}

// runScheduledAnalysis 执行定时分析任务（cron 触发）
func (s *Scheduler) runScheduledAnalysis() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logger.Infof("[Scheduler] 任务已取消, 退出")
		return
	default:
	}

	logger.Infof("[Scheduler] 开始执行定时分析, 会话: %d", s.opts.ChatID)

	// 阶段一：生成分析结果（带重试）
	content, err := s.generateAnalysis(ctx)
	if err != nil {
		logger.Errorf("[Scheduler] 定时分析失败: %v", err)
		return
	}
	if content == "" {
		logger.Infof("[Scheduler] 分析结果为空, 跳过通知")
		return
	}

	// 阶段二：发送通知（仅重试发送，不重新生成分析）
	s.sendNotification(ctx, content)
}

// generateAnalysis 执行分析并渲染为文本，分析失败时按配置重试
func (s *Scheduler) generateAnalysis(ctx context.Context) (string, error) {
	retryTimes := s.config.RetryTimes
	if retryTimes <= 0 {
		retryTimes = 3
	}
	retryInterval := time.Duration(s.config.RetryInterval) * time.Second
	if retryInterval <= 0 {
		retryInterval = 60 * time.Second
	}

	var result *analyzer.Result
	for attempt := 1; attempt <= retryTimes; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("任务已取消")
		default:
		}

		logger.Debugf("[Scheduler] 尝试生成分析 (第 %d/%d 次)", attempt, retryTimes)
		result = s.analyzer.Analyze(ctx, s.opts)
		if result.Status == analyzer.StatusSuccess {
			logger.Infof("[Scheduler] 分析生成成功")
			break
		}

		logger.Warnf("[Scheduler] 分析生成失败 (第 %d/%d 次): %s", attempt, retryTimes, result.Message)
		if attempt < retryTimes {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("任务已取消")
			case <-time.After(retryInterval):
			}
		}
	}

	if result == nil || result.Status != analyzer.StatusSuccess {
		return "", fmt.Errorf("分析生成失败, 已重试 %d 次", retryTimes)
	}

	return formatter.FormatResult(result, formatter.FormatText)
}

// sendNotification 发送通知，最多重试 2 次；通知失败不影响本轮任务结束
func (s *Scheduler) sendNotification(ctx context.Context, content string) {
	retryInterval := time.Duration(s.config.RetryInterval) * time.Second
	if retryInterval <= 0 {
		retryInterval = 60 * time.Second
	}

	notifyRetryTimes := 2
	for attempt := 1; attempt <= notifyRetryTimes; attempt++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := s.notifier.Notify(ctx, content, s.opts.ChatID)
		if err == nil {
			logger.Infof("[Scheduler] 通知发送成功")
			return
		}
		logger.Warnf("[Scheduler] 通知发送失败 (第 %d/%d 次): %v", attempt, notifyRetryTimes, err)
		if attempt < notifyRetryTimes {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryInterval / 2):
			}
		}
	}

	logger.Errorf("[Scheduler] 通知发送失败, 已重试 %d 次", notifyRetryTimes)
}
