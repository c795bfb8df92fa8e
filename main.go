//go:build linux
// +build linux

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fachebot/chat-insight/internal/analyzer"
	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/formatter"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/notify"
	"github.com/fachebot/chat-insight/internal/scheduler"
	"github.com/fachebot/chat-insight/internal/summarizer"
	"github.com/fachebot/chat-insight/internal/svc"
	"github.com/fachebot/chat-insight/internal/teleapp"

	"github.com/zelenin/go-tdlib/client"
)

const defaultMessageLimit = 200

var (
	configFile = flag.String("f", "etc/config.yaml", "the config file")
	chatFlag   = flag.String("c", "", "要分析的会话ID或公开用户名")
	usersFlag  = flag.String("u", "", "目标用户列表, 逗号分隔 (用户名或数字ID)")
	limitFlag  = flag.Int("n", 0, "拉取的消息数量上限")
	outputFlag = flag.String("o", "", "输出文件路径, 留空输出到控制台")
	formatFlag = flag.String("format", "text", "输出格式: text / json / markdown")
	noSummary  = flag.Bool("no-summary", false, "跳过AI总结")
	modelFlag  = flag.String("model", "", "覆盖配置中的模型名称")
	daemonFlag = flag.Bool("daemon", false, "定时任务模式, 按配置的 cron 周期分析并通知")
)

func main() {
	flag.Parse()

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}
	if *modelFlag != "" {
		c.LLM.Model = *modelFlag
	}

	// 分析结果写标准输出时，把控制台日志改写到标准错误
	if !*daemonFlag && *outputFlag == "" {
		logger.SetConsoleOutput(os.Stderr)
	}

	// 创建数据目录
	if _, err := os.Stat("data"); os.IsNotExist(err) {
		err := os.Mkdir("data", 0755)
		if err != nil {
			logger.Fatalf("创建数据目录失败, %s", err)
		}
	}

	// 创建服务上下文
	svcCtx := svc.NewServiceContext(c)

	// 运行Telegram App
	options := make([]client.Option, 0)
	if c.Sock5Proxy.Enable {
		options = append(options, client.WithProxy(&client.AddProxyRequest{
			Server: c.Sock5Proxy.Host,
			Port:   c.Sock5Proxy.Port,
			Enable: c.Sock5Proxy.Enable,
			Type:   &client.ProxyTypeSocks5{},
		}))
	}

	// 创建TeleApp
	app := teleapp.NewApp(c.TelegramApp.ApiId, c.TelegramApp.ApiHash, "data")
	user, err := app.Login(options...)
	if err != nil {
		logger.Fatalf("[TeleApp] 用户登录失败, %s", err)
	}
	logger.Infof("[TeleApp] 用户 <%s %s>(%d) 登录成功", user.FirstName, user.LastName, user.Id)

	// 创建分析流水线
	coordinator := summarizer.NewCoordinator(svcCtx.Summarizer)
	analyzerInstance := analyzer.NewAnalyzer(app, coordinator)

	if *daemonFlag {
		runDaemon(c, app, analyzerInstance)
		return
	}

	code := runOnce(c, app, analyzerInstance)
	if err := app.Close(); err != nil {
		logger.Infof("[TeleApp] 关闭失败, %v", err)
	}
	os.Exit(code)
}

// runOnce 执行一次分析并输出结果，返回进程退出码
func runOnce(c *config.Config, app *teleapp.TeleApp, analyzerInstance *analyzer.Analyzer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 解析会话标识（命令行优先，其次配置默认值）
	identifier := *chatFlag
	if identifier == "" {
		identifier = c.Analysis.DefaultChatId
	}
	if identifier == "" {
		fmt.Fprintln(os.Stderr, "错误: 未指定会话, 请使用 -c 指定或在配置中设置 Analysis.DefaultChatId")
		return 1
	}

	chatID, err := app.ResolveChat(identifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	limit := *limitFlag
	if limit <= 0 {
		limit = c.Analysis.DefaultLimit
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	result := analyzerInstance.Analyze(ctx, analyzer.Options{
		ChatID:                chatID,
		TargetUsers:           parseUsers(*usersFlag),
		Limit:                 limit,
		Summarize:             !*noSummary,
		NormalizeParticipants: c.Analysis.NormalizeParticipants,
	})

	output, err := formatter.FormatResult(result, *formatFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	if err := formatter.WriteOutput(output, *outputFlag); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}

	if result.Status != analyzer.StatusSuccess {
		fmt.Fprintf(os.Stderr, "错误: %s\n", result.Message)
		return 1
	}
	return 0
}

// runDaemon 定时任务模式：按 cron 周期执行分析并发送通知
func runDaemon(c *config.Config, app *teleapp.TeleApp, analyzerInstance *analyzer.Analyzer) {
	if !c.Schedule.Enable {
		logger.Fatalf("定时模式需要在配置中启用 Schedule.Enable")
	}

	identifier := c.Schedule.ChatId
	if identifier == "" {
		identifier = c.Analysis.DefaultChatId
	}
	chatID, err := app.ResolveChat(identifier)
	if err != nil {
		logger.Fatalf("解析定时分析会话失败, %v", err)
	}

	limit := c.Analysis.DefaultLimit
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	// 创建通知器和调度器
	notifierInstance := notify.NewNotifier(app.Client(), &c.Schedule)
	schedulerInstance := scheduler.NewScheduler(
		analyzerInstance,
		notifierInstance,
		&c.Schedule,
		analyzer.Options{
			ChatID:                chatID,
			TargetUsers:           c.Schedule.TargetUsers,
			Limit:                 limit,
			Summarize:             true,
			NormalizeParticipants: c.Analysis.NormalizeParticipants,
		},
	)
	if err := schedulerInstance.Start(); err != nil {
		logger.Fatalf("[Scheduler] 启动调度器失败: %s", err)
	}

	// 等待程序退出
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	// 优雅关闭
	logger.Infof("正在关闭服务...")
	schedulerInstance.Stop()
	if err := app.Close(); err != nil {
		logger.Infof("[TeleApp] 关闭失败, %v", err)
	}
	logger.Infof("服务已停止")
}

// parseUsers 解析逗号分隔的目标用户列表
func parseUsers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	users := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			users = append(users, p)
		}
	}
	return users
}
