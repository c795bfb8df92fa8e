package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fachebot/chat-insight/internal/analyzer"
)

const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// FormatResult 将分析结果序列化为指定格式
func FormatResult(result *analyzer.Result, format string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("分析结果为空")
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("序列化 JSON 失败: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return formatMarkdown(result), nil
	case FormatText, "":
		return formatText(result), nil
	default:
		return "", fmt.Errorf("不支持的输出格式: %s", format)
	}
}

// WriteOutput 将内容写入文件，path 为空时写到标准输出
func WriteOutput(content, path string) error {
	if path == "" {
		_, err := fmt.Println(content)
		return err
	}

	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("写入输出文件 %s 失败: %w", path, err)
	}
	return nil
}

// sortedParticipants 发言者名称排序，保证输出顺序稳定
func sortedParticipants(byParticipant map[string]string) []string {
	names := make([]string, 0, len(byParticipant))
	for name := range byParticipant {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatText(result *analyzer.Result) string {
	if result.Status != analyzer.StatusSuccess {
		return fmt.Sprintf("❌ 分析失败: %s", result.Message)
	}

	var sb strings.Builder

	// 头部
	sb.WriteString(fmt.Sprintf("📊 会话分析: %s\n", result.ChatTitle))
	if len(result.TargetUsers) > 0 {
		sb.WriteString(fmt.Sprintf("🎯 目标用户: %s\n", strings.Join(result.TargetUsers, ", ")))
	}
	if result.DateRange != nil {
		sb.WriteString(fmt.Sprintf("📅 时间范围: %s ~ %s\n", result.DateRange.Earliest, result.DateRange.Latest))
	}

	if result.MessageCount != nil {
		sb.WriteString("\n--- 消息统计 ---\n")
		sb.WriteString(fmt.Sprintf("总消息数: %d\n", result.MessageCount.Total))
		sb.WriteString(fmt.Sprintf("过滤后: %d\n", result.MessageCount.Filtered))
		sb.WriteString(fmt.Sprintf("含上下文: %d\n", result.MessageCount.WithContext))
	}

	if result.Summaries != nil {
		if result.Summaries.Overall != "" {
			sb.WriteString("\n--- 整体总结 ---\n")
			sb.WriteString(result.Summaries.Overall)
			sb.WriteString("\n")
		}
		if len(result.Summaries.ByParticipant) > 0 {
			sb.WriteString("\n--- 发言者总结 ---\n")
			for _, name := range sortedParticipants(result.Summaries.ByParticipant) {
				sb.WriteString(fmt.Sprintf("\n[%s]\n%s\n", name, result.Summaries.ByParticipant[name]))
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatMarkdown(result *analyzer.Result) string {
	if result.Status != analyzer.StatusSuccess {
		return fmt.Sprintf("# 分析失败\n\n%s", result.Message)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# 会话分析: %s\n\n", result.ChatTitle))
	if len(result.TargetUsers) > 0 {
		sb.WriteString(fmt.Sprintf("**目标用户**: %s\n\n", strings.Join(result.TargetUsers, ", ")))
	}
	if result.DateRange != nil {
		sb.WriteString(fmt.Sprintf("**时间范围**: %s ~ %s\n\n", result.DateRange.Earliest, result.DateRange.Latest))
	}

	if result.MessageCount != nil {
		sb.WriteString("## 消息统计\n\n")
		sb.WriteString(fmt.Sprintf("- 总消息数: %d\n", result.MessageCount.Total))
		sb.WriteString(fmt.Sprintf("- 过滤后: %d\n", result.MessageCount.Filtered))
		sb.WriteString(fmt.Sprintf("- 含上下文: %d\n", result.MessageCount.WithContext))
		sb.WriteString("\n")
	}

	if result.Summaries != nil {
		if result.Summaries.Overall != "" {
			sb.WriteString("## 整体总结\n\n")
			sb.WriteString(result.Summaries.Overall)
			sb.WriteString("\n\n")
		}
		if len(result.Summaries.ByParticipant) > 0 {
			sb.WriteString("## 发言者总结\n")
			for _, name := range sortedParticipants(result.Summaries.ByParticipant) {
				sb.WriteString(fmt.Sprintf("\n### %s\n\n%s\n", name, result.Summaries.ByParticipant[name]))
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}
