package analyzer

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownForwardSource 转发来源无法解析时的占位文本
const UnknownForwardSource = "Unknown Source"

// FormatTranscript 将消息渲染为按时间升序的对话文本，供 LLM 总结使用
// 每条消息一行：[时间戳] 发言者: 内容；转发消息标注转发来源
//
// labelOverride 非空时所有行都使用该名称，用于渲染单个发言者的对话记录
func FormatTranscript(messages []Message, labelOverride string) string {
	if len(messages) == 0 {
		return ""
	}

	sorted := make([]Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})

	lines := make([]string, 0, len(sorted))
	for _, msg := range sorted {
		label := labelOverride
		if label == "" {
			label = msg.SenderName
		}

		if msg.IsForwarded {
			source := msg.ForwardedFrom
			if source == "" {
				source = UnknownForwardSource
			}
			lines = append(lines, fmt.Sprintf("[%s] %s forwarded from %s: %s", msg.Timestamp, label, source, msg.Text))
		} else {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", msg.Timestamp, label, msg.Text))
		}
	}

	return strings.Join(lines, "\n")
}
