package analyzer

import (
	"strconv"
	"strings"
)

// NormalizeTarget 将用户标识归一化为可比较的键：小写并去掉开头的 "@"
// 目标用户和消息字段使用同一个归一化函数，避免比较逻辑散落各处
func NormalizeTarget(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "@")
}

// FilterAndExtend 按目标用户过滤消息，并补充回复上下文
// 返回 (过滤后的消息, 带上下文的扩展消息)，满足 filtered ⊆ extended ⊆ messages
//
// 上下文仅扩展一跳：只拉取被过滤消息直接回复的父消息，
// 父消息自身的父消息不会递归拉取，这是对上下文规模的有意约束
func FilterAndExtend(messages []Message, targetUsers []string) (filtered, extended []Message) {
	if len(targetUsers) == 0 {
		return messages, messages
	}

	targetSet := make(map[string]bool, len(targetUsers))
	for _, u := range targetUsers {
		targetSet[NormalizeTarget(u)] = true
	}

	// 过滤目标用户的消息（按名称或按数字ID匹配）
	filtered = make([]Message, 0)
	for _, msg := range messages {
		if targetSet[NormalizeTarget(msg.SenderName)] {
			filtered = append(filtered, msg)
			continue
		}
		if msg.SenderID != 0 && targetSet[strconv.FormatInt(msg.SenderID, 10)] {
			filtered = append(filtered, msg)
		}
	}

	// 收集被过滤消息回复的父消息ID
	contextIDs := make(map[int64]bool)
	for _, msg := range filtered {
		if msg.IsReply && msg.ReplyToMsgID != 0 {
			contextIDs[msg.ReplyToMsgID] = true
		}
	}

	filteredIDs := make(map[int64]bool, len(filtered))
	for _, msg := range filtered {
		filteredIDs[msg.ID] = true
	}

	// 从原始消息中补充上下文消息，保持原有相对顺序
	extended = make([]Message, 0, len(filtered))
	extended = append(extended, filtered...)
	for _, msg := range messages {
		if contextIDs[msg.ID] && !filteredIDs[msg.ID] {
			extended = append(extended, msg)
		}
	}

	return filtered, extended
}
