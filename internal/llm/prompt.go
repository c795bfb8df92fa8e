package llm

import (
	"strings"

	"github.com/fachebot/chat-insight/internal/config"
)

// Role 总结请求使用的提示词角色
type Role string

const (
	// RoleOverall 整体总结，对全部对话记录生成
	RoleOverall Role = "overall"
	// RoleParticipant 发言者总结，对单个发言者的记录生成
	RoleParticipant Role = "participant"
)

const defaultOverallPrompt = `你是一个专业的聊天记录分析助手。请阅读下面的对话记录，用几句话总结对话的主要内容、讨论的话题和整体氛围。

对话记录：
{messages}

只输出总结文本，不要其他内容。`

const defaultParticipantPrompt = `你是一个专业的聊天记录分析助手。请阅读下面 {participant} 的发言记录，用几句话总结 {participant} 的主要观点、关注的话题和参与方式。

发言记录：
{messages}

只输出总结文本，不要其他内容。`

// buildPrompt 根据角色选择模板并填充占位符
// 先替换 {participant}（来自 params），再替换 {messages}，
// 顺序不能颠倒：消息内容里若出现 {participant} 字样不应被二次替换
func buildPrompt(prompts *config.Prompts, role Role, params map[string]string, transcript string) string {
	var tmpl string
	switch role {
	case RoleParticipant:
		tmpl = prompts.Participant
		if tmpl == "" {
			tmpl = defaultParticipantPrompt
		}
	default:
		tmpl = prompts.Overall
		if tmpl == "" {
			tmpl = defaultOverallPrompt
		}
	}

	if participant, ok := params["participant"]; ok {
		tmpl = strings.ReplaceAll(tmpl, "{participant}", participant)
	}
	return strings.ReplaceAll(tmpl, "{messages}", transcript)
}
