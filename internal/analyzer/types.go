package analyzer

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UnknownSender 无法解析发送者时的占位名称
const UnknownSender = "Unknown"

// Message 单条会话消息，拉取后不再修改
type Message struct {
	ID            int64     `json:"id"`
	Datetime      time.Time `json:"datetime"`
	Timestamp     string    `json:"timestamp"` // Datetime 的展示格式，同一时刻的另一种表示
	Text          string    `json:"text"`
	SenderName    string    `json:"sender_name"`
	SenderID      int64     `json:"sender_id,omitempty"` // 0 表示发送者解析失败
	IsReply       bool      `json:"is_reply,omitempty"`
	ReplyToMsgID  int64     `json:"reply_to_msg_id,omitempty"`
	IsForwarded   bool      `json:"is_forwarded,omitempty"`
	ForwardedFrom string    `json:"forwarded_from,omitempty"` // 转发来源，可能是占位文本
}

// MessageCount 各阶段的消息数量统计
type MessageCount struct {
	Total       int `json:"total"`
	Filtered    int `json:"filtered"`
	WithContext int `json:"with_context"`
}

// DateRange 过滤后消息的时间范围
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// Summaries 总结内容，Overall 为整体总结，ByParticipant 按发言者分组
type Summaries struct {
	Overall       string            `json:"overall_summary"`
	ByParticipant map[string]string `json:"by_participant"`
}

// Result 一次分析的完整结果，组装完成后不再修改
type Result struct {
	Status       string        `json:"status"`
	Message      string        `json:"message,omitempty"`
	ChatTitle    string        `json:"chat_title,omitempty"`
	TargetUsers  []string      `json:"target_users,omitempty"`
	MessageCount *MessageCount `json:"message_count,omitempty"`
	DateRange    *DateRange    `json:"date_range,omitempty"`
	Summaries    *Summaries    `json:"text_summaries,omitempty"`
}
