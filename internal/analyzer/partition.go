package analyzer

// PartitionByParticipant 按发言者名称分组，组内保持输入顺序
// 需要时间顺序的调用方应先对输入按 Datetime 排序
//
// normalize 为 false 时严格按 SenderName 原文分组，大小写或 @ 前缀不同的
// 名称视为不同发言者，保留展示身份；为 true 时套用与过滤相同的归一化规则
func PartitionByParticipant(messages []Message, normalize bool) map[string][]Message {
	participants := make(map[string][]Message)
	for _, msg := range messages {
		name := msg.SenderName
		if name == "" {
			name = UnknownSender
		}
		if normalize {
			name = NormalizeTarget(name)
		}
		participants[name] = append(participants[name], msg)
	}
	return participants
}
