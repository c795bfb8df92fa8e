package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPartitionByParticipant_Coverage(t *testing.T) {
	now := time.Now().UTC()
	messages := []Message{
		mustMessage(5, "Alice", 1, "e", now),
		mustMessage(4, "Bob", 2, "d", now.Add(-time.Minute)),
		mustMessage(3, "Alice", 1, "c", now.Add(-2*time.Minute)),
		mustMessage(2, "", 0, "b", now.Add(-3*time.Minute)),
		mustMessage(1, "Bob", 2, "a", now.Add(-4*time.Minute)),
	}

	participants := PartitionByParticipant(messages, false)

	// 每条消息恰好出现在一个分组中，总数守恒
	total := 0
	for _, group := range participants {
		total += len(group)
	}
	assert.Equal(t, len(messages), total)

	assert.Len(t, participants, 3)
	assert.Equal(t, []int64{5, 3}, messageIDs(participants["Alice"]))
	assert.Equal(t, []int64{4, 1}, messageIDs(participants["Bob"]))
	assert.Equal(t, []int64{2}, messageIDs(participants[UnknownSender]))
}

func TestPartitionByParticipant_PreservesInputOrder(t *testing.T) {
	now := time.Now().UTC()
	// 输入顺序与时间顺序不一致，分组应保持输入顺序
	messages := []Message{
		mustMessage(1, "Alice", 1, "旧消息", now.Add(-time.Hour)),
		mustMessage(3, "Alice", 1, "新消息", now),
		mustMessage(2, "Alice", 1, "中间消息", now.Add(-30*time.Minute)),
	}

	participants := PartitionByParticipant(messages, false)
	assert.Equal(t, []int64{1, 3, 2}, messageIDs(participants["Alice"]))
}

func TestPartitionByParticipant_NoNormalizeByDefault(t *testing.T) {
	now := time.Now().UTC()
	messages := []Message{
		mustMessage(2, "@alice", 1, "b", now),
		mustMessage(1, "Alice", 1, "a", now.Add(-time.Minute)),
	}

	// 默认不归一化，字面不同的名称视为不同发言者
	participants := PartitionByParticipant(messages, false)
	assert.Len(t, participants, 2)
	assert.Len(t, participants["@alice"], 1)
	assert.Len(t, participants["Alice"], 1)
}

func TestPartitionByParticipant_NormalizeToggle(t *testing.T) {
	now := time.Now().UTC()
	messages := []Message{
		mustMessage(2, "@alice", 1, "b", now),
		mustMessage(1, "Alice", 1, "a", now.Add(-time.Minute)),
	}

	participants := PartitionByParticipant(messages, true)
	assert.Len(t, participants, 1)
	assert.Equal(t, []int64{2, 1}, messageIDs(participants["alice"]))
}

func TestPartitionByParticipant_Empty(t *testing.T) {
	participants := PartitionByParticipant(nil, false)
	assert.Empty(t, participants)
}
