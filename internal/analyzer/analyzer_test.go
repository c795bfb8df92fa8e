package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockMessageSource 用于测试的 MessageSource mock
type mockMessageSource struct {
	messages  []Message
	chatTitle string
	err       error
}

func (m *mockMessageSource) FetchMessages(ctx context.Context, chatID int64, limit int) ([]Message, string, error) {
	if m.err != nil {
		return nil, m.chatTitle, m.err
	}
	return m.messages, m.chatTitle, nil
}

// mockSummaryGenerator 用于测试的 SummaryGenerator mock
type mockSummaryGenerator struct {
	overall       string
	byParticipant map[string]string
	called        bool
	gotExtended   []Message
	gotGroups     map[string][]Message
}

func (m *mockSummaryGenerator) GenerateSummaries(ctx context.Context, extended []Message, participants map[string][]Message) (string, map[string]string) {
	m.called = true
	m.gotExtended = extended
	m.gotGroups = participants
	return m.overall, m.byParticipant
}

func TestAnalyze_NoMessages(t *testing.T) {
	a := NewAnalyzer(&mockMessageSource{chatTitle: "测试群"}, &mockSummaryGenerator{})

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100, Summarize: true})
	assert.Equal(t, StatusError, result.Status)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, result.MessageCount)
	assert.Nil(t, result.DateRange)
	assert.Nil(t, result.Summaries)
}

func TestAnalyze_SourceErrorTreatedAsEmpty(t *testing.T) {
	a := NewAnalyzer(&mockMessageSource{err: errors.New("network error")}, nil)

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100})
	assert.Equal(t, StatusError, result.Status)
}

func TestAnalyze_DateRangeBoundary(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// 消息来源按新到旧产出：T3, T2, T1
	messages := []Message{
		mustMessage(3, "Alice", 1, "c", base.Add(2*time.Minute)),
		mustMessage(2, "Alice", 1, "b", base.Add(time.Minute)),
		mustMessage(1, "Alice", 1, "a", base),
	}
	a := NewAnalyzer(&mockMessageSource{messages: messages, chatTitle: "测试群"}, nil)

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100})
	assert.Equal(t, StatusSuccess, result.Status)
	if assert.NotNil(t, result.DateRange) {
		assert.Equal(t, "2025-03-01 10:00:00", result.DateRange.Earliest)
		assert.Equal(t, "2025-03-01 10:02:00", result.DateRange.Latest)
	}
}

func TestAnalyze_DateRangeOverFilteredOnly(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// Bob 的消息更新也更旧，但时间范围只看过滤后的 Alice 消息
	messages := []Message{
		mustMessage(4, "Bob", 2, "d", base.Add(3*time.Minute)),
		mustMessage(3, "Alice", 1, "c", base.Add(2*time.Minute)),
		mustMessage(2, "Alice", 1, "b", base.Add(time.Minute)),
		mustMessage(1, "Bob", 2, "a", base),
	}
	a := NewAnalyzer(&mockMessageSource{messages: messages, chatTitle: "测试群"}, nil)

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100, TargetUsers: []string{"alice"}})
	if assert.NotNil(t, result.DateRange) {
		assert.Equal(t, "2025-03-01 10:01:00", result.DateRange.Earliest)
		assert.Equal(t, "2025-03-01 10:02:00", result.DateRange.Latest)
	}
}

func TestAnalyze_EmptyFilteredNoDateRange(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []Message{
		mustMessage(1, "Bob", 2, "a", base),
	}
	a := NewAnalyzer(&mockMessageSource{messages: messages, chatTitle: "测试群"}, nil)

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100, TargetUsers: []string{"alice"}})
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Nil(t, result.DateRange)
	if assert.NotNil(t, result.MessageCount) {
		assert.Equal(t, 1, result.MessageCount.Total)
		assert.Equal(t, 0, result.MessageCount.Filtered)
		assert.Equal(t, 0, result.MessageCount.WithContext)
	}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []Message{
		mustReply(4, "Alice", 1, "回复Bob", base.Add(3*time.Minute), 2),
		mustMessage(3, "Alice", 1, "发言", base.Add(2*time.Minute)),
		mustMessage(2, "Bob", 2, "被回复", base.Add(time.Minute)),
		mustMessage(1, "Carol", 3, "无关", base),
	}
	gen := &mockSummaryGenerator{
		overall: "整体总结",
		byParticipant: map[string]string{
			"Alice": "Alice的总结",
			"Bob":   "Bob的总结",
		},
	}
	a := NewAnalyzer(&mockMessageSource{messages: messages, chatTitle: "技术交流群"}, gen)

	result := a.Analyze(context.Background(), Options{
		ChatID:      123,
		TargetUsers: []string{"alice"},
		Limit:       100,
		Summarize:   true,
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "技术交流群", result.ChatTitle)
	assert.Equal(t, []string{"alice"}, result.TargetUsers)
	if assert.NotNil(t, result.MessageCount) {
		assert.Equal(t, 4, result.MessageCount.Total)
		assert.Equal(t, 2, result.MessageCount.Filtered)
		assert.Equal(t, 3, result.MessageCount.WithContext)
	}

	// 总结基于扩展后的消息和分组
	assert.True(t, gen.called)
	assert.Len(t, gen.gotExtended, 3)
	assert.Len(t, gen.gotGroups, 2)
	if assert.NotNil(t, result.Summaries) {
		assert.Equal(t, "整体总结", result.Summaries.Overall)
		assert.Equal(t, "Alice的总结", result.Summaries.ByParticipant["Alice"])
	}
}

func TestAnalyze_SkipSummary(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	messages := []Message{
		mustMessage(1, "Alice", 1, "a", base),
	}
	gen := &mockSummaryGenerator{overall: "不应被调用"}
	a := NewAnalyzer(&mockMessageSource{messages: messages, chatTitle: "测试群"}, gen)

	result := a.Analyze(context.Background(), Options{ChatID: 123, Limit: 100, Summarize: false})
	assert.Equal(t, StatusSuccess, result.Status)
	assert.False(t, gen.called)
	assert.Nil(t, result.Summaries)
}
