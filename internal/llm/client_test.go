package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fachebot/chat-insight/internal/config"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

// mockOpenAIClient 模拟 OpenAI 客户端
type mockOpenAIClient struct {
	response openai.ChatCompletionResponse
	err      error
	gotReq   openai.ChatCompletionRequest
	called   bool
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.called = true
	m.gotReq = req
	return m.response, m.err
}

func newTestClient(mock *mockOpenAIClient, prompts *config.Prompts) *Client {
	if prompts == nil {
		prompts = &config.Prompts{}
	}
	return &Client{
		config:         &config.LLM{Model: "gpt-4o", MaxTokens: 64000},
		prompts:        prompts,
		openaiClient:   mock,
		maxInputTokens: 62000,
	}
}

func completionResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestSummarize_Overall(t *testing.T) {
	mock := &mockOpenAIClient{response: completionResponse("  这是总结内容  ")}
	client := newTestClient(mock, nil)

	result, err := client.Summarize(context.Background(), "[2025-03-01 10:00:00] Alice: 你好", RoleOverall, nil)
	assert.NoError(t, err)
	assert.Equal(t, "这是总结内容", result)

	assert.Equal(t, "gpt-4o", mock.gotReq.Model)
	if assert.Len(t, mock.gotReq.Messages, 1) {
		assert.Equal(t, openai.ChatMessageRoleUser, mock.gotReq.Messages[0].Role)
		assert.Contains(t, mock.gotReq.Messages[0].Content, "Alice: 你好")
	}
}

func TestSummarize_ParticipantPromptSubstitution(t *testing.T) {
	mock := &mockOpenAIClient{response: completionResponse("总结")}
	client := newTestClient(mock, &config.Prompts{
		Participant: "分析 {participant} 的发言:\n{messages}",
	})

	_, err := client.Summarize(context.Background(), "[2025-03-01 10:00:00] Alice: hi", RoleParticipant, map[string]string{
		"participant": "Alice",
	})
	assert.NoError(t, err)

	prompt := mock.gotReq.Messages[0].Content
	assert.Contains(t, prompt, "分析 Alice 的发言:")
	assert.Contains(t, prompt, "Alice: hi")
	assert.NotContains(t, prompt, "{participant}")
	assert.NotContains(t, prompt, "{messages}")
}

func TestSummarize_MessagesContainingPlaceholder(t *testing.T) {
	mock := &mockOpenAIClient{response: completionResponse("总结")}
	client := newTestClient(mock, &config.Prompts{
		Participant: "{participant} 的发言:\n{messages}",
	})

	// 消息内容里出现 {participant} 字样不应被二次替换
	_, err := client.Summarize(context.Background(), "[2025-03-01 10:00:00] Alice: 模板里有 {participant}", RoleParticipant, map[string]string{
		"participant": "Alice",
	})
	assert.NoError(t, err)
	assert.Contains(t, mock.gotReq.Messages[0].Content, "模板里有 {participant}")
}

func TestSummarize_EmptyTranscript(t *testing.T) {
	mock := &mockOpenAIClient{}
	client := newTestClient(mock, nil)

	result, err := client.Summarize(context.Background(), "   ", RoleOverall, nil)
	assert.NoError(t, err)
	assert.Equal(t, "", result)
	assert.False(t, mock.called)
}

func TestSummarize_APIError(t *testing.T) {
	mock := &mockOpenAIClient{err: errors.New("connection refused")}
	client := newTestClient(mock, nil)

	_, err := client.Summarize(context.Background(), "[2025-03-01 10:00:00] Alice: hi", RoleOverall, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "调用 LLM API 失败")
}

func TestSummarize_EmptyChoices(t *testing.T) {
	mock := &mockOpenAIClient{response: openai.ChatCompletionResponse{}}
	client := newTestClient(mock, nil)

	_, err := client.Summarize(context.Background(), "[2025-03-01 10:00:00] Alice: hi", RoleOverall, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "返回空结果")
}

func TestTruncateTranscript(t *testing.T) {
	lines := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, "[2025-03-01 10:00:00] Alice: 这是一条比较长的测试消息内容")
	}
	transcript := strings.Join(lines, "\n")

	t.Run("超出预算从头部截断", func(t *testing.T) {
		got := strings.Split(truncateTranscript(transcript, 200), "\n")
		assert.True(t, len(got) < 101)
		assert.Equal(t, elisionNote, got[0])
		// 保留的是尾部的最新消息
		assert.Equal(t, lines[len(lines)-1], got[len(got)-1])
	})

	t.Run("预算内原样返回", func(t *testing.T) {
		got := truncateTranscript(transcript, 1000000)
		assert.Equal(t, transcript, got)
	})

	t.Run("预算极小时至少保留一行", func(t *testing.T) {
		got := strings.Split(truncateTranscript(transcript, 1), "\n")
		assert.Equal(t, elisionNote, got[0])
		assert.Len(t, got, 2)
	})
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.True(t, estimateTokens("这是一段中文文本") > 0)
	assert.True(t, estimateTokens("hello world foo bar") > 0)
	// 中文按字计，长文本估算值应明显大于词数
	long := strings.Repeat("中文内容", 100)
	assert.True(t, estimateTokens(long) >= len([]rune(long)))
}
