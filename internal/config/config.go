package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type TelegramApp struct {
	ApiId   int32  `yaml:"ApiId"`
	ApiHash string `yaml:"ApiHash"`
}

type LLM struct {
	BaseURL   string `yaml:"BaseURL"` // 兼容 OpenAI API 的端点（gemini 模型不需要）
	APIKey    string `yaml:"APIKey"`
	Model     string `yaml:"Model"`     // 如 gpt-4o, deepseek-chat, gemini-2.0-flash
	MaxTokens int    `yaml:"MaxTokens"` // 模型上下文窗口大小
}

type Analysis struct {
	DefaultChatId         string `yaml:"DefaultChatId"`         // 默认分析的会话，-c 未指定时使用
	DefaultLimit          int    `yaml:"DefaultLimit"`          // 默认拉取的消息数量
	NormalizeParticipants bool   `yaml:"NormalizeParticipants"` // 分组时是否归一化发言者名称
}

// Prompts 总结提示词模板，支持 {participant} 和 {messages} 占位符
// 留空时使用内置默认模板
type Prompts struct {
	Overall     string `yaml:"Overall"`
	Participant string `yaml:"Participant"`
}

type Schedule struct {
	Enable        bool     `yaml:"Enable"`
	Cron          string   `yaml:"Cron"`          // cron 表达式，如 "0 23 * * *"
	ChatId        string   `yaml:"ChatId"`        // 定时分析的会话，留空时使用 Analysis.DefaultChatId
	TargetUsers   []string `yaml:"TargetUsers"`   // 定时分析的目标用户，留空时分析全部
	NotifyMode    string   `yaml:"NotifyMode"`    // "private" / "group" / "both"
	NotifyUserIds []int64  `yaml:"NotifyUserIds"` // 私聊通知的目标用户ID列表
	RetryTimes    int      `yaml:"RetryTimes"`    // 分析失败重试次数，默认 3
	RetryInterval int      `yaml:"RetryInterval"` // 重试间隔（秒），默认 60
}

type Config struct {
	Sock5Proxy  Sock5Proxy  `yaml:"Sock5Proxy"`
	TelegramApp TelegramApp `yaml:"TelegramApp"`
	LLM         LLM         `yaml:"LLM"`
	Analysis    Analysis    `yaml:"Analysis"`
	Prompts     Prompts     `yaml:"Prompts"`
	Schedule    Schedule    `yaml:"Schedule"`
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var c Config
	err = yaml.Unmarshal([]byte(data), &c)
	if err != nil {
		return nil, err
	}

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// IsGeminiModel 判断模型是否走 Gemini 后端
func (l *LLM) IsGeminiModel() bool {
	return strings.HasPrefix(strings.ToLower(l.Model), "gemini")
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 TelegramApp
	if c.TelegramApp.ApiId == 0 {
		return fmt.Errorf("TelegramApp.ApiId 不能为空")
	}
	if c.TelegramApp.ApiHash == "" {
		return fmt.Errorf("TelegramApp.ApiHash 不能为空")
	}

	// 验证 LLM
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM.APIKey 不能为空")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM.Model 不能为空")
	}
	if !c.LLM.IsGeminiModel() && c.LLM.BaseURL == "" {
		return fmt.Errorf("LLM.BaseURL 不能为空（非 gemini 模型必须配置 OpenAI 兼容端点）")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM.MaxTokens 必须大于 0")
	}

	// 验证 Analysis
	if c.Analysis.DefaultLimit < 0 {
		return fmt.Errorf("Analysis.DefaultLimit 必须 >= 0")
	}

	// 验证 Prompts（模板必须保留 {messages} 占位符，否则消息内容无处安放）
	if c.Prompts.Overall != "" && !strings.Contains(c.Prompts.Overall, "{messages}") {
		return fmt.Errorf("Prompts.Overall 必须包含 {messages} 占位符")
	}
	if c.Prompts.Participant != "" && !strings.Contains(c.Prompts.Participant, "{messages}") {
		return fmt.Errorf("Prompts.Participant 必须包含 {messages} 占位符")
	}

	// 验证 Schedule（仅在启用定时模式时）
	if c.Schedule.Enable {
		if c.Schedule.Cron == "" {
			return fmt.Errorf("Schedule.Cron 不能为空")
		}
		if c.Schedule.ChatId == "" && c.Analysis.DefaultChatId == "" {
			return fmt.Errorf("Schedule.ChatId 和 Analysis.DefaultChatId 不能同时为空")
		}
		if c.Schedule.RetryTimes < 0 {
			return fmt.Errorf("Schedule.RetryTimes 必须 >= 0")
		}
		if c.Schedule.RetryInterval < 0 {
			return fmt.Errorf("Schedule.RetryInterval 必须 >= 0")
		}
		if c.Schedule.NotifyMode != "private" && c.Schedule.NotifyMode != "group" && c.Schedule.NotifyMode != "both" {
			return fmt.Errorf("Schedule.NotifyMode 必须是 'private', 'group' 或 'both'")
		}
		if c.Schedule.NotifyMode == "private" || c.Schedule.NotifyMode == "both" {
			if len(c.Schedule.NotifyUserIds) == 0 {
				return fmt.Errorf("Schedule.NotifyUserIds 不能为空（当 NotifyMode 为 'private' 或 'both' 时）")
			}
		}
	}

	return nil
}
