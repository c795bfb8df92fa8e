package teleapp

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fachebot/chat-insight/internal/analyzer"
	"github.com/fachebot/chat-insight/internal/logger"

	"github.com/zelenin/go-tdlib/client"
)

// fetchBatchSize GetChatHistory 单次请求的消息数量上限
const fetchBatchSize = 100

type TeleApp struct {
	user       *client.User
	tdClient   *client.Client
	parameters *client.SetTdlibParametersRequest
	usersMu    sync.RWMutex
	usersCache map[int64]*client.User
	chatsMu    sync.RWMutex
	chatsCache map[int64]*client.Chat
}

func NewApp(apiId int32, apiHash, dataDir string) *TeleApp {
	_, err := client.SetLogVerbosityLevel(&client.SetLogVerbosityLevelRequest{
		NewVerbosityLevel: 1,
	})
	if err != nil {
		logger.Fatalf("[TeleApp] 设置日志级别错误, %s", err)
	}

	parameters := &client.SetTdlibParametersRequest{
		UseTestDc:           false,
		DatabaseDirectory:   filepath.Join(dataDir, ".tdlib", "database"),
		FilesDirectory:      filepath.Join(dataDir, ".tdlib", "files"),
		UseFileDatabase:     true,
		UseChatInfoDatabase: true,
		UseMessageDatabase:  true,
		UseSecretChats:      false,
		ApiId:               apiId,
		ApiHash:             apiHash,
		SystemLanguageCode:  "en",
		DeviceModel:         "Server",
		SystemVersion:       "1.0.0",
		ApplicationVersion:  "1.0.0",
	}

	app := &TeleApp{
		parameters: parameters,
		chatsCache: make(map[int64]*client.Chat),
		usersCache: make(map[int64]*client.User),
	}
	return app
}

func (app *TeleApp) Login(options ...client.Option) (*client.User, error) {
	if app.user != nil {
		return app.user, nil
	}

	authorizer := client.ClientAuthorizer(app.parameters)
	go client.CliInteractor(authorizer)

	tdlibClient, err := client.NewClient(authorizer, options...)
	if err != nil {
		return nil, err
	}

	me, err := tdlibClient.GetMe()
	if err != nil {
		return nil, err
	}

	app.user = me
	app.tdClient = tdlibClient

	// 打印会话列表，方便用户查找会话ID
	chats, err := app.tdClient.GetChats(&client.GetChatsRequest{Limit: 100})
	if err != nil {
		logger.Warnf("[TeleApp] 获取聊天列表失败: %v", err)
	} else {
		for _, chatId := range chats.ChatIds {
			chat, err := app.getChat(chatId)
			if err != nil {
				logger.Warnf("[TeleApp] 获取聊天信息失败, id: %d, %v", chatId, err)
				continue
			}
			logger.Debugf("[TeleApp] 聊天列表: %s[%d]", chat.Title, chat.Id)
		}
	}

	return me, nil
}

func (app *TeleApp) Client() *client.Client {
	return app.tdClient
}

func (app *TeleApp) Close() error {
	if app.tdClient == nil {
		return nil
	}

	_, err := app.tdClient.Close()
	return err
}

// ResolveChat 将命令行传入的会话标识解析为会话ID
// 数字直接作为会话ID，其他情况当作公开用户名/群名查询
func (app *TeleApp) ResolveChat(identifier string) (int64, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return 0, fmt.Errorf("会话标识为空")
	}

	if chatId, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return chatId, nil
	}

	username := strings.TrimPrefix(identifier, "@")
	chat, err := app.tdClient.SearchPublicChat(&client.SearchPublicChatRequest{Username: username})
	if err != nil {
		return 0, fmt.Errorf("解析会话 %q 失败: %w", identifier, err)
	}
	return chat.Id, nil
}

// FetchMessages 按新到旧的顺序拉取会话中最近的文本消息
// 拉取过程中的错误会被吞掉并记录日志，返回已收集到的部分（可能为空），
// 空结果由上层统一当作"未找到消息"处理
func (app *TeleApp) FetchMessages(ctx context.Context, chatID int64, limit int) ([]analyzer.Message, string, error) {
	title := strconv.FormatInt(chatID, 10)
	if chat, err := app.getChat(chatID); err == nil {
		title = chat.Title
	} else {
		logger.Warnf("[TeleApp] 获取聊天信息失败, id: %d, %v", chatID, err)
	}

	logger.Infof("[TeleApp] 开始拉取会话 %s[%d] 的消息, 上限 %d 条", title, chatID, limit)

	messages := make([]analyzer.Message, 0, limit)
	var fromMessageId int64

	for len(messages) < limit {
		select {
		case <-ctx.Done():
			return messages, title, ctx.Err()
		default:
		}

		history, err := app.tdClient.GetChatHistory(&client.GetChatHistoryRequest{
			ChatId:        chatID,
			FromMessageId: fromMessageId,
			Offset:        0,
			Limit:         fetchBatchSize,
		})
		if err != nil {
			logger.Errorf("[TeleApp] 拉取消息历史失败: %v", err)
			break
		}
		if len(history.Messages) == 0 {
			break
		}

		for _, msg := range history.Messages {
			fromMessageId = msg.Id
			converted, ok := app.convertMessage(msg)
			if !ok {
				continue
			}
			messages = append(messages, converted)
			if len(messages) >= limit {
				break
			}
		}
	}

	logger.Infof("[TeleApp] 拉取完成, 共 %d 条文本消息", len(messages))
	return messages, title, nil
}

// convertMessage 将 TDLib 消息转换为分析用的消息记录，跳过非文本消息
func (app *TeleApp) convertMessage(msg *client.Message) (analyzer.Message, bool) {
	if msg.Content == nil || msg.Content.MessageContentType() != "messageText" {
		return analyzer.Message{}, false
	}

	text := msg.Content.(*client.MessageText)
	if text.Text == nil || text.Text.Text == "" {
		return analyzer.Message{}, false
	}

	sentAt := time.Unix(int64(msg.Date), 0).UTC()
	senderName, senderID := app.resolveSender(msg.SenderId)

	record := analyzer.Message{
		ID:         msg.Id,
		Datetime:   sentAt,
		Timestamp:  sentAt.Format("2006-01-02 15:04:05"),
		Text:       text.Text.Text,
		SenderName: senderName,
		SenderID:   senderID,
	}

	// 仅记录同一会话内的回复关系，跨会话回复无法作为上下文补充
	if msg.ReplyTo != nil {
		if replyTo, ok := msg.ReplyTo.(*client.MessageReplyToMessage); ok {
			if replyTo.ChatId == 0 || replyTo.ChatId == msg.ChatId {
				record.IsReply = true
				record.ReplyToMsgID = replyTo.MessageId
			}
		}
	}

	if msg.ForwardInfo != nil {
		record.IsForwarded = true
		record.ForwardedFrom = app.resolveForwardOrigin(msg.ForwardInfo.Origin)
	}

	return record, true
}

// resolveSender 解析发送者的展示名称和ID，失败时回退为 Unknown
func (app *TeleApp) resolveSender(sender client.MessageSender) (string, int64) {
	if sender == nil {
		return analyzer.UnknownSender, 0
	}

	switch s := sender.(type) {
	case *client.MessageSenderUser:
		user, err := app.getUser(s.UserId)
		if err != nil {
			logger.Warnf("[TeleApp] 获取用户信息失败, id: %d, %v", s.UserId, err)
			return analyzer.UnknownSender, s.UserId
		}
		return userDisplayName(user), s.UserId
	case *client.MessageSenderChat:
		chat, err := app.getChat(s.ChatId)
		if err != nil {
			logger.Warnf("[TeleApp] 获取聊天信息失败, id: %d, %v", s.ChatId, err)
			return analyzer.UnknownSender, s.ChatId
		}
		return chat.Title, s.ChatId
	default:
		return analyzer.UnknownSender, 0
	}
}

// resolveForwardOrigin 尽力解析转发来源名称，失败时返回空串由渲染层补占位文本
func (app *TeleApp) resolveForwardOrigin(origin client.MessageOrigin) string {
	if origin == nil {
		return ""
	}

	switch o := origin.(type) {
	case *client.MessageOriginUser:
		user, err := app.getUser(o.SenderUserId)
		if err != nil {
			return ""
		}
		return userDisplayName(user)
	case *client.MessageOriginHiddenUser:
		return o.SenderName
	case *client.MessageOriginChat:
		chat, err := app.getChat(o.SenderChatId)
		if err != nil {
			return ""
		}
		return chat.Title
	case *client.MessageOriginChannel:
		chat, err := app.getChat(o.ChatId)
		if err != nil {
			return ""
		}
		return chat.Title
	default:
		return ""
	}
}

// userDisplayName 用户的展示名称：优先 @username，其次姓名
func userDisplayName(user *client.User) string {
	if user == nil {
		return analyzer.UnknownSender
	}

	if user.Usernames != nil && len(user.Usernames.ActiveUsernames) > 0 {
		return "@" + user.Usernames.ActiveUsernames[0]
	}

	name := user.FirstName
	if user.LastName != "" {
		if name != "" {
			name += " "
		}
		name += user.LastName
	}
	if name == "" {
		return "Unknown User"
	}
	return name
}

func (app *TeleApp) getChat(chatId int64) (*client.Chat, error) {
	// 先尝试读锁读取缓存
	app.chatsMu.RLock()
	chat, ok := app.chatsCache[chatId]
	app.chatsMu.RUnlock()
	if ok {
		return chat, nil
	}

	// 缓存未命中，获取数据
	chat, err := app.tdClient.GetChat(&client.GetChatRequest{ChatId: chatId})
	if err != nil {
		return nil, err
	}

	// 写锁更新缓存
	app.chatsMu.Lock()
	app.chatsCache[chatId] = chat
	app.chatsMu.Unlock()
	return chat, nil
}

func (app *TeleApp) getUser(userId int64) (*client.User, error) {
	// 先尝试读锁读取缓存
	app.usersMu.RLock()
	user, ok := app.usersCache[userId]
	app.usersMu.RUnlock()
	if ok {
		return user, nil
	}

	// 缓存未命中，获取数据
	user, err := app.tdClient.GetUser(&client.GetUserRequest{UserId: userId})
	if err != nil {
		return nil, err
	}

	// 写锁更新缓存
	app.usersMu.Lock()
	app.usersCache[userId] = user
	app.usersMu.Unlock()
	return user, nil
}
