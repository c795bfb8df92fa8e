package svc

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/llm"
	"github.com/fachebot/chat-insight/internal/logger"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	TransportProxy *http.Transport
	Summarizer     llm.Summarizer
}

func NewServiceContext(c *config.Config) *ServiceContext {
	// 创建SOCKS5代理
	var transportProxy *http.Transport
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			logger.Fatalf("创建SOCKS5代理失败, %v", err)
		}

		transportProxy = &http.Transport{
			Dial:            dialer.Dial,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	// 创建总结后端
	summarizer, err := llm.NewSummarizer(&c.LLM, &c.Prompts, transportProxy)
	if err != nil {
		logger.Fatalf("创建总结后端失败, %v", err)
	}

	svcCtx := &ServiceContext{
		Config:         c,
		TransportProxy: transportProxy,
		Summarizer:     summarizer,
	}
	return svcCtx
}
