package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram 通知器：开仓、保本触发、平仓时推送关键字段到指定群/频道。
// 消息按纯文本发送，交易对名里的连字符不会被 Markdown 解析吃掉。
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
	retries  int
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 15 * time.Second},
		retries:  3,
	}
}

func (t *Telegram) SendText(text string) error {
	if t.botToken == "" || t.chatID == "" {
		return fmt.Errorf("telegram 配置不完整")
	}
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPI, t.botToken)
	var lastErr error
	for attempt := 1; attempt <= t.retries; attempt++ {
		resp, err := t.client.PostForm(endpoint, form)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			if resp.StatusCode/100 == 2 {
				return nil
			}
			lastErr = fmt.Errorf("telegram status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
			// 4xx 是请求本身的问题，重试没有意义
			if resp.StatusCode/100 == 4 {
				return lastErr
			}
		}
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return lastErr
}
