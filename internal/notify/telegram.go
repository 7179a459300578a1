// Package notify delivers outbound messages through the Telegram Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// TelegramSender sends and deletes messages via the Bot API. It is safe
// for concurrent use.
type TelegramSender struct {
	token    string
	apiURL   string
	client   *http.Client
	shutdown chan struct{}
}

func NewTelegramSender(token, apiURL string) *TelegramSender {
	return &TelegramSender{
		token:    token,
		apiURL:   apiURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		shutdown: make(chan struct{}),
	}
}

// Close cancels pending transient-message cleanup timers. Messages whose
// timers are cancelled simply stay; cleanup is best-effort.
func (t *TelegramSender) Close() {
	close(t.shutdown)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *TelegramSender) call(ctx context.Context, method string, payload any) (*apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.apiURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("telegram %s: bad response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram %s: %s", method, parsed.Description)
	}
	return &parsed, nil
}

// Send delivers text to a chat and returns the created message id.
func (t *TelegramSender) Send(ctx context.Context, chatID int64, text string) (int, error) {
	resp, err := t.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return 0, err
	}
	return resp.Result.MessageID, nil
}

// Delete removes a previously sent message.
func (t *TelegramSender) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := t.call(ctx, "deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// SendTemporary delivers text and schedules its deletion after ttl.
// Deletion failure (already removed, chat gone) is swallowed: the secret
// has been transmitted either way.
func (t *TelegramSender) SendTemporary(ctx context.Context, chatID int64, text string, ttl time.Duration) error {
	messageID, err := t.Send(ctx, chatID, text)
	if err != nil {
		return err
	}

	go func() {
		timer := time.NewTimer(ttl)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := t.Delete(context.Background(), chatID, messageID); err != nil {
				slog.Debug("Temporary message cleanup failed", "chat_id", chatID, "error", err)
			}
		case <-t.shutdown:
		}
	}()
	return nil
}
