package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Transport delivers outbound messages to buyers and the admin. It is a
// collaborator boundary: the reconciler and dispatcher never talk to the bot
// API directly, which also keeps them testable.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text, parseMode string) error
	SendDocument(ctx context.Context, chatID int64, document string) error
}

// TelegramTransport sends messages through the Telegram Bot API
type TelegramTransport struct {
	baseURL    string
	httpClient *http.Client
}

// NewTelegramTransport creates a transport for the given bot token
func NewTelegramTransport(botToken string) *TelegramTransport {
	return &TelegramTransport{
		baseURL: "https://api.telegram.org/bot" + botToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendMessage sends a text message. parseMode may be "HTML", "Markdown" or
// empty for plain text.
func (t *TelegramTransport) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

// SendDocument sends a document. The document argument is either a local file
// path (uploaded as multipart) or a Telegram file_id.
func (t *TelegramTransport) SendDocument(ctx context.Context, chatID int64, document string) error {
	if info, err := os.Stat(document); err == nil && !info.IsDir() {
		return t.uploadDocument(ctx, chatID, document)
	}

	payload := map[string]interface{}{
		"chat_id":  chatID,
		"document": document,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal document message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendDocument", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

func (t *TelegramTransport) uploadDocument(ctx context.Context, chatID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := writer.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendDocument", &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return t.do(req)
}

func (t *TelegramTransport) do(req *http.Request) error {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}
