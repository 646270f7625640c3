package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChatClient talks to the chat service's internal API. A thread is opened
// per swap once both sides are known; system messages narrate lifecycle
// changes into the thread.
type ChatClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewChatClient(baseURL string, log *zap.Logger) *ChatClient {
	return &ChatClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type ThreadResult struct {
	ThreadID string `json:"thread_id"`
}

func (c *ChatClient) OpenThread(ctx context.Context, swapID, userA, userB uuid.UUID) (*ThreadResult, error) {
	body, err := json.Marshal(map[string]any{
		"swap_id":      swapID.String(),
		"participants": []string{userA.String(), userB.String()},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/internal/threads", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat service returned %d: %s", resp.StatusCode, string(b))
	}

	var result ThreadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ChatClient) PostSystemMessage(ctx context.Context, swapID uuid.UUID, text string) error {
	body, _ := json.Marshal(map[string]any{
		"swap_id": swapID.String(),
		"text":    text,
	})

	url := fmt.Sprintf("%s/internal/threads/%s/system", c.baseURL, swapID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("failed to post system chat message", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("chat system message failed", zap.Int("status", resp.StatusCode))
	}
	return nil
}
