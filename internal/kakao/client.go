package kakao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"prebook/internal/config"
)

// Client отправляет сообщения клиентам через Kakao talk memo API.
type Client struct {
	httpClient  *http.Client
	apiBase     string
	accessToken string
	logger      zerolog.Logger
}

type sendMessageRequest struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

func NewClient(cfg config.KakaoConfig, logger *zerolog.Logger) *Client {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "kakao").Logger()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		apiBase:     cfg.APIBase,
		accessToken: cfg.AccessToken,
		logger:      log,
	}
}

// SendMessage delivers a text to the customer's KakaoTalk.
func (c *Client) SendMessage(ctx context.Context, phone, text string) error {
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}

	body, err := json.Marshal(sendMessageRequest{
		PhoneNumber: phone,
		Message:     text,
	})
	if err != nil {
		return fmt.Errorf("encode kakao message: %w", err)
	}

	url := c.apiBase + "/v1/api/talk/message/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build kakao request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send kakao message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Str("body", string(snippet)).Msg("kakao API rejected message")
		return fmt.Errorf("kakao API returned status %d", resp.StatusCode)
	}

	c.logger.Debug().Str("phone", phone).Msg("kakao message sent")
	return nil
}
