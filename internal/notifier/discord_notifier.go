package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/rs/zerolog"
)

// DiscordOptions controls how messages appear in the channel.
type DiscordOptions struct {
	Username       string
	SuppressEmbeds bool
}

// DiscordNotifier posts messages to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	opts       DiscordOptions
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewDiscordNotifier creates a DiscordNotifier. A nil client gets a 20s timeout.
func NewDiscordNotifier(webhookURL string, opts DiscordOptions, httpClient *http.Client, logger zerolog.Logger) (*DiscordNotifier, error) {
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return nil, fmt.Errorf("invalid discord webhook url: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	return &DiscordNotifier{
		webhookURL: webhookURL,
		opts:       opts,
		httpClient: httpClient,
		logger:     logger.With().Str("module", "DiscordNotifier").Logger(),
	}, nil
}

// Notify sends message as the content of one webhook execution.
func (dn *DiscordNotifier) Notify(ctx context.Context, message string) error {
	payload := dn.buildPayload(message)

	body, contentType, err := encodeMultipartPayload(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dn.webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := dn.httpClient.Do(req)
	if err != nil {
		dn.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		dn.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Msg("Discord notification failed")
		return fmt.Errorf("discord notification failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Int("length", len(message)).Msg("Discord notification sent")
	return nil
}

func (dn *DiscordNotifier) buildPayload(message string) models.DiscordMessagePayload {
	payload := models.DiscordMessagePayload{
		Content:  message,
		Username: dn.opts.Username,
		// Role mentions are written into the content explicitly; only those may ping.
		AllowedMentions: &models.AllowedMentions{Parse: []string{"roles"}},
	}
	if dn.opts.SuppressEmbeds {
		payload.Flags = models.DiscordFlagSuppressEmbeds
	}
	return payload
}

// encodeMultipartPayload wraps the payload in the payload_json form field.
func encodeMultipartPayload(payload models.DiscordMessagePayload) (io.Reader, string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, "", fmt.Errorf("failed to write payload_json to multipart: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}
