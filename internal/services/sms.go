package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender delivers a templated text message to one mobile number.
type SMSSender interface {
	SendTemplate(ctx context.Context, mobile, templateID string, params []string) (messageID string, err error)
}

// TemplateSMSClient talks to an HTTP template-SMS gateway. In dry-run mode
// (or without an API key) it only logs the message.
type TemplateSMSClient struct {
	apiURL     string
	apiKey     string
	dryRun     bool
	httpClient *http.Client
	logger     *slog.Logger
}

type templateSMSResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewTemplateSMSClient(apiURL, apiKey string, dryRun bool, logger *slog.Logger) *TemplateSMSClient {
	return &TemplateSMSClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		dryRun:     dryRun,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *TemplateSMSClient) DryRun() bool {
	return c.dryRun || c.apiKey == "" || c.apiURL == ""
}

func (c *TemplateSMSClient) SendTemplate(ctx context.Context, mobile, templateID string, params []string) (string, error) {
	if c.DryRun() {
		c.logger.Debug("sms dry-run", "mobile", mobile, "template_id", templateID, "params", params)
		return "", nil
	}

	form := url.Values{
		"apiKey":     {c.apiKey},
		"recipient":  {mobile},
		"templateId": {templateID},
		"params":     {strings.Join(params, ",")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send sms request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var result templateSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parse sms response: %w", err)
	}
	if result.Code != 0 {
		return "", fmt.Errorf("sms gateway returned error code %d: %s", result.Code, result.Message)
	}
	return result.Data.MessageID, nil
}
