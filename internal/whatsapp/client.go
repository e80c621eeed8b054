// Package whatsapp talks to the Twilio-style WhatsApp gateway: outbound text
// and media messages, and authenticated media downloads for inbound photos.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shelfscan_backend/platform/config"
	"shelfscan_backend/platform/logger"
	"shelfscan_backend/platform/phone"
)

// maxMediaDownload caps inbound media size at 16 MiB, the gateway's own limit.
const maxMediaDownload = 16 << 20

type Client struct {
	baseURL    string
	username   string
	password   string
	fromNumber string
	http       *http.Client
	log        *logger.Logger
}

// NewClient creates the gateway client, or nil when no gateway is configured.
// A nil client swallows sends so the pipeline can run without WhatsApp in
// development.
func NewClient(cfg config.WhatsAppConfig, log *logger.Logger) *Client {
	if !cfg.IsWhatsAppEnabled() {
		return nil
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetWhatsAppBaseURL(), "/"),
		username:   cfg.GetWhatsAppUsername(),
		password:   cfg.GetWhatsAppPassword(),
		fromNumber: cfg.GetWhatsAppNumber(),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// SendText sends a plain text message to the given number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, to, body, "")
}

// SendMedia sends a media message (voice note or image) with an optional
// caption.
func (c *Client) SendMedia(ctx context.Context, to, caption, mediaURL string) error {
	return c.send(ctx, to, caption, mediaURL)
}

func (c *Client) send(ctx context.Context, to, body, mediaURL string) error {
	if c == nil {
		return nil
	}

	form := url.Values{}
	form.Set("From", "whatsapp:"+phone.NormalizeE164(c.fromNumber))
	form.Set("To", "whatsapp:"+phone.NormalizeE164(to))
	if body != "" {
		form.Set("Body", body)
	}
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.username)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("whatsapp message sent", "to", phone.NormalizeE164(to), "media", mediaURL != "")
	return nil
}

// DownloadMedia fetches inbound media (a shelf photo) from the gateway's
// authenticated media URL. Returns the bytes and the content type.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	if c == nil {
		return nil, "", fmt.Errorf("whatsapp gateway is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", err
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("media download failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaDownload))
	if err != nil {
		return nil, "", fmt.Errorf("read media body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("media download returned an empty body")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}
