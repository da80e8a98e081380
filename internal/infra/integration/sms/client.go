package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.twilio.com/2010-04-01"

// Client talks to a Twilio-compatible Messages API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	http       *http.Client
}

func NewClient(baseURL, accountSID, authToken, from string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		http:       &http.Client{Timeout: timeout},
	}
}

// SendSMS sends a plain text message and returns the provider message SID.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	return c.send(ctx, to, body, "")
}

// SendMMS sends a message with an optional media attachment.
func (c *Client) SendMMS(ctx context.Context, to, body, mediaURL string) (string, error) {
	return c.send(ctx, to, body, mediaURL)
}

func (c *Client) send(ctx context.Context, to, body, mediaURL string) (string, error) {
	if c.accountSID == "" || c.authToken == "" || c.from == "" {
		return "", errors.New("sms provider not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", body)
	if mediaURL != "" {
		form.Set("MediaUrl", mediaURL)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr errorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("sms provider rejected message (status %d, code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return "", fmt.Errorf("sms provider rejected message (status %d)", resp.StatusCode)
	}

	var msg messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}
	if msg.ErrorCode != nil {
		return "", fmt.Errorf("sms provider error %d: %s", *msg.ErrorCode, msg.ErrorMessage)
	}
	if msg.SID == "" {
		return "", errors.New("sms provider returned no message id")
	}
	return msg.SID, nil
}
