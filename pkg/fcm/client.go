// Package fcm is a small Firebase Cloud Messaging HTTP v1 client used to push
// background notifications to staff browsers.
// Authentication uses a service-account key through golang.org/x/oauth2.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// MessagingScope is the OAuth2 scope required by the send endpoint.
const MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"

const defaultBaseURL = "https://fcm.googleapis.com"

// DefaultIcon is shown with web push notifications.
const DefaultIcon = "/icon-192.png"

// ErrNotConfigured は FCM が設定されていない場合のエラー
var ErrNotConfigured = errors.New("fcm: not configured")

// Notification is the visible part of a push message.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Client sends messages to FCM topics.
type Client struct {
	projectID  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client that authenticates with httpClient. The client
// is expected to attach OAuth2 bearer tokens (see NewClientFromCredentials).
func NewClient(projectID string, httpClient *http.Client) *Client {
	return &Client{projectID: projectID, baseURL: defaultBaseURL, httpClient: httpClient}
}

// NewClientFromCredentials builds a Client from a service-account JSON key.
// When projectID is empty the key's project is used.
func NewClientFromCredentials(ctx context.Context, projectID string, credentialsJSON []byte) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, MessagingScope)
	if err != nil {
		return nil, fmt.Errorf("fcm credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	if projectID == "" {
		return nil, ErrNotConfigured
	}
	hc := oauth2.NewClient(ctx, creds.TokenSource)
	hc.Timeout = 10 * time.Second
	return NewClient(projectID, hc), nil
}

// WithBaseURL overrides the API host (tests).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type sendRequest struct {
	Message message `json:"message"`
}

type message struct {
	Topic        string            `json:"topic"`
	Notification Notification      `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Webpush      *webpush          `json:"webpush,omitempty"`
}

type webpush struct {
	Notification map[string]string `json:"notification"`
}

// SendToTopic publishes n to every device subscribed to topic and returns the
// message name assigned by FCM.
func (c *Client) SendToTopic(ctx context.Context, topic string, n Notification, data map[string]string) (string, error) {
	if c.projectID == "" || topic == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{Message: message{
		Topic:        topic,
		Notification: n,
		Data:         data,
		Webpush:      &webpush{Notification: map[string]string{"icon": DefaultIcon}},
	}})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1/projects/%s/messages:send", c.baseURL, c.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Name  string `json:"name"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("fcm send: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("fcm send: %s: %s", result.Error.Status, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fcm send: unexpected HTTP %d", resp.StatusCode)
	}
	return result.Name, nil
}
