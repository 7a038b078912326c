package chatgpt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	sessionPath      = "/api/auth/session"
	conversationPath = "/backend-api/conversation/"
)

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient builds a client for the ChatGPT web backend. A zero timeout leaves
// the transport default in place.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchSession reads the session resource with the caller's cookies and
// returns its access token.
func (c *Client) FetchSession(ctx context.Context, cookie string) (string, error) {
	headers := map[string]string{}
	if cookie != "" {
		headers["Cookie"] = cookie
	}

	status, body, err := c.makeRequest(ctx, http.MethodGet, sessionPath, headers)
	if err != nil {
		return "", &FetchError{Code: CodeSessionFetchFailed, Err: err}
	}
	if status < 200 || status >= 300 {
		return "", &FetchError{Code: CodeSessionFetchFailed, Status: status}
	}

	token := gjson.GetBytes(body, "accessToken")
	if token.Type != gjson.String || strings.TrimSpace(token.String()) == "" {
		return "", &FetchError{Code: CodeMissingAccessToken}
	}
	return token.String(), nil
}

// FetchConversation reads the conversation resource with a bearer token and
// returns the raw document.
func (c *Client) FetchConversation(ctx context.Context, conversationID, accessToken string) ([]byte, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}

	status, body, err := c.makeRequest(ctx, http.MethodGet, conversationPath+url.PathEscape(conversationID), headers)
	if err != nil {
		return nil, &FetchError{Code: CodeConversationFetchFailed, Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &FetchError{Code: CodeConversationFetchFailed, Status: status}
	}
	return body, nil
}

// Ping checks that the upstream answers at all. Any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	_, _, err := c.makeRequest(ctx, http.MethodHead, "/", nil)
	return err
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, headers map[string]string) (int, []byte, error) {
	reqURL := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.WithFields(logrus.Fields{
		"method":      method,
		"url":         reqURL,
		"has_cookie":  headers["Cookie"] != "",
		"bearer_auth": headers["Authorization"] != "",
	}).Debug("Making ChatGPT request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"method":        method,
		"url":           reqURL,
		"response_size": len(responseBody),
	}).Debug("ChatGPT response received")

	// Session bodies carry credentials, so only error bodies are logged.
	if resp.StatusCode >= 400 && len(responseBody) < 500 {
		c.logger.WithFields(logrus.Fields{
			"status_code":   resp.StatusCode,
			"url":           reqURL,
			"response_body": string(responseBody),
		}).Debug("Error response body")
	}

	return resp.StatusCode, responseBody, nil
}
