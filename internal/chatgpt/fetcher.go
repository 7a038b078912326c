// Package chatgpt fetches a conversation document from the ChatGPT web
// backend: conversation id from the page URL, access token from the session
// resource, then the conversation itself. One attempt per run, no retries.
package chatgpt

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/sirupsen/logrus"
)

var conversationPathPattern = regexp.MustCompile(`/c/([^/?#]+)`)

// ResolveConversationID takes a full page URL or a bare path and returns the
// segment after /c/.
func ResolveConversationID(pageURL string) (string, error) {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		path = u.Path
	}
	m := conversationPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", &FetchError{Code: CodeMissingConversationID}
	}
	return m[1], nil
}

type Fetcher struct {
	client *Client
	logger *logrus.Logger
}

func NewFetcher(client *Client, logger *logrus.Logger) *Fetcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// Fetch runs id, session and conversation in strict sequence. The first
// failure ends the run and is returned as a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, pageURL, cookie string) (*conversation.Document, error) {
	id, err := ResolveConversationID(pageURL)
	if err != nil {
		f.logger.WithField("page_url", pageURL).Error("No conversation ID in page URL")
		return nil, err
	}

	log := f.logger.WithField("conversation_id", id)

	token, err := f.client.FetchSession(ctx, cookie)
	if err != nil {
		log.WithError(err).Error("Session fetch failed")
		return nil, err
	}

	raw, err := f.client.FetchConversation(ctx, id, token)
	if err != nil {
		log.WithError(err).Error("Conversation fetch failed")
		return nil, err
	}

	doc, err := conversation.Parse(raw)
	if err != nil {
		log.WithField("size", len(raw)).Error("Conversation response is not JSON")
		return nil, &FetchError{Code: CodeConversationFetchFailed, Status: 200, Err: fmt.Errorf("decode conversation: %w", err)}
	}

	log.WithFields(logrus.Fields{
		"size":  doc.Size(),
		"title": doc.Title(),
	}).Info("Fetched conversation")

	return doc, nil
}
