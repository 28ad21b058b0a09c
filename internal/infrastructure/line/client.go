// Package line pushes operator alerts through the LINE Messaging API.
package line

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"subtrack/internal/pkg/logger"

	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// maxTextLength is the LINE limit for a single text message.
const maxTextLength = 5000

// Client wraps the linebot.Client and sends alerts to a single admin user.
type Client struct {
	*linebot.Client
	adminID string
	log     logger.Logger
}

// NewClient creates a LINE client that pushes to adminID.
func NewClient(channelSecret, channelToken, adminID string, log logger.Logger, options ...linebot.ClientOption) (*Client, error) {
	if channelSecret == "" || channelToken == "" {
		return nil, errors.New("LINE channel secret and access token must be set")
	}
	if adminID == "" {
		return nil, errors.New("LINE admin user id must be set")
	}

	bot, err := linebot.New(channelSecret, channelToken, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE Bot client: %w", err)
	}
	log.Info("Successfully created LINE Bot client.")
	return &Client{
		Client:  bot,
		adminID: adminID,
		log:     log,
	}, nil
}

// Alert pushes message to the admin user.
func (c *Client) Alert(ctx context.Context, message string) error {
	if utf8.RuneCountInString(message) > maxTextLength {
		message = string([]rune(message)[:maxTextLength-1]) + "…"
	}
	return c.PushMessages(ctx, c.adminID, linebot.NewTextMessage(message))
}

// PushMessages sends one or more messages using the PushMessage API.
func (c *Client) PushMessages(ctx context.Context, to string, messages ...linebot.SendingMessage) error {
	if _, err := c.PushMessage(to, messages...).WithContext(ctx).Do(); err != nil {
		return fmt.Errorf("failed to push LINE message: %w", err)
	}
	c.log.Debug("Successfully sent push message.")
	return nil
}
