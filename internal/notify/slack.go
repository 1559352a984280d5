package notify

import (
	"context"
	"fmt"
	"leadchat-backend/internal/models"

	"github.com/slack-go/slack"
)

// SlackPoster posts a message to a channel. *slack.Client satisfies it.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts lead notifications to a Slack channel using a bot token.
type SlackNotifier struct {
	client       SlackPoster
	channelID    string
	dashboardURL string
}

func NewSlackNotifier(botToken, channelID, dashboardURL string) *SlackNotifier {
	return NewSlackNotifierWithClient(slack.New(botToken), channelID, dashboardURL)
}

func NewSlackNotifierWithClient(client SlackPoster, channelID, dashboardURL string) *SlackNotifier {
	return &SlackNotifier{client: client, channelID: channelID, dashboardURL: dashboardURL}
}

func (n *SlackNotifier) Notify(ctx context.Context, lead *models.Lead) error {
	summary, err := FormatLeadSummary(lead, n.dashboardURL)
	if err != nil {
		return fmt.Errorf("%w: slack: %v", ErrNotification, err)
	}

	text := fmt.Sprintf("*%s*\n%s", summary.Subject, summary.Text)
	_, _, err = n.client.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("%w: failed to post message to Slack channel %s: %v", ErrNotification, n.channelID, err)
	}
	return nil
}
