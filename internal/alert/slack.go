package alert

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
)

// slackPoster abstracts the slack client method we use, enabling test mocks.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts alerts as message attachments.
type Slack struct {
	client  slackPoster
	channel string
}

// NewSlack creates a Slack notifier using a bot token.
func NewSlack(botToken, channel string) (*Slack, error) {
	if botToken == "" || channel == "" {
		return nil, fmt.Errorf("alert: slack bot token and channel are required")
	}
	return &Slack{client: slackapi.New(botToken), channel: channel}, nil
}

// Notify implements Notifier.
func (s *Slack) Notify(ctx context.Context, a Alert) error {
	att := slackapi.Attachment{
		Color: a.Color(),
		Title: a.Title(),
		Fields: []slackapi.AttachmentField{
			{Title: "Asset", Value: a.AssetID, Short: true},
			{Title: "Score", Value: fmt.Sprintf("%.2f", a.Score), Short: true},
			{Title: "Threshold", Value: fmt.Sprintf("%.2f", a.Threshold), Short: true},
		},
	}
	if !a.At.IsZero() {
		att.Footer = "calculated " + a.At.UTC().Format("2006-01-02 15:04:05")
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slackapi.MsgOptionText(a.Title(), false),
		slackapi.MsgOptionAttachments(att),
	)
	if err != nil {
		return fmt.Errorf("alert: slack post to %s: %w", s.channel, err)
	}
	return nil
}
