package notify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/slack-go/slack"
)

// SlackDeliverer resolves a player's email to a Slack user and sends the
// text as a direct message.
type SlackDeliverer struct {
	client *slack.Client
}

func NewSlackDeliverer(token string, opts ...slack.Option) *SlackDeliverer {
	return &SlackDeliverer{client: slack.New(token, opts...)}
}

func (d *SlackDeliverer) Deliver(ctx context.Context, to Player, text string) error {
	user, err := d.client.GetUserByEmailContext(ctx, to.Email)
	if err != nil {
		return fmt.Errorf("lookup slack user %s: %w", to.Email, err)
	}

	if _, _, err := d.client.PostMessageContext(ctx, user.ID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("post slack message to %s: %w", user.ID, err)
	}
	return nil
}

var tokenParam = regexp.MustCompile(`token=[^&\s]+`)

// LogDeliverer only logs. Turn tokens are redacted from the text.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d *LogDeliverer) Deliver(ctx context.Context, to Player, text string) error {
	d.Logger.InfoContext(ctx, "deliver", "to", to.Email, "text", redactToken(text))
	return nil
}

func redactToken(text string) string {
	return tokenParam.ReplaceAllString(text, "token=REDACTED")
}
