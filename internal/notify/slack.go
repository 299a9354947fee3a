package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier sends notifications to a Slack incoming webhook
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SlackColor returns the attachment color for a level
func SlackColor(l Level) string {
	switch l {
	case LevelImproved:
		return "good"
	case LevelSlipped:
		return "warning"
	case LevelFailed:
		return "danger"
	default:
		return "#439FE0"
	}
}

// BuildSlackMessage converts a notification into a webhook payload
func BuildSlackMessage(n Notification) *slack.WebhookMessage {
	att := slack.Attachment{
		Color:  SlackColor(n.Level),
		Title:  n.Project,
		Text:   n.Message,
		Footer: "critpath",
	}
	if len(n.Details) > 0 {
		att.Fields = append(att.Fields, slack.AttachmentField{
			Title: "Critical path",
			Value: strings.Join(n.Details, " → "),
		})
	}
	return &slack.WebhookMessage{
		Text:        n.Title,
		Attachments: []slack.Attachment{att},
	}
}

// Send sends a notification to Slack
func (s *SlackNotifier) Send(n Notification) error {
	if s.webhookURL == "" {
		return nil // Disabled
	}
	return s.SendContext(context.Background(), n)
}

// SendContext is Send with a caller-supplied context
func (s *SlackNotifier) SendContext(ctx context.Context, n Notification) error {
	if s.webhookURL == "" {
		return nil
	}
	return slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, BuildSlackMessage(n))
}
