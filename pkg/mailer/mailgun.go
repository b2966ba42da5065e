package mailer

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// Sender delivers rendered account emails (verification links, password
// resets) through Mailgun. One API client is built at construction and reused
// for every send.
type Sender struct {
	client *mg.MailgunImpl
	from   string
}

func NewMailgun(domain, apiKey, from string) *Sender {
	return &Sender{client: mg.NewMailgun(domain, apiKey), from: from}
}

// Send delivers one message. The plain-text body is always set; the HTML part
// is attached when non-empty so clients without HTML still render the link.
func (s *Sender) Send(ctx context.Context, to, subject, text, html string) error {
	msg := s.client.NewMessage(s.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if _, _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
