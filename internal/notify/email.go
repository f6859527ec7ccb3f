package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the mail server credentials used for summaries.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// EmailNotifier mails the daily summary to a fixed list of recipients.
type EmailNotifier struct {
	dialer  *gomail.Dialer
	from    string
	to      []string
	subject string
}

func NewEmailNotifier(cfg SMTPConfig, to []string) *EmailNotifier {
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &EmailNotifier{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:    from,
		to:      to,
		subject: "Habit planner: daily report",
	}
}

// Notify sends text as an HTML message. Telegram HTML is a subset of HTML, so
// the summary only needs its line breaks converted.
func (n *EmailNotifier) Notify(ctx context.Context, text string) error {
	if len(n.to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m := n.message(text)
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send report email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) message(text string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to...)
	m.SetHeader("Subject", n.subject)
	m.SetBody("text/html", renderBody(text))
	return m
}

func renderBody(text string) string {
	body := strings.ReplaceAll(text, "\n", "<br>\n")
	return fmt.Sprintf(`<div style="font-family: sans-serif">%s</div>`, body)
}
