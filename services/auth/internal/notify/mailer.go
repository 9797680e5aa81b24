package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sony/gobreaker"
)

type Message struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Text     string            `json:"text"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars,omitempty"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	l := m.Log
	if l == nil {
		l = slog.Default()
	}
	l.Info("mail_logged", "to", msg.To, "subject", msg.Subject, "template", msg.Template)
	return nil
}

type MailgunMailer struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgunMailer(domain, apiKey, from string) (*MailgunMailer, error) {
	if domain == "" || apiKey == "" || from == "" {
		return nil, errors.New("invalid Mailgun configuration")
	}
	return &MailgunMailer{mg: mailgun.NewMailgun(domain, apiKey), from: from}, nil
}

func (m *MailgunMailer) Send(ctx context.Context, msg Message) error {
	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text, msg.To)
	if msg.Template != "" {
		message.SetTemplate(msg.Template)
		for k, v := range msg.Vars {
			if err := message.AddVariable(k, v); err != nil {
				return fmt.Errorf("mailgun: add variable %s: %w", k, err)
			}
		}
	}
	if _, _, err := m.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}

type SendgridMailer struct {
	client *sendgrid.Client
	from   string
}

func NewSendgridMailer(apiKey, from string) (*SendgridMailer, error) {
	if apiKey == "" || from == "" {
		return nil, errors.New("invalid SendGrid configuration")
	}
	return &SendgridMailer{client: sendgrid.NewSendClient(apiKey), from: from}, nil
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("", m.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		"",
	)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d", resp.StatusCode)
	}
	return nil
}

type eventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// KafkaMailer hands messages to a mail worker through a topic.
type KafkaMailer struct {
	Producer eventPublisher
	Topic    string
}

func (m KafkaMailer) Send(ctx context.Context, msg Message) error {
	return m.Producer.PublishEvent(ctx, m.Topic, msg.To, msg)
}

type breakerMailer struct {
	next Mailer
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker stops calling next for a while once most recent sends fail.
func WithBreaker(name string, next Mailer) Mailer {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("mail_breaker_state", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &breakerMailer{next: next, cb: cb}
}

func (m *breakerMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.next.Send(ctx, msg)
	})
	return err
}
