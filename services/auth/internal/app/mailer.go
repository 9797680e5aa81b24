package app

import (
	"fmt"
	"log/slog"

	"github.com/Skotchmaster/auth_service/services/auth/internal/config"
	"github.com/Skotchmaster/auth_service/services/auth/internal/events"
	"github.com/Skotchmaster/auth_service/services/auth/internal/notify"
)

// NewMailer picks the delivery backend named by cfg.Mail.Driver. Remote
// backends are wrapped in a circuit breaker; producer is only used by the
// kafka driver.
func NewMailer(cfg config.Config, producer *events.Producer, log *slog.Logger) (notify.Mailer, error) {
	switch cfg.Mail.Driver {
	case config.MailDriverMailgun:
		m, err := notify.NewMailgunMailer(cfg.Mail.MailgunDomain, cfg.Mail.MailgunAPIKey, cfg.Mail.From)
		if err != nil {
			return nil, err
		}
		return notify.WithBreaker("mailgun", m), nil
	case config.MailDriverSendgrid:
		m, err := notify.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.From)
		if err != nil {
			return nil, err
		}
		return notify.WithBreaker("sendgrid", m), nil
	case config.MailDriverKafka:
		if producer == nil {
			return nil, fmt.Errorf("mail driver kafka: no producer")
		}
		return notify.WithBreaker("kafka-mail", notify.KafkaMailer{Producer: producer, Topic: cfg.KafkaMailTopic}), nil
	case config.MailDriverLog, "":
		return notify.LogMailer{Log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Mail.Driver)
	}
}
