package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/auth_service/pkg/logging"
	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

const (
	TemplateVerifyAccount   = "verify-account"
	TemplateForgotPassword  = "forgot-password"
	TemplatePasswordChanged = "password-changed"

	sendTimeout = 30 * time.Second
)

// Notifier turns account events into mail. Sends are fire-and-forget: a
// failed delivery is logged and never reported to the caller.
type Notifier struct {
	mailer Mailer
	appURL string
	sync   bool
	wg     sync.WaitGroup
}

func NewNotifier(m Mailer, appURL string) *Notifier {
	return &Notifier{mailer: m, appURL: strings.TrimRight(appURL, "/")}
}

// NewSyncNotifier sends on the calling goroutine. Tests use it to observe
// messages without waiting.
func NewSyncNotifier(m Mailer, appURL string) *Notifier {
	n := NewNotifier(m, appURL)
	n.sync = true
	return n
}

func (n *Notifier) AccountCreated(ctx context.Context, u *models.User, token string) {
	n.dispatch(ctx, Message{
		To:       u.Email,
		Subject:  "Verify your account",
		Text:     "Confirm your email address: " + n.link("/verify-account", token),
		Template: TemplateVerifyAccount,
		Vars:     map[string]string{"username": u.Username, "url": n.link("/verify-account", token)},
	})
}

func (n *Notifier) PasswordResetRequested(ctx context.Context, u *models.User, token string) {
	n.dispatch(ctx, Message{
		To:       u.Email,
		Subject:  "Reset your password",
		Text:     "Choose a new password: " + n.link("/change-password", token),
		Template: TemplateForgotPassword,
		Vars:     map[string]string{"username": u.Username, "url": n.link("/change-password", token)},
	})
}

func (n *Notifier) PasswordChanged(ctx context.Context, u *models.User) {
	n.dispatch(ctx, Message{
		To:       u.Email,
		Subject:  "Your password was changed",
		Text:     "The password of your account was just changed.",
		Template: TemplatePasswordChanged,
		Vars:     map[string]string{"username": u.Username},
	})
}

// Wait blocks until in-flight sends finish.
func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) link(path, token string) string {
	if n == nil {
		return ""
	}
	return n.appURL + path + "?token=" + token
}

func (n *Notifier) dispatch(ctx context.Context, msg Message) {
	if n == nil || n.mailer == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "notify", "template", msg.Template)

	send := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if err := n.mailer.Send(ctx, msg); err != nil {
			l.Warn("mail_send_failed", "error", err)
			return
		}
		l.Debug("mail_sent")
	}

	if n.sync {
		send(ctx)
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		send(context.WithoutCancel(ctx))
	}()
}
