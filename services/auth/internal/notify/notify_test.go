package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/auth_service/services/auth/internal/models"
)

type memMailer struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (m *memMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return m.err
}

func TestNotifier_Messages(t *testing.T) {
	m := &memMailer{}
	n := NewSyncNotifier(m, "https://app.example.com/")
	u := &models.User{Email: "a@x.com", Username: "a"}
	ctx := context.Background()

	n.AccountCreated(ctx, u, "tok-1")
	n.PasswordResetRequested(ctx, u, "tok-2")
	n.PasswordChanged(ctx, u)

	require.Len(t, m.msgs, 3)
	assert.Equal(t, TemplateVerifyAccount, m.msgs[0].Template)
	assert.Equal(t, "https://app.example.com/verify-account?token=tok-1", m.msgs[0].Vars["url"])
	assert.Equal(t, TemplateForgotPassword, m.msgs[1].Template)
	assert.Contains(t, m.msgs[1].Text, "tok-2")
	assert.Equal(t, TemplatePasswordChanged, m.msgs[2].Template)
	for _, msg := range m.msgs {
		assert.Equal(t, "a@x.com", msg.To)
	}
}

func TestNotifier_AsyncSwallowsErrors(t *testing.T) {
	m := &memMailer{err: errors.New("smtp down")}
	n := NewNotifier(m, "https://app.example.com")

	n.PasswordChanged(context.Background(), &models.User{Email: "a@x.com"})
	n.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Len(t, m.msgs, 1)
}

func TestNotifier_NilSafe(t *testing.T) {
	var n *Notifier
	n.PasswordChanged(context.Background(), &models.User{})
	NewNotifier(nil, "").PasswordChanged(context.Background(), &models.User{})
}

type failingMailer struct{ calls int }

func (f *failingMailer) Send(context.Context, Message) error {
	f.calls++
	return errors.New("provider down")
}

func TestWithBreaker_OpensAfterFailures(t *testing.T) {
	f := &failingMailer{}
	m := WithBreaker("test", f)

	for i := 0; i < 5; i++ {
		assert.Error(t, m.Send(context.Background(), Message{To: "a@x.com"}))
	}
	assert.Equal(t, 3, f.calls)
}

type recordingPublisher struct {
	topic, key string
	event      any
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.topic, p.key, p.event = topic, key, event
	return nil
}

func TestKafkaMailer(t *testing.T) {
	p := &recordingPublisher{}
	m := KafkaMailer{Producer: p, Topic: "mail_events"}

	require.NoError(t, m.Send(context.Background(), Message{To: "a@x.com", Template: TemplatePasswordChanged}))
	assert.Equal(t, "mail_events", p.topic)
	assert.Equal(t, "a@x.com", p.key)
	assert.Equal(t, TemplatePasswordChanged, p.event.(Message).Template)
}

func TestProviderConfigValidation(t *testing.T) {
	_, err := NewMailgunMailer("", "key", "from@x.com")
	assert.Error(t, err)
	_, err = NewSendgridMailer("", "from@x.com")
	assert.Error(t, err)

	_, err = NewMailgunMailer("mg.example.com", "key", "from@x.com")
	assert.NoError(t, err)
	_, err = NewSendgridMailer("key", "from@x.com")
	assert.NoError(t, err)
}
