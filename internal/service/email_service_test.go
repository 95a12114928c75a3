package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	msgs []Message
	err  error
}

func (r *recordingTransport) Send(_ context.Context, msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTestEmailService(t *testing.T) (*EmailService, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{}
	svc, err := NewEmailService(transport, "https://insightpaper.example/")
	require.NoError(t, err)
	return svc, transport
}

func TestEmailTemplatesLoaded(t *testing.T) {
	svc, _ := newTestEmailService(t)
	for _, name := range []string{"otp", "password", "reset", "new_document", "recommendation"} {
		assert.Contains(t, svc.templates, name)
	}
}

func TestSendOTPRendersCode(t *testing.T) {
	svc, transport := newTestEmailService(t)

	require.NoError(t, svc.SendOTP(context.Background(), "ana@example.com", "482913"))
	require.Len(t, transport.msgs, 1)
	msg := transport.msgs[0]
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Contains(t, msg.HTMLBody, "482913")
	assert.Contains(t, msg.TextBody, "482913")
	assert.NotContains(t, msg.HTMLBody, "{{otp}}")
	assert.NotContains(t, msg.TextBody, "<")
}

func TestRenderEscapesValues(t *testing.T) {
	svc, transport := newTestEmailService(t)

	err := svc.SendRecommendation(context.Background(), "s@example.com", "Databases", "<b>Read</b> chapter 3", "Tom & Jerry")
	require.NoError(t, err)
	msg := transport.msgs[0]
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Read&lt;/b&gt; chapter 3")
	assert.Contains(t, msg.HTMLBody, "Tom &amp; Jerry")
	assert.Contains(t, msg.TextBody, "Tom & Jerry")
	assert.Contains(t, msg.Subject, "Databases")
}

func TestRenderUnknownTemplate(t *testing.T) {
	svc, _ := newTestEmailService(t)
	_, _, err := svc.render("nope", nil)
	assert.Error(t, err)
}

func TestSendWrapsTransportError(t *testing.T) {
	svc, transport := newTestEmailService(t)
	transport.err = errors.New("relay down")

	err := svc.SendPasswordReset(context.Background(), "x@example.com", "https://insightpaper.example/reset-password?token=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
	assert.Contains(t, err.Error(), "x@example.com")
}

func TestLogTransport(t *testing.T) {
	assert.NoError(t, LogTransport{}.Send(context.Background(), Message{To: "a@b.com", Subject: "hi"}))
}
