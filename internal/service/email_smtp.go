package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	smtpTimeout     = 15 * time.Second
	implicitTLSPort = 465
)

// SMTPTransport keeps one SMTP connection open and reuses it for every
// send. A connection the server has dropped is redialled once; any other
// failure closes it and the next send dials again.
type SMTPTransport struct {
	client    *gomail.Client
	from      string
	fromName  string
	mu        sync.Mutex
	connected bool
}

// NewSMTPTransport creates a transport; the connection is opened lazily.
// Port 465 uses implicit TLS, any other port STARTTLS when offered.
func NewSMTPTransport(host string, port int, user, password, from, fromName string) (*SMTPTransport, error) {
	opts := []gomail.Option{gomail.WithTimeout(smtpTimeout)}
	if port > 0 {
		opts = append(opts, gomail.WithPort(port))
	}
	if port == implicitTLSPort {
		opts = append(opts, gomail.WithSSLPort(false))
	} else {
		opts = append(opts, gomail.WithTLSPortPolicy(gomail.TLSOpportunistic))
	}
	if user != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(user),
			gomail.WithPassword(password),
		)
	}
	client, err := gomail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPTransport{client: client, from: from, fromName: fromName}, nil
}

// message renders msg as multipart/alternative with text and HTML parts.
func (t *SMTPTransport) message(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(t.fromName, t.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", t.from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	return m, nil
}

// Send delivers msg over the shared connection.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := t.message(msg)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		if err := t.dial(ctx); err != nil {
			return err
		}
	}
	err = t.client.Send(m)
	if isConnLost(err) {
		if err := t.dial(ctx); err != nil {
			return err
		}
		err = t.client.Send(m)
	}
	if err != nil {
		t.drop()
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

func (t *SMTPTransport) dial(ctx context.Context) error {
	t.drop()
	if err := t.client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial %s: %w", t.client.ServerAddr(), err)
	}
	t.connected = true
	return nil
}

func (t *SMTPTransport) drop() {
	if !t.connected {
		return
	}
	if err := t.client.Close(); err != nil {
		log.Printf("Error dropping SMTP connection: %v", err)
	}
	t.connected = false
}

func isConnLost(err error) bool {
	var sendErr *gomail.SendError
	return errors.As(err, &sendErr) && sendErr.Reason == gomail.ErrConnCheck
}

// Close quits the open connection, if any.
func (t *SMTPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil
	}
	t.connected = false
	return t.client.Close()
}
