package service

import (
	"context"
	"embed"
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Transport delivers messages. Implementations are long-lived and safe for
// concurrent use.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// EmailService renders the templated emails and hands them to a Transport
type EmailService struct {
	transport Transport
	clientURL string
	templates map[string]string
}

// NewEmailService loads the embedded templates.
func NewEmailService(transport Transport, clientURL string) (*EmailService, error) {
	templates := make(map[string]string)
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read email templates: %w", err)
	}
	for _, e := range entries {
		data, err := templateFS.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", e.Name(), err)
		}
		templates[strings.TrimSuffix(e.Name(), ".html")] = string(data)
	}
	return &EmailService{
		transport: transport,
		clientURL: strings.TrimRight(clientURL, "/"),
		templates: templates,
	}, nil
}

var (
	tagPattern        = regexp.MustCompile(`(?s)<style.*?</style>|<[^>]+>`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n+`)
)

// render substitutes {{key}} placeholders. Values are HTML-escaped.
func (s *EmailService) render(name string, values map[string]string) (htmlBody, textBody string, err error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", html.EscapeString(v))
	}
	htmlBody = strings.NewReplacer(pairs...).Replace(tmpl)

	text := html.UnescapeString(tagPattern.ReplaceAllString(htmlBody, ""))
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	textBody = strings.TrimSpace(blankLinesPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
	return htmlBody, textBody, nil
}

func (s *EmailService) send(ctx context.Context, to, subject, template string, values map[string]string) error {
	htmlBody, textBody, err := s.render(template, values)
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, Message{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody}); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", template, to, err)
	}
	return nil
}

// SendOTP emails a sign-in code.
func (s *EmailService) SendOTP(ctx context.Context, to, code string) error {
	return s.send(ctx, to, "Your InsightPaper verification code", "otp", map[string]string{"otp": code})
}

// SendPassword emails a generated password to a new professor.
func (s *EmailService) SendPassword(ctx context.Context, to, name, password string) error {
	return s.send(ctx, to, "Your InsightPaper account", "password", map[string]string{"name": name, "password": password})
}

// SendPasswordReset emails a reset link.
func (s *EmailService) SendPasswordReset(ctx context.Context, to, link string) error {
	return s.send(ctx, to, "Reset your InsightPaper password", "reset", map[string]string{"link": link})
}

// SendNewDocument tells a student a document was published.
func (s *EmailService) SendNewDocument(ctx context.Context, to, courseName, title string) error {
	return s.send(ctx, to, "New document in "+courseName, "new_document", map[string]string{
		"courseName": courseName,
		"title":      title,
		"link":       s.clientURL,
	})
}

// SendRecommendation tells a student about a recommendation.
func (s *EmailService) SendRecommendation(ctx context.Context, to, courseName, title, message string) error {
	return s.send(ctx, to, "New recommendation in "+courseName, "recommendation", map[string]string{
		"courseName": courseName,
		"title":      title,
		"message":    message,
		"link":       s.clientURL,
	})
}

// LogTransport stands in when no mail transport is configured.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, msg Message) error {
	log.Printf("Skipping email send (service disabled): %q to %s", msg.Subject, msg.To)
	return nil
}
