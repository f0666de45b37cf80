// Package mailer renders transactional emails and hands them to a Sender.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/natours/api/pkg/logger"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type templateData struct {
	Name      string
	URL       string
	ExpiresAt time.Time
}

const (
	welcomeTemplate = `{{ define "welcome.subject" }}Welcome to the Natours Family!{{ end }}
{{- define "welcome.body" -}}
Hi {{ .Name | splitList " " | first | title }},

Welcome to Natours, we're glad to have you!
Upload your user photo at {{ .URL }} to get started.
{{- end }}`

	resetTemplate = `{{ define "reset.subject" }}Your password reset token (valid for only 10 minutes){{ end }}
{{- define "reset.body" -}}
Hi {{ .Name | splitList " " | first | title }},

Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: {{ .URL }}
This link expires at {{ dateInZone "15:04 MST" .ExpiresAt "UTC" }}.
If you didn't forget your password, please ignore this email!
{{- end }}`
)

type Mailer struct {
	from      string
	sender    Sender
	templates *template.Template
}

func New(from string, sender Sender) (*Mailer, error) {
	tmpl := template.New("mail").Funcs(sprig.TxtFuncMap())
	for _, src := range []string{welcomeTemplate, resetTemplate} {
		if _, err := tmpl.Parse(src); err != nil {
			return nil, fmt.Errorf("parse mail template: %w", err)
		}
	}
	return &Mailer{from: from, sender: sender, templates: tmpl}, nil
}

// SendWelcome greets a freshly signed-up user.
func (m *Mailer) SendWelcome(ctx context.Context, to, name, url string) error {
	return m.send(ctx, "welcome", to, templateData{Name: name, URL: url})
}

// SendPasswordReset mails the reset link.
func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, url string, expiresAt time.Time) error {
	return m.send(ctx, "reset", to, templateData{Name: name, URL: url, ExpiresAt: expiresAt})
}

func (m *Mailer) send(ctx context.Context, name, to string, data templateData) error {
	subject, err := m.render(name+".subject", data)
	if err != nil {
		return err
	}
	body, err := m.render(name+".body", data)
	if err != nil {
		return err
	}

	return m.sender.Send(ctx, Message{
		From:    m.from,
		To:      to,
		Subject: subject,
		Body:    body,
	})
}

func (m *Mailer) render(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// LogSender writes messages to the application log instead of delivering
// them. Bodies are logged at debug level only.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.InfoWithContext(ctx, "Email dispatched").
		String("to", msg.To).
		String("subject", msg.Subject).
		Log()
	logger.DebugWithContext(ctx, "Email body").
		String("to", msg.To).
		String("body", msg.Body).
		Log()
	return nil
}
