// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/gtracker/forum-backend/pkg/logger"
)

// Config SMTP settings; an empty Host disables delivery
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// Sender delivers verification codes to users
type Sender interface {
	SendEmailChangeCode(to, username, code string) error
	SendPasswordChangeCode(to, username, code string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer SMTP-backed Sender
type Mailer struct {
	config Config
	server string
	auth   smtp.Auth
	send   sendFunc
}

// New creates a mailer; without a host every message is only logged
func New(config Config) *Mailer {
	var auth smtp.Auth
	if config.Username != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}
	return &Mailer{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
		send:   smtp.SendMail,
	}
}

// IsConfigured reports whether messages leave the process
func (m *Mailer) IsConfigured() bool {
	return m.config.Host != "" && m.config.Port != "" && m.config.From != ""
}

// SendEmailChangeCode code for confirming a new address, sent to that address
func (m *Mailer) SendEmailChangeCode(to, username, code string) error {
	return m.sendCode(to, "Código de Verificação - Alteração de Email", codeData{
		Action:   "Alteração de Email",
		Intro:    "Você solicitou a alteração do seu email. Use o código abaixo para confirmar:",
		Username: username,
		Code:     code,
	})
}

// SendPasswordChangeCode code for confirming a password change
func (m *Mailer) SendPasswordChangeCode(to, username, code string) error {
	return m.sendCode(to, "Código de Verificação - Alteração de Senha", codeData{
		Action:   "Alteração de Senha",
		Intro:    "Você solicitou a alteração da sua senha. Use o código abaixo para confirmar:",
		Username: username,
		Code:     code,
	})
}

type codeData struct {
	Action   string
	Intro    string
	Username string
	Code     string
	Year     int
}

var codeTemplate = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html>
  <head><meta charset="utf-8"></head>
  <body style="font-family: Arial, sans-serif; color: #333;">
    <h1>Gtracker Forum</h1>
    <p>{{.Action}}</p>
    <p>Olá, <strong>{{.Username}}</strong>!</p>
    <p>{{.Intro}}</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 5px;">{{.Code}}</p>
    <p><strong>Atenção:</strong> Este código expira em 15 minutos e só pode ser usado uma vez.</p>
    <p>Se você não solicitou esta alteração, ignore este email. Sua conta permanecerá segura.</p>
    <p style="font-size: 12px; color: #666;">&copy; {{.Year}} Gtracker Forum. Todos os direitos reservados.</p>
  </body>
</html>`))

func (m *Mailer) sendCode(to, subject string, data codeData) error {
	data.Year = time.Now().Year()

	var body bytes.Buffer
	if err := codeTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	if !m.IsConfigured() {
		logger.GetLogger().Info().
			Str("to", to).
			Str("subject", subject).
			Str("code", data.Code).
			Msg("smtp disabled, email not sent")
		return nil
	}

	if err := m.send(m.server, m.auth, m.config.From, []string{to}, m.message(to, subject, body.String())); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (m *Mailer) message(to, subject, html string) []byte {
	from := m.config.From
	if m.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.From)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(html)
	return []byte(msg.String())
}
