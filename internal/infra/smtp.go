package infra

import (
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/smtp"
	"path/filepath"

	"cobrofacil/internal/config"

	"github.com/jordan-wright/email"
)

const remitenteNombre = "CobroFácil"

// Mailer delivers daily reports. Port 465 uses implicit TLS; any other port
// goes through net/smtp, which upgrades with STARTTLS when offered.
type Mailer struct {
	host string
	addr string
	from string
	auth smtp.Auth
	tls  bool
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		host: cfg.SMTPHost,
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
		tls:  cfg.SMTPPort == 465,
	}
	if m.from == "" {
		m.from = cfg.SMTPUser
	}
	if cfg.SMTPUser != "" {
		m.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return m
}

// SendReporte sends one message to all recipients with the PDF attached.
func (m *Mailer) SendReporte(to []string, subject, body, pdfPath string) error {
	if len(to) == 0 {
		return fmt.Errorf("mailer: no recipients")
	}
	e := email.NewEmail()
	e.From = (&mail.Address{Name: remitenteNombre, Address: m.from}).String()
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", filepath.Base(pdfPath), err)
		}
	}

	if m.tls {
		return e.SendWithTLS(m.addr, m.auth, &tls.Config{ServerName: m.host})
	}
	return e.Send(m.addr, m.auth)
}
