// Package mailer sends templated notification emails over SMTP.  Sends are
// best effort: callers log failures and carry on, so a broken mail relay
// can never block a business transaction.
package mailer

import (
    "bytes"
    "context"
    "fmt"
    "html/template"
    "net/smtp"

    "github.com/karthicware/ultra-bms-sub010/internal/config"
)

// Mailer is the outbound email surface.
type Mailer interface {
    Send(ctx context.Context, to []string, subject, htmlBody string) error
}

// SMTP sends through a plain SMTP relay.  When the config is disabled the
// Send method is a no-op that reports success.
type SMTP struct {
    cfg config.MailConfig
}

// New builds a Mailer from mail config.
func New(cfg config.MailConfig) *SMTP { return &SMTP{cfg: cfg} }

// Send delivers one message.  Context is accepted for interface symmetry;
// net/smtp has no native cancellation.
func (m *SMTP) Send(_ context.Context, to []string, subject, htmlBody string) error {
    if !m.cfg.Enabled || m.cfg.Host == "" {
        return nil
    }
    var msg bytes.Buffer
    fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
    for _, t := range to {
        fmt.Fprintf(&msg, "To: %s\r\n", t)
    }
    fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
    msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
    msg.WriteString(htmlBody)

    addr := m.cfg.Host + ":" + m.cfg.Port
    var a smtp.Auth
    if m.cfg.Username != "" {
        a = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
    }
    return smtp.SendMail(addr, a, m.cfg.From, to, msg.Bytes())
}

// Render executes an HTML template against data.  Templates are small and
// inlined by callers; parse errors are programmer errors and surface as
// regular errors for logging.
func Render(tmpl string, data any) (string, error) {
    t, err := template.New("mail").Parse(tmpl)
    if err != nil {
        return "", err
    }
    var buf bytes.Buffer
    if err := t.Execute(&buf, data); err != nil {
        return "", err
    }
    return buf.String(), nil
}
