package config

import "strings"

// MailConfig holds SMTP settings for outbound notifications.  When Enabled is
// false or Host is empty the mailer becomes a no-op; notification failures
// must never block a business transaction, so callers only log send errors.
type MailConfig struct {
    Enabled  bool
    Host     string
    Port     string
    Username string
    Password string
    From     string
    NotifyTo []string // staff addresses for back-office notifications
}

// LoadMailConfig reads SMTP settings from environment variables.
func LoadMailConfig() MailConfig {
    return MailConfig{
        Enabled:  envBool("SMTP_ENABLED", false),
        Host:     envStr("SMTP_HOST", ""),
        Port:     envStr("SMTP_PORT", "587"),
        Username: envStr("SMTP_USERNAME", ""),
        Password: envStr("SMTP_PASSWORD", ""),
        From:     envStr("SMTP_FROM", "no-reply@ultra-bms.local"),
        NotifyTo: splitList(envStr("SMTP_NOTIFY_TO", "")),
    }
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
