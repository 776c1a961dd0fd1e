package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer 以 net/smtp 寄送純文字郵件。
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	send     sendFunc
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

// Send 寄出郵件；未設定 host 時直接回錯，由呼叫端決定降級方式。
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil {
		return errors.New("mailer is nil")
	}
	if m.host == "" || m.port == 0 {
		return errors.New("smtp host or port missing")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("recipient missing")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := strings.Join([]string{
		fmt.Sprintf("From: %s", m.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	var a smtp.Auth
	if m.username != "" {
		a = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, a, m.from, []string{to}, []byte(raw)); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
