package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestSMTPMailer_Send(t *testing.T) {
	t.Run("nil_mailer", func(t *testing.T) {
		var m *SMTPMailer
		err := m.Send(context.Background(), "a@example.com", "", "")
		if err == nil || err.Error() != "mailer is nil" {
			t.Errorf("expected nil mailer error, got %v", err)
		}
	})

	t.Run("missing_config", func(t *testing.T) {
		m := NewSMTPMailer("", 0, "", "", "noreply@example.com")
		err := m.Send(context.Background(), "a@example.com", "", "")
		if err == nil || err.Error() != "smtp host or port missing" {
			t.Errorf("expected missing config error, got %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		var gotAddr, gotFrom string
		var gotTo []string
		var gotMsg string
		m := NewSMTPMailer("smtp.example.com", 587, "user", "pass", "noreply@example.com")
		m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
			if a == nil {
				t.Error("expected plain auth when username set")
			}
			return nil
		}
		err := m.Send(context.Background(), "jane@example.com", "Hello", "body text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotAddr != "smtp.example.com:587" || gotFrom != "noreply@example.com" {
			t.Errorf("unexpected envelope: %s %s", gotAddr, gotFrom)
		}
		if len(gotTo) != 1 || gotTo[0] != "jane@example.com" {
			t.Errorf("unexpected recipients: %v", gotTo)
		}
		if !strings.Contains(gotMsg, "Subject: Hello\r\n") || !strings.HasSuffix(gotMsg, "\r\n\r\nbody text") {
			t.Errorf("unexpected message: %q", gotMsg)
		}
	})

	t.Run("server_error", func(t *testing.T) {
		m := NewSMTPMailer("smtp.example.com", 25, "", "", "noreply@example.com")
		m.send = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection refused")
		}
		if err := m.Send(context.Background(), "a@example.com", "", ""); err == nil {
			t.Error("expected error from transport")
		}
	})
}
