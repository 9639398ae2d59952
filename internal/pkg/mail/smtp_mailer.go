package mail

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/gofiber/fiber/v2/log"

	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

// SendMail delivers a single HTML email through the configured SMTP relay.
func SendMail(to, subject, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	if host == "" {
		return errors.New("SMTP_HOST is not configured")
	}
	port := env.GetEnv("SMTP_PORT", "587")
	sender := env.GetEnv("SMTP_SENDER", "")
	if sender == "" {
		sender = "no-reply@astrafabric.io"
		log.Warnf("[Mail] SMTP_SENDER not set, using %s", sender)
	}

	var auth smtp.Auth
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	if err := smtp.SendMail(addr, auth, sender, []string{to}, buildMessage(sender, to, subject, body)); err != nil {
		log.Errorf("[Mail] send to %s failed: %v", to, err)
		return err
	}
	log.Infof("[Mail] sent %q to %s via %s", subject, to, addr)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n"
	return []byte(headers + body)
}
