package email

import (
	"fmt"
	"net"
	"net/smtp"
)

// Sender delivers one message. Failures surface to the caller; nothing is
// retried here.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPSender struct {
	Host     string
	Port     string
	From     string
	Password string
}

func NewSMTPSender(host, port, from, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, From: from, Password: password}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	addr := net.JoinHostPort(s.Host, s.Port)
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
