package jobs

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers a rendered message to one recipient.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends plain-text mail over an unauthenticated SMTP relay,
// which is what local and staging setups run.
type SMTPMailer struct {
	Addr string
	From string
}

// Send composes the message and hands it to the relay.
func (m SMTPMailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("jobs: send mail to %s: %w", to, err)
	}
	return nil
}

var _ Sender = SMTPMailer{}
