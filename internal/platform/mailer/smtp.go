package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/svq/chalet-bookings/internal/domain"
)

type SMTPMailer struct {
	Host      string
	Port      int
	From      string
	User      string
	Pass      string
	OwnerName string
	OwnerMail string
}

func NewSMTPMailer(host string, port int, from, user, pass, ownerName, ownerEmail string) *SMTPMailer {
	return &SMTPMailer{
		Host:      strings.TrimSpace(host),
		Port:      port,
		From:      strings.TrimSpace(from),
		User:      strings.TrimSpace(user),
		Pass:      strings.TrimSpace(pass),
		OwnerName: ownerName,
		OwnerMail: strings.TrimSpace(ownerEmail),
	}
}

func (s *SMTPMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"
	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit on 1025: no auth, no TLS
	if s.User == "" {
		return "", smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	auth := smtp.PlainAuth("", s.User, s.Pass, s.Host)
	return "", smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes())
}

func (s *SMTPMailer) SendStayRequest(b *domain.Booking) error {
	subject, text, html := stayRequestBody(b)
	_, err := s.Send(s.OwnerMail, s.OwnerName, subject, text, html)
	return err
}
