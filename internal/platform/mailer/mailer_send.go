package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"

	"github.com/svq/chalet-bookings/internal/domain"
)

type Mailer struct {
	client    *mailersend.Mailersend
	from      mailersend.From
	ownerName string
	ownerMail string
	Enabled   bool
}

func NewMailer(apiKey, fromEmail, ownerName, ownerEmail string) *Mailer {
	m := &Mailer{
		Enabled:   apiKey != "" && fromEmail != "" && ownerEmail != "",
		from:      mailersend.From{Name: "Chalet Calendar", Email: fromEmail},
		ownerName: ownerName,
		ownerMail: ownerEmail,
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY, SMTP_FROM or OWNER_EMAIL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendStayRequest(b *domain.Booking) error {
	subject, text, html := stayRequestBody(b)
	_, err := m.Send(m.ownerMail, m.ownerName, subject, text, html)
	return err
}
