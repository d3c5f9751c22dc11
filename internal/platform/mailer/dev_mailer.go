package mailer

import (
	"github.com/svq/chalet-bookings/internal/domain"
	"github.com/svq/chalet-bookings/pkg/logger"
)

// DevMailer logs instead of sending. Default when EMAIL_DEV_MODE is on.
type DevMailer struct {
	OwnerName string
	OwnerMail string
}

func NewDevMailer(ownerName, ownerEmail string) *DevMailer {
	return &DevMailer{OwnerName: ownerName, OwnerMail: ownerEmail}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"body", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendStayRequest(b *domain.Booking) error {
	subject, text, html := stayRequestBody(b)
	_, err := d.Send(d.OwnerMail, d.OwnerName, subject, text, html)
	return err
}
