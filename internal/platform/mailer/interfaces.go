package mailer

import "github.com/svq/chalet-bookings/internal/domain"

// Service delivers owner notifications. Delivery is best-effort: a
// failed send never fails the booking that triggered it.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendStayRequest(b *domain.Booking) error
}
