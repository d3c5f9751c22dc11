package mailer

import (
	"fmt"

	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
)

func stayRequestBody(b *domain.Booking) (subject, text, html string) {
	dates := calendar.FormatRange(b.StartDate, b.EndDate)
	notes := b.Notes
	if notes == "" {
		notes = "None"
	}

	subject = fmt.Sprintf("New stay request: %s, %s", b.GuestName, dates)
	text = fmt.Sprintf(
		"%s (%s) requested a stay.\nDates: %s\nGuests: %d\nNotes: %s\n",
		b.GuestName, b.GuestEmail, dates, b.GuestCount, notes)
	html = fmt.Sprintf(
		`<p><b>%s</b> (%s) requested a stay.</p><p>Dates: %s<br>Guests: %d<br>Notes: %s</p>`,
		b.GuestName, b.GuestEmail, dates, b.GuestCount, notes)
	return subject, text, html
}
