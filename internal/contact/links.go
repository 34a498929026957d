// Package contact holds the human channels a student is pointed to when the
// tutor cannot answer.
package contact

const (
	DefaultBookingFormURL = "https://docs.google.com/forms/d/e/1FAIpQLSf9SM-hv3LVOG6cP4zaQin4QjmUE-MuloPdYsrUeUYDvkTkQQ/viewform?usp=dialog"
	DefaultMessagingURL   = "https://wa.me/917899865427"
)

const (
	NameBookingForm = "booking_form"
	NameMessaging   = "messaging"
)

type Links struct {
	BookingFormURL string
	MessagingURL   string
}

type Link struct {
	Name string
	URL  string
}

func DefaultLinks() Links {
	return Links{
		BookingFormURL: DefaultBookingFormURL,
		MessagingURL:   DefaultMessagingURL,
	}
}

// All returns the configured links in display order. Empty URLs are skipped.
func (l Links) All() []Link {
	links := make([]Link, 0, 2)
	if l.BookingFormURL != "" {
		links = append(links, Link{Name: NameBookingForm, URL: l.BookingFormURL})
	}
	if l.MessagingURL != "" {
		links = append(links, Link{Name: NameMessaging, URL: l.MessagingURL})
	}
	return links
}
