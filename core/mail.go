package core

import "net/mail"

type (
	// EmailMessage is a plain text email. The desktop core only ever sends
	// short notification bodies (password recovery), so there is no template
	// machinery here.
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Subject string
		Body    string
	}

	// EmailService is any service that can deliver emails. Send is
	// synchronous and returns the delivery error so callers can surface
	// delivery failures to the user.
	EmailService interface {
		Send(msg *EmailMessage) error
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.Body != "" }
