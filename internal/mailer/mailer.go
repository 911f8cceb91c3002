// Package mailer sends church archive emails over SMTP.
package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// AttachmentName is the fixed file name recipients see on the zip.
const AttachmentName = "material.zip"

// Message is one archive email to a church contact.
type Message struct {
	To         string
	From       string // optional override; sender default applies when empty
	Subject    string
	Body       string // operator-supplied text inserted into the template
	District   string
	Church     string
	Attachment string // path of the church zip on disk
}

// Sender delivers messages. The dispatcher depends on this interface so
// tests can record sends without an SMTP server.
type Sender interface {
	Send(m Message) error
}

// SMTP sends messages through a real SMTP server via gomail.
type SMTP struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTP creates an SMTP sender with a default From address.
func NewSMTP(host string, port int, user, pass, from, fromName string) *SMTP {
	return &SMTP{
		dialer:   gomail.NewDialer(host, port, user, pass),
		from:     from,
		fromName: fromName,
	}
}

// Send delivers one archive email with the zip attached as application/zip.
func (s *SMTP) Send(m Message) error {
	from := m.From
	if from == "" {
		from = s.from
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", from, s.fromName)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	msg.SetBody("text/plain", BodyText(m.District, m.Church, m.Body))
	msg.Attach(m.Attachment,
		gomail.Rename(AttachmentName),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/zip"}}),
	)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send to %s: %w", m.To, err)
	}
	return nil
}

// BodyText renders the plain-text body: the grouping header, the operator's
// text, and the event team signature.
func BodyText(district, church, body string) string {
	return fmt.Sprintf("Entrance codes for the event\n\nDistrict: %s\nChurch: %s\n\n%s\n\nThanks,\nThe event team\n",
		district, church, body)
}
