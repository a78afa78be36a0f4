package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medibook/appointment-scheduling/internal/scheduling"
)

// Mailer sends the booking emails over SMTP. It implements
// scheduling.Notifier; callers treat every send as best effort.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (m *Mailer) BookingConfirmed(_ context.Context, to string, c scheduling.Confirmation) error {
	body := fmt.Sprintf(`
		<p>Hi <strong>%s</strong>,</p>

		<p>Your appointment has been successfully booked.</p>

		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Practitioner:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s</li>
		</ul>

		<p>You may cancel your appointment up to <strong>4 hours</strong> before the scheduled time.</p>

		<p>Thank you,<br>MediBook</p>
	`, c.Patient, c.Service, c.Practitioner, c.Date.Format("2006-01-02"), c.Time)

	return m.send(to, "Appointment Confirmed", body)
}

func (m *Mailer) BookingReminder(_ context.Context, to string, c scheduling.Confirmation) error {
	body := fmt.Sprintf(`
		<p>Hi <strong>%s</strong>,</p>

		<p>This is a reminder of your upcoming appointment.</p>

		<ul>
			<li><strong>Service:</strong> %s</li>
			<li><strong>Practitioner:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s</li>
		</ul>

		<p>Thank you,<br>MediBook</p>
	`, c.Patient, c.Service, c.Practitioner, c.Date.Format("2006-01-02"), c.Time)

	return m.send(to, "Appointment Reminder", body)
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %q to %s: %w", subject, to, err)
	}
	return nil
}
