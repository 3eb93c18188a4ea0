package external

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"tessera/internal/models"
)

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendTickets delivers the issued tickets to one address, PDF attached.
func (m *Mailer) SendTickets(to string, order *models.Order, eventTitle string, pdf []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Your tickets for %s", eventTitle))
	msg.SetBody("text/html", ticketsBody(order, eventTitle))

	if len(pdf) > 0 {
		msg.Attach("tickets.pdf", gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}))
	}

	return m.dialer.DialAndSend(msg)
}

// SendRefundNotice confirms a seat cancellation and its refunded amount.
func (m *Mailer) SendRefundNotice(to string, eventTitle string, seat models.SeatRef, refunded int64) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Refund confirmation for %s", eventTitle))
	msg.SetBody("text/html", refundBody(eventTitle, seat, refunded))

	return m.dialer.DialAndSend(msg)
}

func ticketsBody(order *models.Order, eventTitle string) string {
	body := fmt.Sprintf("<h2>%s</h2><p>Order #%d, %d ticket(s).</p><ul>", eventTitle, order.ID, order.Quantity)
	for _, t := range order.Tickets {
		body += fmt.Sprintf("<li>Section %s, row %s, seat %d: code <b>%s</b></li>",
			t.Section, t.Row, t.SeatNumber, t.Code)
	}
	return body + "</ul><p>Your tickets are attached as a PDF.</p>"
}

func refundBody(eventTitle string, seat models.SeatRef, refunded int64) string {
	return fmt.Sprintf(
		"<h2>%s</h2><p>Seat %s-%s-%d has been cancelled.</p><p>Refunded amount: %d.%02d</p>",
		eventTitle, seat.Section, seat.Row, seat.SeatNumber, refunded/100, refunded%100)
}
