package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gomail "gopkg.in/gomail.v2"

	"github.com/gross-ict/billing-engine/internal/application/reminder"
	"github.com/gross-ict/billing-engine/pkg/config"
)

var _ reminder.NotificationSender = (*SMTPSender)(nil)

// SMTPSender entrega recordatorios de pago por SMTP vía gomail.
// Se construye una vez en el bootstrap y se inyecta en el motor.
type SMTPSender struct {
	dialer     *gomail.Dialer
	sender     string
	senderName string
}

// NewSMTPSender construye el sender con la configuración SMTP de la app.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		sender:     cfg.Sender,
		senderName: cfg.SenderName,
	}
}

// SendReminder envía el correo y devuelve el Message-ID como recibo.
// El Message-ID se genera aquí y se fija en la cabecera: así el recibo que
// guarda el libro de recordatorios coincide con lo que viajó por SMTP.
func (s *SMTPSender) SendReminder(ctx context.Context, m reminder.ReminderMail) (string, error) {
	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), domainOf(s.sender))

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.sender, s.senderName)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", fmt.Sprintf("%s - Rechnung %s", m.Subject, m.InvoiceNumber))
	msg.SetHeader("Message-ID", messageID)
	msg.SetBody("text/html", renderBody(s.senderName, m))

	// gomail no acepta context: el envío corre en una goroutine y el
	// timeout por ítem del motor gobierna la espera.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("smtp send: %w", err)
		}
		return messageID, nil
	case <-ctx.Done():
		return "", fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func renderBody(senderName string, m reminder.ReminderMail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Guten Tag %s,</p>", m.CustomerName)
	fmt.Fprintf(&b, "<p>%s</p>", m.Message)
	b.WriteString("<table>")
	fmt.Fprintf(&b, "<tr><td>Rechnungsnummer:</td><td>%s</td></tr>", m.InvoiceNumber)
	fmt.Fprintf(&b, "<tr><td>Rechnungsdatum:</td><td>%s</td></tr>", m.InvoiceDate.Format("02.01.2006"))
	fmt.Fprintf(&b, "<tr><td>Fällig am:</td><td>%s</td></tr>", m.DueDate.Format("02.01.2006"))
	fmt.Fprintf(&b, "<tr><td>Offener Betrag:</td><td>CHF %s</td></tr>", m.Amount.StringFixed(2))
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p>Freundliche Grüsse<br>%s</p>", senderName)
	return b.String()
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 {
		return address[i+1:]
	}
	return "localhost"
}
