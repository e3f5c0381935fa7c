// Package email delivers admin alert emails over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"cmga_backend/platform/config"
)

// DeliveryAlert is the payload of a "BL validated" admin email.
type DeliveryAlert struct {
	InvoiceNumber string
	NoteID        int64
	Outcome       string
	TotalCents    int64
	Recipients    []string
}

// SMTPSender delivers alert emails via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.AlertConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetAlertFromName(),
		fromEmail: cfg.GetAlertFromAddress(),
	}
}

// SendDeliveryAlert sends the validation alert to every recipient in one
// message.
func (s *SMTPSender) SendDeliveryAlert(ctx context.Context, alert DeliveryAlert) error {
	if len(alert.Recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("BL n°%d validé — facture %s (%s)", alert.NoteID, alert.InvoiceNumber, alert.Outcome)
	content, err := renderTemplate("delivery_alert.html", deliveryAlertData{
		InvoiceNumber:  alert.InvoiceNumber,
		NoteID:         alert.NoteID,
		Outcome:        alert.Outcome,
		TotalFormatted: formatCurrencyEUR(alert.TotalCents),
	})
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(alert.Recipients...); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, content)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
