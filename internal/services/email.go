package services

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/models"
)

var ErrMailNotConfigured = errors.New("SMTP is not configured")

// EmailService sends mail through an SMTP relay
type EmailService struct {
	dialer   *gomail.Dialer
	fromAddr string
	fromName string

	// send delivers a message; replaced in tests
	send func(m ...*gomail.Message) error
}

// NewEmailService creates a new email service instance
func NewEmailService(host string, port int, user, password, fromAddr, fromName string) *EmailService {
	d := gomail.NewDialer(host, port, user, password)
	return &EmailService{
		dialer:   d,
		fromAddr: fromAddr,
		fromName: fromName,
		send:     d.DialAndSend,
	}
}

// IsConfigured returns true if SMTP is properly configured
func (s *EmailService) IsConfigured() bool {
	return s.dialer.Host != "" && s.fromAddr != ""
}

// Attachment is an in-memory file attached to a message
type Attachment struct {
	Name string
	Data []byte
}

// SendEmail sends an HTML email with a plain-text alternative
func (s *EmailService) SendEmail(to []string, subject, htmlBody, textBody string, attachments ...Attachment) error {
	if !s.IsConfigured() {
		return ErrMailNotConfigured
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	return s.send(s.newMessage(to, subject, htmlBody, textBody, attachments...))
}

func (s *EmailService) newMessage(to []string, subject, htmlBody, textBody string, attachments ...Attachment) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.fromAddr, s.fromName)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	for _, a := range attachments {
		data := a.Data
		m.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}

// DigestSubject summarises the urgent counts
func DigestSubject(stats models.InventoryStats) string {
	return fmt.Sprintf("PEX - Alerta de validade: %d vencidos, %d críticos", stats.Expired, stats.Critical)
}

// DigestBodies renders the text and HTML bodies of the expiry digest
func DigestBodies(products []models.Product, stats models.InventoryStats, at time.Time) (string, string) {
	var text, htm strings.Builder

	fmt.Fprintf(&text, "Relatório de validade gerado em %s\n\n", at.Format("02/01/2006 15:04"))
	fmt.Fprintf(&text, "Total monitorado: %d | Vencidos: %d | Críticos: %d | Seguros: %d\n\n",
		stats.Total, stats.Expired, stats.Critical, stats.Safe)

	htm.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head><body style="font-family: sans-serif; color: #333;">`)
	fmt.Fprintf(&htm, `<h2 style="color: #c80000;">PEX - Alerta de validade</h2><p>Gerado em %s</p>`, at.Format("02/01/2006 15:04"))
	fmt.Fprintf(&htm, `<p>Vencidos: <b>%d</b> &middot; Críticos: <b>%d</b> &middot; Total: %d</p>`, stats.Expired, stats.Critical, stats.Total)
	htm.WriteString(`<table border="1" cellpadding="4" cellspacing="0"><tr><th>Código</th><th>Produto</th><th>Qtd</th><th>Validade</th><th>Dias</th><th>Status</th></tr>`)

	for _, p := range products {
		fmt.Fprintf(&text, "- %s (%s) x%d vence %s [%d dias] %s\n",
			p.Name, p.Barcode, p.Quantity, expiry.FormatDisplay(p.ExpiryDate), p.DaysToExpiry, p.Status.Badge())
		fmt.Fprintf(&htm, "<tr><td>%s</td><td>%s</td><td>%d</td><td>%s</td><td>%d</td><td>%s</td></tr>",
			html.EscapeString(p.Barcode), html.EscapeString(p.Name), p.Quantity,
			expiry.FormatDisplay(p.ExpiryDate), p.DaysToExpiry, p.Status.Badge())
	}

	htm.WriteString(`</table><p style="color: #6b7280; font-size: 12px;">Relatório completo em anexo.</p></body></html>`)
	return text.String(), htm.String()
}
