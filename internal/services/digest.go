package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/models"
	"github.com/foxxcyber/pex/internal/report"
)

// DigestMailer is the part of EmailService the digest needs
type DigestMailer interface {
	SendEmail(to []string, subject, htmlBody, textBody string, attachments ...Attachment) error
}

// DigestService mails the expired and critical products with the PDF report
type DigestService struct {
	store  *inventory.Store
	mailer DigestMailer
	to     []string
	now    func() time.Time
	log    zerolog.Logger
}

func NewDigestService(store *inventory.Store, mailer DigestMailer, to []string, logger zerolog.Logger) *DigestService {
	return &DigestService{
		store:  store,
		mailer: mailer,
		to:     to,
		now:    store.Now,
		log:    logger,
	}
}

// Urgent returns the expired and critical products, most urgent first
func Urgent(products []models.Product) []models.Product {
	all := inventory.Filter(products, models.FilterSpec{})
	urgent := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.Status != models.StatusSafe {
			urgent = append(urgent, p)
		}
	}
	return urgent
}

// Send mails the digest. It reports false when nothing is urgent.
func (d *DigestService) Send(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	urgent := Urgent(d.store.Products())
	if len(urgent) == 0 {
		d.log.Info().Msg("no urgent products, digest skipped")
		return false, nil
	}

	at := d.now()
	var pdf bytes.Buffer
	if err := report.WritePDF(&pdf, urgent, at); err != nil {
		return false, err
	}

	stats := d.store.Stats()
	text, htm := DigestBodies(urgent, stats, at)
	err := d.mailer.SendEmail(d.to, DigestSubject(stats), htm, text, Attachment{
		Name: report.Filename("pdf", at),
		Data: pdf.Bytes(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to send digest: %w", err)
	}

	d.log.Info().Int("products", len(urgent)).Strs("to", d.to).Msg("expiry digest sent")
	return true, nil
}
