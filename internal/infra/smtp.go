package infra

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/xzero11x/ferreteria-api-sub000/internal/config"
)

// Outbound mail in this system is a single concern: delivering an emitted
// comprobante PDF to the buyer. The mailer owns the message shape; workers
// hand over the comprobante data and the attachment path.

// ErrSinDestinatario means the venta carried no customer email.
var ErrSinDestinatario = errors.New("mailer: comprobante sin destinatario")

// ComprobanteMail is one delivery request.
type ComprobanteMail struct {
	Destinatario string
	Numero       string // serie-correlativo, e.g. "B001-00000042"
	RazonSocial  string // the emitting empresa, shown in the subject
	Total        string // already formatted, two decimals
	PDFPath      string
}

type Mailer struct {
	addr string
	from string
	auth smtp.Auth
}

// NewMailer builds a Mailer from the SMTP block of the config. The From
// header defaults to the SMTP user when SMTP_FROM is unset.
func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: from,
		auth: smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost),
	}
}

// componer assembles the MIME message. Split from the send so the message
// shape is testable without an SMTP server.
func (m *Mailer) componer(msg ComprobanteMail) (*email.Email, error) {
	if msg.Destinatario == "" {
		return nil, ErrSinDestinatario
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{msg.Destinatario}
	e.Subject = fmt.Sprintf("Comprobante %s — %s", msg.Numero, msg.RazonSocial)
	e.Text = []byte(fmt.Sprintf("Adjunto encontrarás tu comprobante de compra.\nTotal: S/ %s", msg.Total))
	if msg.PDFPath != "" {
		if _, err := e.AttachFile(msg.PDFPath); err != nil {
			return nil, fmt.Errorf("mailer: adjuntar PDF: %w", err)
		}
	}
	return e, nil
}

// EnviarComprobante composes and delivers the comprobante mail over SMTP.
func (m *Mailer) EnviarComprobante(msg ComprobanteMail) error {
	e, err := m.componer(msg)
	if err != nil {
		return err
	}
	return e.Send(m.addr, m.auth)
}
