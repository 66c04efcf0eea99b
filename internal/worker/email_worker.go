package worker

// email_worker.go
// Processes email jobs from QueueEmail: sends the comprobante PDF to the
// customer via SMTP.

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/xzero11x/ferreteria-api-sub000/internal/infra"
)

// EmailJobPayload is the job envelope sent to QueueEmail. It carries the
// comprobante data; the mailer owns how the message is worded.
type EmailJobPayload struct {
	ToEmail     string `json:"to_email"`
	Numero      string `json:"numero"`
	RazonSocial string `json:"razon_social"`
	Total       string `json:"total"`
	PDFPath     string `json:"pdf_path"`
}

// EmailWorker sends PDF receipts to customer emails via SMTP.
type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends an email with the PDF receipt as attachment.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	err := w.mailer.EnviarComprobante(infra.ComprobanteMail{
		Destinatario: payload.ToEmail,
		Numero:       payload.Numero,
		RazonSocial:  payload.RazonSocial,
		Total:        payload.Total,
		PDFPath:      payload.PDFPath,
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Str("numero", payload.Numero).Msg("email_worker: failed to send email")
		return
	}
	log.Info().Str("to", payload.ToEmail).Str("numero", payload.Numero).Msg("email_worker: comprobante sent")
}
