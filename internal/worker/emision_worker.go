package worker

// emision_worker.go
// Processes electronic-emission jobs from QueueEmision.
// Sends a POST to the SUNAT sidecar and stores the CPE result. The venta is
// already numbered and committed when this runs: emission failures never
// touch the sale itself. Implements exponential backoff (max 3 attempts)
// before handing the comprobante over to the retry cron.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xzero11x/ferreteria-api-sub000/internal/infra"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
)

// EmisionJobPayload is the job envelope sent to QueueEmision.
type EmisionJobPayload struct {
	VentaID      string  `json:"venta_id"`
	EmpresaID    string  `json:"empresa_id"`
	ClienteEmail *string `json:"cliente_email,omitempty"`
}

// EmisionWorker submits committed ventas to the SUNAT sidecar, records the
// emission state, generates the PDF and optionally enqueues an email job.
type EmisionWorker struct {
	sunatClient     *infra.SUNATClient
	comprobanteRepo repository.ComprobanteRepository
	ventaRepo       repository.VentaRepository
	empresaRepo     repository.EmpresaRepository
	dispatcher      *Dispatcher
	pdfStoragePath  string
}

func NewEmisionWorker(
	sunatClient *infra.SUNATClient,
	comprobanteRepo repository.ComprobanteRepository,
	ventaRepo repository.VentaRepository,
	empresaRepo repository.EmpresaRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
) *EmisionWorker {
	return &EmisionWorker{
		sunatClient:     sunatClient,
		comprobanteRepo: comprobanteRepo,
		ventaRepo:       ventaRepo,
		empresaRepo:     empresaRepo,
		dispatcher:      dispatcher,
		pdfStoragePath:  pdfStoragePath,
	}
}

// Process handles a single emission job:
//  1. Parse EmisionJobPayload from the job envelope
//  2. Fetch the venta (with detalles+cliente) and the emitting empresa
//  3. Create the ComprobanteElectronico record with estado="pendiente"
//  4. Call the SUNAT sidecar with exponential backoff (max 3 attempts)
//  5. Update the record (hash / estado / observaciones), or schedule the
//     retry cron via next_retry_at when all attempts fail
//  6. Generate the PDF
//  7. Optionally enqueue an email job
func (w *EmisionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmisionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("emision_worker: invalid payload")
		return
	}

	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Str("venta_id", payload.VentaID).Msg("emision_worker: invalid venta_id")
		return
	}
	empresaID, err := uuid.Parse(payload.EmpresaID)
	if err != nil {
		log.Error().Str("empresa_id", payload.EmpresaID).Msg("emision_worker: invalid empresa_id")
		return
	}

	venta, err := w.ventaRepo.FindByID(ctx, empresaID, ventaID)
	if err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("emision_worker: venta not found")
		return
	}
	empresa, err := w.empresaRepo.FindByID(ctx, empresaID)
	if err != nil {
		log.Error().Err(err).Str("empresa_id", payload.EmpresaID).Msg("emision_worker: empresa not found")
		return
	}

	comp := &model.ComprobanteElectronico{
		EmpresaID:   empresaID,
		VentaID:     ventaID,
		Tipo:        string(venta.Tipo),
		Serie:       venta.SerieCodigo,
		Correlativo: venta.Correlativo,
		MontoBase:   venta.SubtotalBase,
		MontoIGV:    venta.Impuesto,
		MontoTotal:  venta.Total,
		Estado:      "pendiente",
	}
	if err := w.comprobanteRepo.Create(ctx, comp); err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("emision_worker: failed to create comprobante")
		return
	}

	// Nota de venta is an internal document — no electronic submission.
	if venta.Tipo == "nota_venta" {
		comp.Estado = "emitido"
		_ = w.comprobanteRepo.Update(ctx, comp)
	} else {
		w.emitir(ctx, comp, venta, empresa)
	}

	// PDF regardless of emission outcome: the committed sale is the legal
	// document, the electronic copy catches up.
	pdfPath, pdfErr := infra.GenerateComprobantePDF(venta, empresa, w.pdfStoragePath)
	if pdfErr != nil {
		log.Warn().Err(pdfErr).Str("venta_id", payload.VentaID).Msg("emision_worker: PDF generation failed")
	} else {
		comp.PDFPath = &pdfPath
		_ = w.comprobanteRepo.Update(ctx, comp)
	}

	if payload.ClienteEmail != nil && *payload.ClienteEmail != "" && pdfPath != "" {
		numero := fmt.Sprintf("%s-%08d", venta.SerieCodigo, venta.Correlativo)
		emailJob := EmailJobPayload{
			ToEmail:     *payload.ClienteEmail,
			Numero:      numero,
			RazonSocial: empresa.RazonSocial,
			Total:       venta.Total.StringFixed(2),
			PDFPath:     pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", *payload.ClienteEmail).Msg("emision_worker: failed to enqueue email")
		}
	}
}

func (w *EmisionWorker) emitir(ctx context.Context, comp *model.ComprobanteElectronico, venta *model.Venta, empresa *model.Empresa) {
	var sunatResp *infra.SUNATResponse
	sunatErr := withRetry(ctx, 3, func(attempt int) error {
		resp, err := w.sunatClient.Emitir(ctx, buildSUNATPayload(comp, venta, empresa))
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("venta_id", venta.ID.String()).
				Msg("emision_worker: SUNAT attempt failed, retrying")
			return err
		}
		sunatResp = resp
		return nil
	})

	switch {
	case sunatErr != nil:
		// Stays pendiente; the retry cron picks it up via next_retry_at.
		errMsg := sunatErr.Error()
		nextRetry := time.Now().Add(computeRetryBackoff(1))
		comp.RetryCount = 1
		comp.LastError = &errMsg
		comp.NextRetryAt = &nextRetry
		_ = w.comprobanteRepo.Update(ctx, comp)
		log.Error().Err(sunatErr).Str("venta_id", venta.ID.String()).
			Msg("emision_worker: SUNAT failed after all attempts, scheduled for retry cron")
	case sunatResp.Resultado == "A":
		comp.Estado = "emitido"
		hash := sunatResp.HashCPE
		ticket := sunatResp.Ticket
		comp.HashCPE = &hash
		comp.TicketSUNAT = &ticket
		_ = w.comprobanteRepo.Update(ctx, comp)
		log.Info().Str("hash", hash).Str("venta_id", venta.ID.String()).
			Msg("emision_worker: CPE accepted")
	default:
		comp.Estado = "rechazado"
		obs := fmt.Sprintf("SUNAT rechazó el comprobante: resultado=%s", sunatResp.Resultado)
		if len(sunatResp.Observaciones) > 0 {
			obs = fmt.Sprintf("%s (%s: %s)", obs, sunatResp.Observaciones[0].Codigo, sunatResp.Observaciones[0].Mensaje)
		}
		comp.Observaciones = &obs
		_ = w.comprobanteRepo.Update(ctx, comp)
		log.Warn().Str("resultado", sunatResp.Resultado).Str("venta_id", venta.ID.String()).
			Msg("emision_worker: SUNAT rejected")
	}
}

// buildSUNATPayload projects the stored fiscal snapshot into the sidecar's
// wire format. Amounts come from the comprobante record, never recomputed.
func buildSUNATPayload(comp *model.ComprobanteElectronico, venta *model.Venta, empresa *model.Empresa) infra.SUNATPayload {
	tipoDoc, nroDoc := receptorDocumento(venta.Cliente)
	return infra.SUNATPayload{
		RUCEmisor:       empresa.RUC,
		TipoComprobante: comp.Tipo,
		Serie:           comp.Serie,
		Correlativo:     comp.Correlativo,
		TipoDocReceptor: tipoDoc,
		NroDocReceptor:  nroDoc,
		MontoBase:       comp.MontoBase.InexactFloat64(),
		MontoIGV:        comp.MontoIGV.InexactFloat64(),
		MontoTotal:      comp.MontoTotal.InexactFloat64(),
		VentaID:         venta.ID.String(),
	}
}

// receptorDocumento maps the buyer to SUNAT's document-type catalog:
// "6" = RUC, "1" = DNI, "0" = sin documento (walk-in boleta).
func receptorDocumento(cliente *model.Cliente) (string, string) {
	if cliente == nil {
		return "0", "-"
	}
	if ruc := cliente.DatosFiscales().RUCEfectivo(); ruc != "" {
		return "6", ruc
	}
	if cliente.NumeroDocumento != "" {
		return "1", cliente.NumeroDocumento
	}
	return "0", "-"
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
