package worker

// retry_cron.go
// Background goroutine that periodically re-attempts SUNAT calls for
// comprobantes stuck in estado='pendiente' with a next_retry_at in the past.
// Uses the Circuit Breaker to avoid hammering a downed sidecar.

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xzero11x/ferreteria-api-sub000/internal/infra"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10

	// MaxComprobanteRetries is the cron-level cap; the worker's inline
	// attempts are separate. Past this the comprobante goes to the DLQ.
	MaxComprobanteRetries = 5
)

// computeRetryBackoff spaces cron retries: 1m, 2m, 4m, 8m, capped at 15m.
func computeRetryBackoff(retryCount int) time.Duration {
	d := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if d > 15*time.Minute {
		d = 15 * time.Minute
	}
	return d
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	ComprobanteRepo repository.ComprobanteRepository
	VentaRepo       repository.VentaRepository
	EmpresaRepo     repository.EmpresaRepository
	SUNATClient     *infra.SUNATClient
	CB              *infra.CircuitBreaker
	Dispatcher      *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries pending comprobantes, and re-attempts SUNAT calls through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed sidecar
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	comprobantes, err := cfg.ComprobanteRepo.ListPendingRetries(ctx, time.Now(), retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(comprobantes) == 0 {
		return
	}

	log.Info().Int("count", len(comprobantes)).Msg("retry_cron: processing pending comprobantes")

	for i := range comprobantes {
		comp := &comprobantes[i]

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		venta, err := cfg.VentaRepo.FindByID(ctx, comp.EmpresaID, comp.VentaID)
		if err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: venta not found")
			continue
		}
		empresa, err := cfg.EmpresaRepo.FindByID(ctx, comp.EmpresaID)
		if err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).Msg("retry_cron: empresa not found")
			continue
		}

		var sunatResp *infra.SUNATResponse
		cbErr := cfg.CB.Execute(func() error {
			resp, err := cfg.SUNATClient.Emitir(ctx, buildSUNATPayload(comp, venta, empresa))
			if err != nil {
				return err
			}
			sunatResp = resp
			return nil
		})

		if cbErr != nil {
			// Failure — increment retry count, schedule next attempt
			comp.RetryCount++
			errMsg := cbErr.Error()
			comp.LastError = &errMsg
			nextRetry := time.Now().Add(computeRetryBackoff(comp.RetryCount))
			comp.NextRetryAt = &nextRetry

			if comp.RetryCount >= MaxComprobanteRetries {
				comp.Estado = "error"
				comp.NextRetryAt = nil
				log.Error().
					Str("comprobante_id", comp.ID.String()).
					Str("venta_id", comp.VentaID.String()).
					Int("retries", comp.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to error/DLQ")

				cfg.Dispatcher.MoverADLQ(ctx, comp,
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxComprobanteRetries, errMsg))
			} else {
				log.Warn().
					Str("comprobante_id", comp.ID.String()).
					Int("retry_count", comp.RetryCount).
					Time("next_retry_at", *comp.NextRetryAt).
					Msg("retry_cron: SUNAT retry failed, scheduled next attempt")
			}

			_ = cfg.ComprobanteRepo.Update(ctx, comp)
			continue
		}

		// Success path
		if sunatResp.Resultado == "A" {
			comp.Estado = "emitido"
			hash := sunatResp.HashCPE
			ticket := sunatResp.Ticket
			comp.HashCPE = &hash
			comp.TicketSUNAT = &ticket
			comp.NextRetryAt = nil
			comp.LastError = nil
			_ = cfg.ComprobanteRepo.Update(ctx, comp)

			log.Info().
				Str("hash", hash).
				Str("comprobante_id", comp.ID.String()).
				Int("total_retries", comp.RetryCount).
				Msg("retry_cron: CPE accepted after retry")
		} else {
			comp.Estado = "rechazado"
			obs := fmt.Sprintf("SUNAT rechazó (retry): resultado=%s", sunatResp.Resultado)
			comp.Observaciones = &obs
			comp.NextRetryAt = nil
			_ = cfg.ComprobanteRepo.Update(ctx, comp)
			log.Warn().
				Str("resultado", sunatResp.Resultado).
				Str("comprobante_id", comp.ID.String()).
				Msg("retry_cron: SUNAT rejected on retry")
		}
	}
}
