package worker

// auditoria_worker.go
// Processes audit-trail jobs from QueueAuditoria. Administrative overrides
// (forced session closes) are recorded outside the request path: the close
// itself must not fail because the audit sink is slow.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// AuditoriaKey is the Redis list holding the audit trail, newest first.
const AuditoriaKey = "auditoria:eventos"

// auditoriaMaxEntries caps the trail; older entries are trimmed away.
const auditoriaMaxEntries = 10000

// AuditoriaJobPayload is the job envelope sent to QueueAuditoria.
type AuditoriaJobPayload struct {
	Evento       string `json:"evento"` // e.g. "cierre_admin"
	EmpresaID    string `json:"empresa_id"`
	SesionCajaID string `json:"sesion_caja_id,omitempty"`
	UsuarioID    string `json:"usuario_id"` // the admin who acted
	Detalle      string `json:"detalle"`
	OcurridoEn   string `json:"ocurrido_en"` // ISO 8601, set by the worker
}

// AuditoriaWorker appends audit events to a capped Redis list and mirrors
// them into the structured log.
type AuditoriaWorker struct {
	rdb *redis.Client
}

func NewAuditoriaWorker(rdb *redis.Client) *AuditoriaWorker {
	return &AuditoriaWorker{rdb: rdb}
}

func (w *AuditoriaWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload AuditoriaJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("auditoria_worker: invalid payload")
		return
	}
	payload.OcurridoEn = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("auditoria_worker: marshal failed")
		return
	}

	pipe := w.rdb.TxPipeline()
	pipe.LPush(ctx, AuditoriaKey, data)
	pipe.LTrim(ctx, AuditoriaKey, 0, auditoriaMaxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Msg("auditoria_worker: failed to persist event")
		return
	}

	log.Info().
		Str("evento", payload.Evento).
		Str("empresa_id", payload.EmpresaID).
		Str("sesion_caja_id", payload.SesionCajaID).
		Str("usuario_id", payload.UsuarioID).
		Str("detalle", payload.Detalle).
		Msg("auditoria: evento registrado")
}
