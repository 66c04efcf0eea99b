package worker

// Dead-letter trail for electronic emissions the retry cron gave up on.
// One Redis list, newest first. Entries keep the comprobante's identity so
// an operator can re-enqueue the job by hand after fixing the cause.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

// DLQEmision is the Redis list holding exhausted emission attempts.
const DLQEmision = "dlq:" + QueueEmision

// ComprobanteMuerto is the dead-letter record for an emission whose retries
// ran out. The venta itself is long committed; only the electronic copy is
// stuck and needs operator attention.
type ComprobanteMuerto struct {
	ComprobanteID string `json:"comprobante_id"`
	VentaID       string `json:"venta_id"`
	EmpresaID     string `json:"empresa_id"`
	Numero        string `json:"numero"`
	Motivo        string `json:"motivo"`
	Intentos      int    `json:"intentos"`
	FallidoEn     string `json:"fallido_en"` // RFC 3339
}

func nuevoComprobanteMuerto(comp *model.ComprobanteElectronico, motivo string) ComprobanteMuerto {
	return ComprobanteMuerto{
		ComprobanteID: comp.ID.String(),
		VentaID:       comp.VentaID.String(),
		EmpresaID:     comp.EmpresaID.String(),
		Numero:        fmt.Sprintf("%s-%08d", comp.Serie, comp.Correlativo),
		Motivo:        motivo,
		Intentos:      comp.RetryCount,
		FallidoEn:     time.Now().UTC().Format(time.RFC3339),
	}
}

// MoverADLQ appends the exhausted comprobante to the emission dead-letter
// list. Failures here are logged and swallowed: the comprobante row already
// carries estado="error", the DLQ is the operator-facing copy.
func (d *Dispatcher) MoverADLQ(ctx context.Context, comp *model.ComprobanteElectronico, motivo string) {
	muerto := nuevoComprobanteMuerto(comp, motivo)
	data, err := json.Marshal(muerto)
	if err != nil {
		log.Error().Err(err).Str("comprobante_id", muerto.ComprobanteID).Msg("dlq: marshal failed")
		return
	}
	if err := d.rdb.LPush(ctx, DLQEmision, data).Err(); err != nil {
		log.Error().Err(err).Str("comprobante_id", muerto.ComprobanteID).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("comprobante_id", muerto.ComprobanteID).
		Str("numero", muerto.Numero).
		Str("motivo", motivo).
		Int("intentos", muerto.Intentos).
		Msg("dlq: comprobante enterrado")
}

// DLQEmisionLen reports the dead-letter backlog for monitoring.
func (d *Dispatcher) DLQEmisionLen(ctx context.Context) (int64, error) {
	return d.rdb.LLen(ctx, DLQEmision).Result()
}
