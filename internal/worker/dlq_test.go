package worker

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
)

func TestNuevoComprobanteMuerto(t *testing.T) {
	comp := &model.ComprobanteElectronico{
		ID:          uuid.New(),
		EmpresaID:   uuid.New(),
		VentaID:     uuid.New(),
		Serie:       "B001",
		Correlativo: 42,
		RetryCount:  5,
	}

	muerto := nuevoComprobanteMuerto(comp, "max retries (5) exceeded: timeout")

	assert.Equal(t, comp.ID.String(), muerto.ComprobanteID)
	assert.Equal(t, comp.VentaID.String(), muerto.VentaID)
	assert.Equal(t, comp.EmpresaID.String(), muerto.EmpresaID)
	assert.Equal(t, "B001-00000042", muerto.Numero)
	assert.Equal(t, "max retries (5) exceeded: timeout", muerto.Motivo)
	assert.Equal(t, 5, muerto.Intentos)

	fallido, err := time.Parse(time.RFC3339, muerto.FallidoEn)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), fallido, 5*time.Second)
}
