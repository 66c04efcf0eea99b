package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

func TestAjustarStockEntrada(t *testing.T) {
	productos := newStubProductoRepo()
	empresaID := uuid.New()
	p := &model.Producto{
		EmpresaID:   empresaID,
		Nombre:      "Candado 60mm",
		StockActual: 7,
		Afectacion:  fiscal.AfectacionGravado,
		Activo:      true,
	}
	require.NoError(t, productos.Create(context.Background(), p))

	svc := service.NewInventarioService(productos)
	resp, err := svc.AjustarStock(context.Background(), empresaID, uuid.New(), dto.AjusteStockRequest{
		ProductoID: p.ID.String(),
		Cantidad:   3,
		Motivo:     "conteo físico de fin de mes",
	})
	require.NoError(t, err)

	assert.Equal(t, "ajuste_manual", resp.Tipo)
	assert.Equal(t, 3, resp.Cantidad)
	assert.Equal(t, 7, resp.StockAnterior)
	assert.Equal(t, 10, resp.StockNuevo)
	assert.Equal(t, 10, productos.productos[p.ID].StockActual)
}

func TestAjustarStockSalidaInsuficiente(t *testing.T) {
	productos := newStubProductoRepo()
	empresaID := uuid.New()
	p := &model.Producto{
		EmpresaID:   empresaID,
		Nombre:      "Llave Stilson",
		StockActual: 2,
		Afectacion:  fiscal.AfectacionGravado,
		Activo:      true,
	}
	require.NoError(t, productos.Create(context.Background(), p))

	svc := service.NewInventarioService(productos)
	_, err := svc.AjustarStock(context.Background(), empresaID, uuid.New(), dto.AjusteStockRequest{
		ProductoID: p.ID.String(),
		Cantidad:   -5,
		Motivo:     "merma detectada en almacén",
	})
	require.Error(t, err)
	assert.Equal(t, "stock_insuficiente", apierror.FromErr(err).Code)

	// Guard rejected before anything moved.
	assert.Equal(t, 2, productos.productos[p.ID].StockActual)
	assert.Empty(t, productos.movimientos)
}

func TestAjustarStockCantidadCero(t *testing.T) {
	svc := service.NewInventarioService(newStubProductoRepo())
	_, err := svc.AjustarStock(context.Background(), uuid.New(), uuid.New(), dto.AjusteStockRequest{
		ProductoID: uuid.NewString(),
		Cantidad:   0,
		Motivo:     "ajuste sin sentido",
	})
	require.Error(t, err)
	assert.Equal(t, "cantidad_invalida", apierror.FromErr(err).Code)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}
