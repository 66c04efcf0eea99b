package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

// ── In-memory repositories ───────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, empresaID, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok || v.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) UpdateMetodoPago(_ context.Context, empresaID, id uuid.UUID, metodo string) (int64, error) {
	v, ok := r.ventas[id]
	if !ok || v.EmpresaID != empresaID || v.Estado != "emitida" {
		return 0, nil
	}
	v.MetodoPago = metodo
	return 1, nil
}

func (r *stubVentaRepo) List(_ context.Context, empresaID uuid.UUID, filter repository.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if v.EmpresaID != empresaID {
			continue
		}
		if filter.Estado != "" && filter.Estado != "all" && v.Estado != filter.Estado {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

type stubSerieRepo struct {
	series map[uuid.UUID]*model.SerieComprobante
}

func newStubSerieRepo() *stubSerieRepo {
	return &stubSerieRepo{series: make(map[uuid.UUID]*model.SerieComprobante)}
}

func (r *stubSerieRepo) add(s *model.SerieComprobante) *model.SerieComprobante {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Activo = true
	r.series[s.ID] = s
	return s
}

func (r *stubSerieRepo) FindActivaTx(_ *gorm.DB, empresaID uuid.UUID, tipo fiscal.TipoComprobante, cajaID uuid.UUID) (*model.SerieComprobante, error) {
	var fallback *model.SerieComprobante
	for _, s := range r.series {
		if s.EmpresaID != empresaID || s.Tipo != tipo || !s.Activo {
			continue
		}
		if s.CajaID != nil && *s.CajaID == cajaID {
			return s, nil
		}
		if s.CajaID == nil {
			fallback = s
		}
	}
	if fallback == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return fallback, nil
}

func (r *stubSerieRepo) SiguienteCorrelativoTx(_ *gorm.DB, serieID uuid.UUID) (int64, error) {
	s, ok := r.series[serieID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	s.CorrelativoActual++
	return s.CorrelativoActual, nil
}

func (r *stubSerieRepo) Create(_ context.Context, s *model.SerieComprobante) error {
	r.add(s)
	return nil
}

func (r *stubSerieRepo) ListByEmpresa(_ context.Context, empresaID uuid.UUID) ([]model.SerieComprobante, error) {
	var out []model.SerieComprobante
	for _, s := range r.series {
		if s.EmpresaID == empresaID {
			out = append(out, *s)
		}
	}
	return out, nil
}

var _ repository.SerieRepository = (*stubSerieRepo)(nil)

type stubProductoRepo struct {
	productos   map[uuid.UUID]*model.Producto
	movimientos []model.MovimientoStock
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, empresaID, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(nil, empresaID, id)
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, empresaID, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok || p.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductoRepo) DescontarStockTx(_ *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, bool, error) {
	p, ok := r.productos[id]
	if !ok || p.EmpresaID != empresaID || p.StockActual < cantidad {
		return 0, false, nil
	}
	p.StockActual -= cantidad
	return p.StockActual, true, nil
}

func (r *stubProductoRepo) IncrementarStockTx(_ *gorm.DB, empresaID, id uuid.UUID, cantidad int) (int, error) {
	p, ok := r.productos[id]
	if !ok || p.EmpresaID != empresaID {
		return 0, gorm.ErrRecordNotFound
	}
	p.StockActual += cantidad
	return p.StockActual, nil
}

func (r *stubProductoRepo) CrearMovimientoTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubProductoRepo) ListMovimientos(_ context.Context, empresaID, productoID uuid.UUID) ([]model.MovimientoStock, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if m.EmpresaID == empresaID && m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out, nil
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) FindByIDTx(_ *gorm.DB, empresaID, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok || c.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClienteRepo) FindByID(ctx context.Context, empresaID, id uuid.UUID) (*model.Cliente, error) {
	return r.FindByIDTx(nil, empresaID, id)
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

type stubEmpresaRepo struct {
	empresas map[uuid.UUID]*model.Empresa
}

func newStubEmpresaRepo() *stubEmpresaRepo {
	return &stubEmpresaRepo{empresas: make(map[uuid.UUID]*model.Empresa)}
}

func (r *stubEmpresaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Empresa, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubEmpresaRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Empresa, error) {
	e, ok := r.empresas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *stubEmpresaRepo) Create(_ context.Context, e *model.Empresa) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.empresas[e.ID] = e
	return nil
}

var _ repository.EmpresaRepository = (*stubEmpresaRepo)(nil)

// ── Fixture ──────────────────────────────────────────────────────────────────

type ventaFixture struct {
	svc       service.VentaService
	ventas    *stubVentaRepo
	series    *stubSerieRepo
	cajas     *stubCajaRepo
	productos *stubProductoRepo
	clientes  *stubClienteRepo
	empresas  *stubEmpresaRepo

	empresaID uuid.UUID
	usuarioID uuid.UUID
	cajaID    uuid.UUID
	sesionID  uuid.UUID

	serieBoleta  *model.SerieComprobante
	serieFactura *model.SerieComprobante
}

func newVentaFixture(t *testing.T) *ventaFixture {
	t.Helper()
	f := &ventaFixture{
		ventas:    newStubVentaRepo(),
		series:    newStubSerieRepo(),
		cajas:     newStubCajaRepo(),
		productos: newStubProductoRepo(),
		clientes:  newStubClienteRepo(),
		empresas:  newStubEmpresaRepo(),
		empresaID: uuid.New(),
		usuarioID: uuid.New(),
		cajaID:    uuid.New(),
	}

	require.NoError(t, f.empresas.Create(context.Background(), &model.Empresa{
		ID:           f.empresaID,
		RazonSocial:  "Ferretería El Tornillo SAC",
		RUC:          "20123456789",
		TasaImpuesto: decimal.NewFromInt(18),
	}))

	sesion := &model.SesionCaja{
		EmpresaID:     f.empresaID,
		CajaID:        f.cajaID,
		UsuarioID:     f.usuarioID,
		MontoApertura: decimal.NewFromInt(100),
		FechaApertura: time.Now(),
		Estado:        "abierta",
	}
	require.NoError(t, f.cajas.CreateSesionTx(nil, sesion))
	f.sesionID = sesion.ID

	f.serieBoleta = f.series.add(&model.SerieComprobante{
		EmpresaID: f.empresaID, Tipo: fiscal.ComprobanteBoleta, Codigo: "B001",
	})
	f.serieFactura = f.series.add(&model.SerieComprobante{
		EmpresaID: f.empresaID, Tipo: fiscal.ComprobanteFactura, Codigo: "F001",
	})

	f.svc = service.NewVentaService(f.ventas, f.series, f.cajas, f.productos, f.clientes, f.empresas, nil)
	return f
}

func (f *ventaFixture) addProducto(t *testing.T, nombre string, precio float64, stock int, afectacion fiscal.AfectacionIGV) *model.Producto {
	t.Helper()
	p := &model.Producto{
		EmpresaID:   f.empresaID,
		Nombre:      nombre,
		PrecioVenta: decimal.NewFromFloat(precio),
		StockActual: stock,
		Afectacion:  afectacion,
		Activo:      true,
	}
	require.NoError(t, f.productos.Create(context.Background(), p))
	return p
}

func (f *ventaFixture) registrar(req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if req.SesionCajaID == "" {
		req.SesionCajaID = f.sesionID.String()
	}
	if req.MetodoPago == "" {
		req.MetodoPago = "efectivo"
	}
	return f.svc.RegistrarVenta(context.Background(), f.empresaID, f.usuarioID, req)
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestRegistrarVentaBoleta(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Martillo", 118.00, 10, fiscal.AfectacionGravado)

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(118.00)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "boleta", resp.TipoComprobante)
	assert.Equal(t, "B001-00000001", resp.Numero)
	assert.Equal(t, int64(1), resp.Correlativo)
	assert.Equal(t, "100", resp.SubtotalBase.String())
	assert.Equal(t, "18", resp.Impuesto.String())
	assert.Equal(t, "118", resp.Total.String())
	assert.Equal(t, "emitida", resp.Estado)

	// Stock decremented, ledger row written inside the same flow.
	assert.Equal(t, 9, f.productos.productos[p.ID].StockActual)
	require.Len(t, f.productos.movimientos, 1)
	assert.Equal(t, "venta", f.productos.movimientos[0].Tipo)
	assert.Equal(t, -1, f.productos.movimientos[0].Cantidad)
}

func TestRegistrarVentaFacturaConRUC(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Taladro", 590.00, 5, fiscal.AfectacionGravado)

	ruc := "20987654321"
	cliente := &model.Cliente{
		EmpresaID:       f.empresaID,
		Nombre:          "Constructora Andes SAC",
		TipoDocumento:   "ruc",
		NumeroDocumento: ruc,
		RUC:             &ruc,
	}
	require.NoError(t, f.clientes.Create(context.Background(), cliente))
	clienteID := cliente.ID.String()

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		ClienteID: &clienteID,
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(590.00)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "factura", resp.TipoComprobante)
	assert.Equal(t, "F001-00000001", resp.Numero)
	assert.Equal(t, "500", resp.SubtotalBase.String())
	assert.Equal(t, "90", resp.Impuesto.String())
}

func TestRegistrarVentaFacturaSinRUC(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Clavos", 10.00, 100, fiscal.AfectacionGravado)

	cliente := &model.Cliente{
		EmpresaID:       f.empresaID,
		Nombre:          "Juan Pérez",
		TipoDocumento:   "dni",
		NumeroDocumento: "45678912",
	}
	require.NoError(t, f.clientes.Create(context.Background(), cliente))
	clienteID := cliente.ID.String()

	_, err := f.registrar(dto.RegistrarVentaRequest{
		ClienteID:       &clienteID,
		TipoComprobante: "factura",
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 2, PrecioUnitario: decimal.NewFromFloat(10.00)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, "factura_requiere_ruc", apierror.FromErr(err).Code)

	// Nothing moved.
	assert.Equal(t, 100, f.productos.productos[p.ID].StockActual)
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVentaStockInsuficiente(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Cemento", 35.00, 3, fiscal.AfectacionGravado)

	_, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 5, PrecioUnitario: decimal.NewFromFloat(35.00)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, "stock_insuficiente", apierror.FromErr(err).Code)
	assert.Contains(t, apierror.FromErr(err).Detail, "Cemento")

	assert.Equal(t, 3, f.productos.productos[p.ID].StockActual)
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVentaSesionCerrada(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Lija", 2.50, 50, fiscal.AfectacionGravado)
	f.cajas.sesiones[f.sesionID].Estado = "cerrada"

	_, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(2.50)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, "caja_no_abierta", apierror.FromErr(err).Code)
}

func TestRegistrarVentaSerieNoConfigurada(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Pintura", 45.00, 8, fiscal.AfectacionGravado)

	// No nota_venta serie exists for this tenant.
	_, err := f.registrar(dto.RegistrarVentaRequest{
		TipoComprobante: "nota_venta",
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(45.00)},
		},
	})
	require.Error(t, err)
	assert.Equal(t, "serie_no_configurada", apierror.FromErr(err).Code)
	assert.True(t, apierror.IsKind(err, apierror.KindConfigMissing))
}

func TestRegistrarVentaMixtaGravadoExonerado(t *testing.T) {
	f := newVentaFixture(t)
	gravado := f.addProducto(t, "Alambre", 118.00, 10, fiscal.AfectacionGravado)
	exonerado := f.addProducto(t, "Semillas", 50.00, 10, fiscal.AfectacionExonerado)

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: gravado.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(118.00)},
			{ProductoID: exonerado.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(50.00)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "150", resp.SubtotalBase.String())
	assert.Equal(t, "18", resp.Impuesto.String())
	assert.Equal(t, "168", resp.Total.String())

	// The exonerated line froze a zero rate.
	assert.True(t, resp.Items[1].TasaAplicada.IsZero())
	assert.True(t, resp.Items[1].Impuesto.IsZero())
}

func TestRegistrarVentaEmpresaExonerada(t *testing.T) {
	f := newVentaFixture(t)
	f.empresas.empresas[f.empresaID].ExoneradaRegion = true
	p := f.addProducto(t, "Machete", 80.00, 4, fiscal.AfectacionGravado)

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(80.00)},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Impuesto.IsZero())
	assert.Equal(t, "80", resp.SubtotalBase.String())
	assert.Equal(t, "80", resp.Total.String())
}

func TestCorrelativosSecuenciales(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Tornillo", 1.00, 100, fiscal.AfectacionGravado)

	for i := int64(1); i <= 3; i++ {
		resp, err := f.registrar(dto.RegistrarVentaRequest{
			Items: []dto.ItemVentaRequest{
				{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(1.00)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, i, resp.Correlativo)
	}
}

func TestSnapshotNoSeRecalcula(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Soga", 118.00, 10, fiscal.AfectacionGravado)

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(118.00)},
		},
	})
	require.NoError(t, err)

	// Tenant rate changes after the sale; the stored document must not move.
	f.empresas.empresas[f.empresaID].TasaImpuesto = decimal.NewFromInt(10)

	stored, err := f.svc.ObtenerVenta(context.Background(), f.empresaID, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, "18", stored.Impuesto.String())
	assert.Equal(t, "18", stored.Items[0].TasaAplicada.String())
}

func TestActualizarMetodoPago(t *testing.T) {
	f := newVentaFixture(t)
	p := f.addProducto(t, "Brocha", 12.00, 10, fiscal.AfectacionGravado)

	resp, err := f.registrar(dto.RegistrarVentaRequest{
		MetodoPago: "efectivo",
		Items: []dto.ItemVentaRequest{
			{ProductoID: p.ID.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromFloat(12.00)},
		},
	})
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	updated, err := f.svc.ActualizarMetodoPago(context.Background(), f.empresaID, ventaID, "yape")
	require.NoError(t, err)
	assert.Equal(t, "yape", updated.MetodoPago)
	// The fiscal identity is untouched.
	assert.Equal(t, resp.Numero, updated.Numero)
	assert.Equal(t, resp.Total.String(), updated.Total.String())

	// An annulled venta rejects the correction.
	f.ventas.ventas[ventaID].Estado = "anulada"
	_, err = f.svc.ActualizarMetodoPago(context.Background(), f.empresaID, ventaID, "tarjeta")
	require.Error(t, err)
	assert.Equal(t, "venta_anulada", apierror.FromErr(err).Code)
}
