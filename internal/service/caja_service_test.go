package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

// ── Full in-memory CajaRepository ────────────────────────────────────────────

type stubCajaRepo struct {
	cajas       map[uuid.UUID]*model.Caja
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
	// ventasEmitidas holds the committed sale totals per session, the way
	// SumVentasTx would aggregate them from the ventas table.
	ventasEmitidas map[uuid.UUID][]decimal.Decimal
}

func newStubCajaRepo() *stubCajaRepo {
	return &stubCajaRepo{
		cajas:          make(map[uuid.UUID]*model.Caja),
		sesiones:       make(map[uuid.UUID]*model.SesionCaja),
		ventasEmitidas: make(map[uuid.UUID][]decimal.Decimal),
	}
}

func (r *stubCajaRepo) DB() *gorm.DB { return nil }

func (r *stubCajaRepo) FindCaja(_ context.Context, empresaID, id uuid.UUID) (*model.Caja, error) {
	c, ok := r.cajas[id]
	if !ok || c.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCajaRepo) CreateCaja(_ context.Context, c *model.Caja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cajas[c.ID] = c
	return nil
}

func (r *stubCajaRepo) FindSesionAbiertaPorCajaTx(_ *gorm.DB, empresaID, cajaID uuid.UUID) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.EmpresaID == empresaID && s.CajaID == cajaID && s.Estado == "abierta" {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) FindSesionAbiertaPorUsuarioTx(_ *gorm.DB, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.EmpresaID == empresaID && s.UsuarioID == usuarioID && s.Estado == "abierta" {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCajaRepo) CreateSesionTx(_ *gorm.DB, s *model.SesionCaja) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sesiones[s.ID] = s
	return nil
}

func (r *stubCajaRepo) FindSesionByID(_ context.Context, empresaID, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.sesiones[id]
	if !ok || s.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	s.Movimientos = nil
	for _, m := range r.movimientos {
		if m.SesionCajaID == id {
			s.Movimientos = append(s.Movimientos, m)
		}
	}
	return s, nil
}

func (r *stubCajaRepo) FindSesionByIDTx(_ *gorm.DB, empresaID, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.sesiones[id]
	if !ok || s.EmpresaID != empresaID {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubCajaRepo) FindSesionAbiertaPorUsuario(_ context.Context, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	return r.FindSesionAbiertaPorUsuarioTx(nil, empresaID, usuarioID)
}

func (r *stubCajaRepo) UpdateSesionTx(_ *gorm.DB, s *model.SesionCaja) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *stubCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	return r.CreateMovimientoTx(nil, m)
}

func (r *stubCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubCajaRepo) ListMovimientos(_ context.Context, sesionID uuid.UUID) ([]model.MovimientoCaja, error) {
	var result []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *stubCajaRepo) SumMovimientosTx(_ *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, m := range r.movimientos {
		if m.SesionCajaID != sesionID {
			continue
		}
		switch m.Tipo {
		case "ingreso":
			ingresos = ingresos.Add(m.Monto)
		case "egreso":
			egresos = egresos.Add(m.Monto)
		}
	}
	return ingresos, egresos, nil
}

func (r *stubCajaRepo) SumVentasTx(_ *gorm.DB, sesionID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range r.ventasEmitidas[sesionID] {
		total = total.Add(v)
	}
	return total, nil
}

var _ repository.CajaRepository = (*stubCajaRepo)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func abrir(t *testing.T, svc service.CajaService, empresaID, usuarioID, cajaID uuid.UUID, monto float64) *dto.SesionCajaResponse {
	t.Helper()
	resp, err := svc.AbrirSesion(context.Background(), empresaID, usuarioID, dto.AbrirCajaRequest{
		CajaID:        cajaID.String(),
		MontoApertura: decimal.NewFromFloat(monto),
	})
	require.NoError(t, err)
	return resp
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAbrirSesion(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()

	resp := abrir(t, svc, empresaID, uuid.New(), uuid.New(), 100)

	assert.Equal(t, "abierta", resp.Estado)
	assert.Equal(t, decimal.NewFromInt(100).String(), resp.MontoApertura.String())
	assert.Nil(t, resp.MontoCierre)
}

func TestAbrirSesionCajaOcupada(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	cajaID := uuid.New()

	primera := abrir(t, svc, empresaID, uuid.New(), cajaID, 100)
	// Attach the occupying cashier so the rejection can name them.
	repo.sesiones[uuid.MustParse(primera.ID)].Usuario = &model.Usuario{Nombre: "María"}

	_, err := svc.AbrirSesion(context.Background(), empresaID, uuid.New(), dto.AbrirCajaRequest{
		CajaID:        cajaID.String(),
		MontoApertura: decimal.NewFromInt(50),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.Equal(t, "caja_ocupada", apierror.FromErr(err).Code)
	assert.Contains(t, apierror.FromErr(err).Detail, "María")
}

func TestAbrirSesionUsuarioYaAbierta(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	usuarioID := uuid.New()

	abrir(t, svc, empresaID, usuarioID, uuid.New(), 100)

	// Same cashier, a different caja: still rejected.
	_, err := svc.AbrirSesion(context.Background(), empresaID, usuarioID, dto.AbrirCajaRequest{
		CajaID:        uuid.New().String(),
		MontoApertura: decimal.NewFromInt(80),
	})
	require.Error(t, err)
	assert.Equal(t, "sesion_ya_abierta", apierror.FromErr(err).Code)
}

func TestAbrirSesionMontoNegativo(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)

	_, err := svc.AbrirSesion(context.Background(), uuid.New(), uuid.New(), dto.AbrirCajaRequest{
		CajaID:        uuid.New().String(),
		MontoApertura: decimal.NewFromInt(-10),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindValidation))
}

func TestCerrarSesionCuadrada(t *testing.T) {
	// expected = 100 (apertura) + 380 (ventas) − 30 (egreso) = 450
	// counted 450 → diferencia exactly 0
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	usuarioID := uuid.New()

	resp := abrir(t, svc, empresaID, usuarioID, uuid.New(), 100)
	sesionID := uuid.MustParse(resp.ID)

	repo.ventasEmitidas[sesionID] = []decimal.Decimal{decimal.NewFromInt(380)}
	require.NoError(t, svc.RegistrarMovimiento(context.Background(), empresaID, dto.MovimientoManualRequest{
		SesionCajaID: sesionID.String(),
		Tipo:         "egreso",
		Monto:        decimal.NewFromInt(30),
		Descripcion:  "Pago de flete",
	}))

	cierre, err := svc.CerrarSesion(context.Background(), empresaID, usuarioID, sesionID, dto.CerrarCajaRequest{
		MontoCierre: decimal.NewFromInt(450),
	})
	require.NoError(t, err)
	assert.Equal(t, "cerrada", cierre.Estado)
	require.NotNil(t, cierre.Diferencia)
	assert.True(t, cierre.Diferencia.IsZero(), "diferencia = %s", cierre.Diferencia)
	assert.Equal(t, "380", cierre.TotalVentas.String())
	assert.Equal(t, "30", cierre.TotalEgresos.String())
}

func TestCerrarSesionConFaltante(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	usuarioID := uuid.New()

	resp := abrir(t, svc, empresaID, usuarioID, uuid.New(), 200)
	sesionID := uuid.MustParse(resp.ID)
	repo.ventasEmitidas[sesionID] = []decimal.Decimal{decimal.NewFromInt(100)}

	// expected 300, counted 280 → diferencia -20
	cierre, err := svc.CerrarSesion(context.Background(), empresaID, usuarioID, sesionID, dto.CerrarCajaRequest{
		MontoCierre: decimal.NewFromInt(280),
	})
	require.NoError(t, err)
	assert.Equal(t, "-20", cierre.Diferencia.String())
}

func TestCerrarSesionAjena(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()

	resp := abrir(t, svc, empresaID, uuid.New(), uuid.New(), 100)

	// Another cashier closing the session gets the same answer as a bogus id.
	_, err := svc.CerrarSesion(context.Background(), empresaID, uuid.New(), uuid.MustParse(resp.ID), dto.CerrarCajaRequest{
		MontoCierre: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
	assert.Equal(t, "sesion_no_encontrada", apierror.FromErr(err).Code)
	assert.Equal(t, "abierta", repo.sesiones[uuid.MustParse(resp.ID)].Estado)
}

func TestCerrarSesionYaCerrada(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	usuarioID := uuid.New()

	resp := abrir(t, svc, empresaID, usuarioID, uuid.New(), 100)
	sesionID := uuid.MustParse(resp.ID)

	_, err := svc.CerrarSesion(context.Background(), empresaID, usuarioID, sesionID, dto.CerrarCajaRequest{MontoCierre: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = svc.CerrarSesion(context.Background(), empresaID, usuarioID, sesionID, dto.CerrarCajaRequest{MontoCierre: decimal.NewFromInt(100)})
	require.Error(t, err)
	assert.Equal(t, "sesion_cerrada", apierror.FromErr(err).Code)
}

func TestCierreAdmin(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	adminID := uuid.New()

	resp := abrir(t, svc, empresaID, uuid.New(), uuid.New(), 150)
	sesionID := uuid.MustParse(resp.ID)

	cierre, err := svc.CerrarSesionAdmin(context.Background(), empresaID, adminID, sesionID, dto.CierreAdminRequest{
		MontoCierre: decimal.NewFromInt(150),
		Motivo:      "Cajero se retiró sin cerrar turno",
	})
	require.NoError(t, err)
	assert.Equal(t, "cerrada", cierre.Estado)
	require.NotNil(t, cierre.MotivoCierre)
	assert.Equal(t, "Cajero se retiró sin cerrar turno", *cierre.MotivoCierre)

	sesion := repo.sesiones[sesionID]
	require.NotNil(t, sesion.CerradaPor)
	assert.Equal(t, adminID, *sesion.CerradaPor)
}

func TestMovimientoEnSesionCerrada(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	empresaID := uuid.New()
	usuarioID := uuid.New()

	resp := abrir(t, svc, empresaID, usuarioID, uuid.New(), 100)
	sesionID := uuid.MustParse(resp.ID)
	_, err := svc.CerrarSesion(context.Background(), empresaID, usuarioID, sesionID, dto.CerrarCajaRequest{MontoCierre: decimal.NewFromInt(100)})
	require.NoError(t, err)

	err = svc.RegistrarMovimiento(context.Background(), empresaID, dto.MovimientoManualRequest{
		SesionCajaID: sesionID.String(),
		Tipo:         "ingreso",
		Monto:        decimal.NewFromInt(10),
		Descripcion:  "Fondo extra",
	})
	require.Error(t, err)
	assert.Equal(t, "sesion_cerrada", apierror.FromErr(err).Code)
	assert.Empty(t, repo.movimientos)
}

// cajaRepoConFalla injects storage failures into specific methods while
// delegating the rest to the in-memory repo.
type cajaRepoConFalla struct {
	*stubCajaRepo
	errBuscarPorUsuario error
	errCrearSesion      error
}

func (r *cajaRepoConFalla) FindSesionAbiertaPorUsuarioTx(tx *gorm.DB, empresaID, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	if r.errBuscarPorUsuario != nil {
		return nil, r.errBuscarPorUsuario
	}
	return r.stubCajaRepo.FindSesionAbiertaPorUsuarioTx(tx, empresaID, usuarioID)
}

func (r *cajaRepoConFalla) CreateSesionTx(tx *gorm.DB, s *model.SesionCaja) error {
	if r.errCrearSesion != nil {
		return r.errCrearSesion
	}
	return r.stubCajaRepo.CreateSesionTx(tx, s)
}

func TestAbrirSesionFalloDeAlmacen(t *testing.T) {
	// A transient storage failure during the occupancy check must surface as
	// an internal error, never read as "no conflict, proceed".
	repo := &cajaRepoConFalla{
		stubCajaRepo:        newStubCajaRepo(),
		errBuscarPorUsuario: errors.New("read tcp: connection reset by peer"),
	}
	svc := service.NewCajaService(repo, nil)

	_, err := svc.AbrirSesion(context.Background(), uuid.New(), uuid.New(), dto.AbrirCajaRequest{
		CajaID:        uuid.NewString(),
		MontoApertura: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInternal))
	assert.Empty(t, repo.sesiones)
}

func TestAbrirSesionCarreraContraIndice(t *testing.T) {
	// Two opens race past the guards; the partial unique index rejects the
	// loser, which the service reports as the same conflict the guard gives.
	repo := &cajaRepoConFalla{
		stubCajaRepo:   newStubCajaRepo(),
		errCrearSesion: gorm.ErrDuplicatedKey,
	}
	svc := service.NewCajaService(repo, nil)

	_, err := svc.AbrirSesion(context.Background(), uuid.New(), uuid.New(), dto.AbrirCajaRequest{
		CajaID:        uuid.NewString(),
		MontoApertura: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.Equal(t, "caja_ocupada", apierror.FromErr(err).Code)
}

func TestSesionDeOtraEmpresaInvisible(t *testing.T) {
	repo := newStubCajaRepo()
	svc := service.NewCajaService(repo, nil)
	usuarioID := uuid.New()

	resp := abrir(t, svc, uuid.New(), usuarioID, uuid.New(), 100)

	// A different tenant asking for the same session ID gets a 404, not a leak.
	_, err := svc.ObtenerSesion(context.Background(), uuid.New(), uuid.MustParse(resp.ID))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}
