package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
	"github.com/xzero11x/ferreteria-api-sub000/internal/worker"
)

type CajaService interface {
	AbrirSesion(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	CerrarSesion(ctx context.Context, empresaID, usuarioID, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error)
	CerrarSesionAdmin(ctx context.Context, empresaID, adminID, sesionID uuid.UUID, req dto.CierreAdminRequest) (*dto.SesionCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, empresaID uuid.UUID, req dto.MovimientoManualRequest) error
	SesionActiva(ctx context.Context, empresaID, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error)
	ObtenerSesion(ctx context.Context, empresaID, sesionID uuid.UUID) (*dto.SesionCajaResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	dispatcher *worker.Dispatcher
}

func NewCajaService(repo repository.CajaRepository, dispatcher *worker.Dispatcher) CajaService {
	return &cajaService{repo: repo, dispatcher: dispatcher}
}

// ── AbrirSesion ───────────────────────────────────────────────────────────────
// Both guards and the insert run inside one transaction: a caja can hold at
// most one open session, and a cashier can hold at most one open session,
// across any caja of the empresa. The partial unique indexes back this up
// at the storage layer for the race the checks cannot see.

func (s *cajaService) AbrirSesion(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, apierror.Validation("caja_id_invalido", "caja_id inválido")
	}
	if req.MontoApertura.IsNegative() {
		return nil, apierror.Validation("monto_invalido", "el monto de apertura no puede ser negativo")
	}

	var sesion *model.SesionCaja
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		propia, err := s.repo.FindSesionAbiertaPorUsuarioTx(tx, empresaID, usuarioID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if propia != nil {
			return apierror.Conflict("sesion_ya_abierta", "ya tienes una sesión de caja abierta")
		}
		ocupada, err := s.repo.FindSesionAbiertaPorCajaTx(tx, empresaID, cajaID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if ocupada != nil {
			ocupante := "otro cajero"
			if ocupada.Usuario != nil {
				ocupante = ocupada.Usuario.Nombre
			}
			return apierror.Conflict("caja_ocupada", fmt.Sprintf("la caja ya tiene una sesión abierta por %s", ocupante))
		}

		sesion = &model.SesionCaja{
			EmpresaID:     empresaID,
			CajaID:        cajaID,
			UsuarioID:     usuarioID,
			MontoApertura: req.MontoApertura,
			FechaApertura: time.Now(),
			Estado:        "abierta",
		}
		if err := s.repo.CreateSesionTx(tx, sesion); err != nil {
			// A concurrent open slipped past both guards and lost the race to
			// the partial unique index. Same outcome as losing the check.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Conflict("caja_ocupada", "la caja o el cajero ya tiene una sesión de caja abierta")
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, apierror.FromErr(txErr)
	}
	return sesionToResponse(sesion, nil), nil
}

// ── Cierre ────────────────────────────────────────────────────────────────────
// expected = apertura + Σ ventas emitidas + Σ ingresos − Σ egresos
// diferencia = monto contado − expected
// The sums, the state check and the single closing update share one
// transaction, so a sale committing mid-close can never be half-counted.

func (s *cajaService) CerrarSesion(ctx context.Context, empresaID, usuarioID, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.SesionCajaResponse, error) {
	return s.cerrar(ctx, empresaID, sesionID, req.MontoCierre, &usuarioID, nil, nil)
}

// CerrarSesionAdmin closes any open session of the tenant regardless of who
// opened it. The motivo is mandatory and lands in the audit trail.
func (s *cajaService) CerrarSesionAdmin(ctx context.Context, empresaID, adminID, sesionID uuid.UUID, req dto.CierreAdminRequest) (*dto.SesionCajaResponse, error) {
	resp, err := s.cerrar(ctx, empresaID, sesionID, req.MontoCierre, nil, &adminID, &req.Motivo)
	if err != nil {
		return nil, err
	}

	// Fire and forget: the close already committed, the audit sink catches up.
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueAuditoria(ctx, worker.AuditoriaJobPayload{
			Evento:       "cierre_admin",
			EmpresaID:    empresaID.String(),
			SesionCajaID: sesionID.String(),
			UsuarioID:    adminID.String(),
			Detalle:      req.Motivo,
		})
	}
	return resp, nil
}

func (s *cajaService) cerrar(ctx context.Context, empresaID, sesionID uuid.UUID, montoCierre decimal.Decimal, propietario, cerradaPor *uuid.UUID, motivo *string) (*dto.SesionCajaResponse, error) {
	if montoCierre.IsNegative() {
		return nil, apierror.Validation("monto_invalido", "el monto de cierre no puede ser negativo")
	}

	var sesion *model.SesionCaja
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.repo.FindSesionByIDTx(tx, empresaID, sesionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("sesion_no_encontrada", "sesión de caja no encontrada")
			}
			return err
		}
		if sesion.Estado != "abierta" {
			return apierror.Conflict("sesion_cerrada", "la sesión ya está cerrada")
		}
		// The normal close is restricted to whoever opened the session.
		// Another cashier's session looks exactly like a missing one, so the
		// response does not reveal whether the id exists.
		if propietario != nil && sesion.UsuarioID != *propietario {
			return apierror.NotFound("sesion_no_encontrada", "sesión de caja no encontrada")
		}

		ventas, err := s.repo.SumVentasTx(tx, sesionID)
		if err != nil {
			return err
		}
		ingresos, egresos, err := s.repo.SumMovimientosTx(tx, sesionID)
		if err != nil {
			return err
		}

		esperado := sesion.MontoApertura.Add(ventas).Add(ingresos).Sub(egresos)
		diferencia := montoCierre.Sub(esperado)
		ahora := time.Now()

		sesion.Estado = "cerrada"
		sesion.MontoCierre = &montoCierre
		sesion.FechaCierre = &ahora
		sesion.TotalVentas = &ventas
		sesion.TotalEgresos = &egresos
		sesion.Diferencia = &diferencia
		sesion.CerradaPor = cerradaPor
		sesion.MotivoCierre = motivo
		return s.repo.UpdateSesionTx(tx, sesion)
	})
	if txErr != nil {
		return nil, apierror.FromErr(txErr)
	}
	return sesionToResponse(sesion, nil), nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Ingreso / egreso manual. Movements are immutable — no update, no delete —
// and only an open session accepts them; the check and the insert share a
// transaction so a concurrent close cannot slip one into a closed session.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, empresaID uuid.UUID, req dto.MovimientoManualRequest) error {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return apierror.Validation("sesion_caja_id_invalido", "sesion_caja_id inválido")
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.repo.FindSesionByIDTx(tx, empresaID, sesionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("sesion_no_encontrada", "sesión de caja no encontrada")
			}
			return err
		}
		if sesion.Estado != "abierta" {
			return apierror.Conflict("sesion_cerrada", "no se pueden registrar movimientos en una sesión cerrada")
		}

		mov := &model.MovimientoCaja{
			EmpresaID:    empresaID,
			SesionCajaID: sesionID,
			Tipo:         req.Tipo,
			Monto:        req.Monto,
			Descripcion:  req.Descripcion,
		}
		return s.repo.CreateMovimientoTx(tx, mov)
	})
	if txErr != nil {
		return apierror.FromErr(txErr)
	}
	return nil
}

// ── Lookups ───────────────────────────────────────────────────────────────────

// SesionActiva returns the caller's open session, if any.
func (s *cajaService) SesionActiva(ctx context.Context, empresaID, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorUsuario(ctx, empresaID, usuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("sesion_no_encontrada", "no tienes una sesión de caja abierta")
		}
		return nil, apierror.Internal(err)
	}
	return sesionToResponse(sesion, nil), nil
}

// ObtenerSesion returns the session with its manual movements.
func (s *cajaService) ObtenerSesion(ctx context.Context, empresaID, sesionID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, empresaID, sesionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("sesion_no_encontrada", "sesión de caja no encontrada")
		}
		return nil, apierror.Internal(err)
	}
	return sesionToResponse(sesion, sesion.Movimientos), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func sesionToResponse(s *model.SesionCaja, movs []model.MovimientoCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:            s.ID.String(),
		CajaID:        s.CajaID.String(),
		UsuarioID:     s.UsuarioID.String(),
		MontoApertura: s.MontoApertura,
		FechaApertura: s.FechaApertura.Format(time.RFC3339),
		MontoCierre:   s.MontoCierre,
		TotalVentas:   s.TotalVentas,
		TotalEgresos:  s.TotalEgresos,
		Diferencia:    s.Diferencia,
		Estado:        s.Estado,
		MotivoCierre:  s.MotivoCierre,
	}
	if s.FechaCierre != nil {
		fc := s.FechaCierre.Format(time.RFC3339)
		resp.FechaCierre = &fc
	}
	for _, m := range movs {
		resp.Movimientos = append(resp.Movimientos, dto.MovimientoCajaResponse{
			ID:          m.ID.String(),
			Tipo:        m.Tipo,
			Monto:       m.Monto,
			Descripcion: m.Descripcion,
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}
