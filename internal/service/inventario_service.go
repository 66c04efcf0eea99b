package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
)

type InventarioService interface {
	AjustarStock(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AjusteStockRequest) (*dto.MovimientoStockResponse, error)
	ListMovimientos(ctx context.Context, empresaID, productoID uuid.UUID) ([]dto.MovimientoStockResponse, error)
}

type inventarioService struct {
	repo repository.ProductoRepository
}

func NewInventarioService(repo repository.ProductoRepository) InventarioService {
	return &inventarioService{repo: repo}
}

// AjustarStock applies a signed manual correction. A downward adjustment
// goes through the same guarded decrement as a sale: it can never drive
// stock below zero, not even against a concurrent venta.
func (s *inventarioService) AjustarStock(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.AjusteStockRequest) (*dto.MovimientoStockResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.Validation("producto_id_invalido", "producto_id inválido")
	}
	if req.Cantidad == 0 {
		return nil, apierror.Validation("cantidad_invalida", "la cantidad del ajuste no puede ser cero")
	}

	var mov *model.MovimientoStock
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDTx(tx, empresaID, productoID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("producto_no_encontrado", "producto no encontrado")
			}
			return err
		}

		var nuevo int
		if req.Cantidad > 0 {
			nuevo, err = s.repo.IncrementarStockTx(tx, empresaID, productoID, req.Cantidad)
			if err != nil {
				return err
			}
		} else {
			var ok bool
			nuevo, ok, err = s.repo.DescontarStockTx(tx, empresaID, productoID, -req.Cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.Conflict("stock_insuficiente",
					fmt.Sprintf("stock insuficiente para %s: disponible %d, ajuste %d", p.Nombre, p.StockActual, req.Cantidad))
			}
		}

		// Before/after come from the mutation's returned value, not the read.
		mov = &model.MovimientoStock{
			EmpresaID:     empresaID,
			ProductoID:    productoID,
			Tipo:          "ajuste_manual",
			Cantidad:      req.Cantidad,
			StockAnterior: nuevo - req.Cantidad,
			StockNuevo:    nuevo,
			Motivo:        fmt.Sprintf("%s (por usuario %s)", req.Motivo, usuarioID),
		}
		return s.repo.CrearMovimientoTx(tx, mov)
	})
	if txErr != nil {
		return nil, apierror.FromErr(txErr)
	}
	return movimientoToResponse(mov), nil
}

func (s *inventarioService) ListMovimientos(ctx context.Context, empresaID, productoID uuid.UUID) ([]dto.MovimientoStockResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, empresaID, productoID)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	resp := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		resp = append(resp, *movimientoToResponse(&movs[i]))
	}
	return resp, nil
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoStockResponse {
	return &dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		CreatedAt:     m.CreatedAt.Format(time.RFC3339),
	}
}
