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
	"github.com/xzero11x/ferreteria-api-sub000/internal/fiscal"
	"github.com/xzero11x/ferreteria-api-sub000/internal/model"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
)

type CompraService interface {
	RegistrarCompra(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error)
	ObtenerCompra(ctx context.Context, empresaID, id uuid.UUID) (*dto.CompraResponse, error)
}

type compraService struct {
	repo          repository.CompraRepository
	proveedorRepo repository.ProveedorRepository
	productoRepo  repository.ProductoRepository
	empresaRepo   repository.EmpresaRepository
}

func NewCompraService(
	repo repository.CompraRepository,
	proveedorRepo repository.ProveedorRepository,
	productoRepo repository.ProductoRepository,
	empresaRepo repository.EmpresaRepository,
) CompraService {
	return &compraService{
		repo:          repo,
		proveedorRepo: proveedorRepo,
		productoRepo:  productoRepo,
		empresaRepo:   empresaRepo,
	}
}

// ── RegistrarCompra ───────────────────────────────────────────────────────────
// The receiving mirror of RegistrarVenta: same decomposition, same atomic
// stock mechanics, but the document number comes from the supplier — we
// verify it is not already registered instead of allocating one.

func (s *compraService) RegistrarCompra(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarCompraRequest) (*dto.CompraResponse, error) {
	proveedorID, err := uuid.Parse(req.ProveedorID)
	if err != nil {
		return nil, apierror.Validation("proveedor_id_invalido", "proveedor_id inválido")
	}

	var compra model.Compra
	nombres := make(map[uuid.UUID]string)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.proveedorRepo.FindByIDTx(tx, empresaID, proveedorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("proveedor_no_encontrado", "proveedor no encontrado")
			}
			return err
		}

		// Same supplier document twice means the goods would be counted twice.
		dup, err := s.repo.FindByComprobanteTx(tx, empresaID, proveedorID, req.TipoComprobante, req.Serie, req.Numero)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if dup != nil {
			return apierror.Conflict("comprobante_duplicado",
				fmt.Sprintf("el comprobante %s %s-%s de este proveedor ya fue registrado", req.TipoComprobante, req.Serie, req.Numero))
		}

		empresa, err := s.empresaRepo.FindByIDTx(tx, empresaID)
		if err != nil {
			return err
		}
		cfg := empresa.ConfigFiscal()

		var lineas []fiscal.LineaDesglose
		var detalles []model.DetalleCompra
		type entrada struct {
			productoID uuid.UUID
			cantidad   int
		}
		var entradas []entrada

		for _, item := range req.Items {
			pid, err := uuid.Parse(item.ProductoID)
			if err != nil {
				return apierror.Validation("producto_id_invalido", "producto_id inválido")
			}
			p, err := s.productoRepo.FindByIDTx(tx, empresaID, pid)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierror.NotFound("producto_no_encontrado", fmt.Sprintf("producto %s no encontrado", item.ProductoID))
				}
				return err
			}
			nombres[pid] = p.Nombre
			entradas = append(entradas, entrada{productoID: pid, cantidad: item.Cantidad})

			tasa := fiscal.TasaEfectiva(cfg, p.Afectacion)
			desglose := fiscal.Desglosar(item.PrecioUnitario, tasa)
			qty := decimal.NewFromInt(int64(item.Cantidad))
			lineas = append(lineas, fiscal.LineaDesglose{Desglose: desglose, Cantidad: int64(item.Cantidad)})
			detalles = append(detalles, model.DetalleCompra{
				ProductoID:     pid,
				Cantidad:       item.Cantidad,
				ValorUnitario:  desglose.Base,
				PrecioUnitario: desglose.Total,
				ImpuestoLinea:  desglose.Impuesto.Mul(qty),
				TasaAplicada:   tasa,
				Subtotal:       desglose.Total.Mul(qty),
			})
		}

		totales := fiscal.Agregar(lineas)

		compra = model.Compra{
			EmpresaID:       empresaID,
			ProveedorID:     proveedorID,
			TipoComprobante: req.TipoComprobante,
			Serie:           req.Serie,
			Numero:          req.Numero,
			UsuarioID:       &usuarioID,
			SubtotalBase:    totales.SubtotalBase,
			Impuesto:        totales.Impuesto,
			Total:           totales.Total,
			Detalles:        detalles,
		}
		if err := s.repo.CreateTx(tx, &compra); err != nil {
			// Two concurrent registrations of the same supplier document race
			// past the check; the unique index decides, the loser conflicts.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Conflict("comprobante_duplicado",
					fmt.Sprintf("el comprobante %s %s-%s de este proveedor ya fue registrado", req.TipoComprobante, req.Serie, req.Numero))
			}
			return err
		}

		for _, e := range entradas {
			nuevo, err := s.productoRepo.IncrementarStockTx(tx, empresaID, e.productoID, e.cantidad)
			if err != nil {
				return err
			}
			compraRef := compra.ID
			mov := &model.MovimientoStock{
				EmpresaID:     empresaID,
				ProductoID:    e.productoID,
				Tipo:          "compra",
				Cantidad:      e.cantidad,
				StockAnterior: nuevo - e.cantidad,
				StockNuevo:    nuevo,
				Motivo:        fmt.Sprintf("Compra %s-%s", req.Serie, req.Numero),
				ReferenciaID:  &compraRef,
			}
			if err := s.productoRepo.CrearMovimientoTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, apierror.FromErr(txErr)
	}

	resp := compraToResponse(&compra)
	for i := range resp.Items {
		resp.Items[i].Producto = nombres[compra.Detalles[i].ProductoID]
	}
	return resp, nil
}

func (s *compraService) ObtenerCompra(ctx context.Context, empresaID, id uuid.UUID) (*dto.CompraResponse, error) {
	compra, err := s.repo.FindByID(ctx, empresaID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("compra_no_encontrada", "compra no encontrada")
		}
		return nil, apierror.Internal(err)
	}
	return compraToResponse(compra), nil
}

func compraToResponse(c *model.Compra) *dto.CompraResponse {
	items := make([]dto.ItemCompraResponse, 0, len(c.Detalles))
	for _, det := range c.Detalles {
		nombre := ""
		if det.Producto != nil {
			nombre = det.Producto.Nombre
		}
		items = append(items, dto.ItemCompraResponse{
			Producto:       nombre,
			Cantidad:       det.Cantidad,
			ValorUnitario:  det.ValorUnitario,
			PrecioUnitario: det.PrecioUnitario,
			Impuesto:       det.ImpuestoLinea,
			Subtotal:       det.Subtotal,
		})
	}
	return &dto.CompraResponse{
		ID:              c.ID.String(),
		ProveedorID:     c.ProveedorID.String(),
		TipoComprobante: c.TipoComprobante,
		Serie:           c.Serie,
		Numero:          c.Numero,
		Items:           items,
		SubtotalBase:    c.SubtotalBase,
		Impuesto:        c.Impuesto,
		Total:           c.Total,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
}
