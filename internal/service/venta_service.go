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
	"github.com/xzero11x/ferreteria-api-sub000/internal/worker"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, empresaID, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	ActualizarMetodoPago(ctx context.Context, empresaID, id uuid.UUID, metodo string) (*dto.VentaResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	serieRepo    repository.SerieRepository
	cajaRepo     repository.CajaRepository
	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	empresaRepo  repository.EmpresaRepository
	dispatcher   *worker.Dispatcher
}

func NewVentaService(
	repo repository.VentaRepository,
	serieRepo repository.SerieRepository,
	cajaRepo repository.CajaRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	empresaRepo repository.EmpresaRepository,
	dispatcher *worker.Dispatcher,
) VentaService {
	return &ventaService{
		repo:         repo,
		serieRepo:    serieRepo,
		cajaRepo:     cajaRepo,
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		empresaRepo:  empresaRepo,
		dispatcher:   dispatcher,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// One ACID transaction, all-or-nothing:
//  1. Session must be open; the caja it runs on scopes serie resolution
//  2. Resolve the comprobante type from the client snapshot (one read)
//  3. Resolve the active serie; allocate the next correlativo — the row lock
//     is held to commit, so concurrent sales on one serie serialize here
//  4. Per item: read the product, freeze the fiscal desglose, decrement
//     stock through the guarded update, append the stock ledger row
//  5. Aggregate totals, persist venta + detalles
//
// An abort anywhere rolls back everything: stock, ledger, the venta row —
// and leaves a gap in the serie, which is legal; a duplicate never is.
// Electronic emission is enqueued after commit and never blocks the sale.

func (s *ventaService) RegistrarVenta(ctx context.Context, empresaID, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.Validation("sesion_caja_id_invalido", "sesion_caja_id inválido")
	}
	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.Validation("cliente_id_invalido", "cliente_id inválido")
		}
		clienteID = &cid
	}

	var venta model.Venta
	var cliente *model.Cliente
	nombres := make(map[uuid.UUID]string)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.cajaRepo.FindSesionByIDTx(tx, empresaID, sesionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("sesion_no_encontrada", "sesión de caja no encontrada")
			}
			return err
		}
		if sesion.Estado != "abierta" {
			return apierror.Conflict("caja_no_abierta", "la sesión de caja está cerrada")
		}

		empresa, err := s.empresaRepo.FindByIDTx(tx, empresaID)
		if err != nil {
			return err
		}
		cfg := empresa.ConfigFiscal()

		// One client read for the whole sale: the type resolution and the
		// factura RUC check both consume this snapshot.
		if clienteID != nil {
			cliente, err = s.clienteRepo.FindByIDTx(tx, empresaID, *clienteID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierror.NotFound("cliente_no_encontrado", "cliente no encontrado")
				}
				return err
			}
		}

		datos := cliente.DatosFiscales()
		tipo := fiscal.ResolverTipoComprobante(fiscal.TipoComprobante(req.TipoComprobante), datos)
		if tipo == fiscal.ComprobanteFactura && !datos.TieneRUC() {
			return apierror.Validation("factura_requiere_ruc", "una factura requiere un cliente con RUC")
		}

		serie, err := s.serieRepo.FindActivaTx(tx, empresaID, tipo, sesion.CajaID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.ConfigMissing("serie_no_configurada",
					fmt.Sprintf("no hay serie activa de tipo %s configurada para esta caja", tipo))
			}
			return err
		}
		correlativo, err := s.serieRepo.SiguienteCorrelativoTx(tx, serie.ID)
		if err != nil {
			return err
		}

		type lineaResuelta struct {
			productoID uuid.UUID
			nombre     string
			cantidad   int
			stockAntes int
		}

		var lineas []fiscal.LineaDesglose
		var detalles []model.DetalleVenta
		var resueltas []lineaResuelta
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
			if !p.Activo {
				return apierror.Conflict("producto_inactivo", fmt.Sprintf("el producto %s está inactivo", p.Nombre))
			}
			nombres[pid] = p.Nombre
			resueltas = append(resueltas, lineaResuelta{
				productoID: pid,
				nombre:     p.Nombre,
				cantidad:   item.Cantidad,
				stockAntes: p.StockActual,
			})

			tasa := fiscal.TasaEfectiva(cfg, p.Afectacion)
			desglose := fiscal.Desglosar(item.PrecioUnitario, tasa)
			qty := decimal.NewFromInt(int64(item.Cantidad))
			lineas = append(lineas, fiscal.LineaDesglose{Desglose: desglose, Cantidad: int64(item.Cantidad)})
			detalles = append(detalles, model.DetalleVenta{
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

		venta = model.Venta{
			EmpresaID:    empresaID,
			Tipo:         tipo,
			SerieID:      serie.ID,
			SerieCodigo:  serie.Codigo,
			Correlativo:  correlativo,
			SesionCajaID: sesionID,
			UsuarioID:    &usuarioID,
			ClienteID:    clienteID,
			SubtotalBase: totales.SubtotalBase,
			Impuesto:     totales.Impuesto,
			Total:        totales.Total,
			MetodoPago:   req.MetodoPago,
			Estado:       "emitida",
			Detalles:     detalles,
		}
		if err := s.repo.CreateTx(tx, &venta); err != nil {
			return err
		}

		// Stock moves after the venta row exists so the ledger can point at it.
		for _, r := range resueltas {
			nuevo, ok, err := s.productoRepo.DescontarStockTx(tx, empresaID, r.productoID, r.cantidad)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.Conflict("stock_insuficiente",
					fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", r.nombre, r.stockAntes, r.cantidad))
			}

			// The before/after pair derives from the decrement's own result:
			// the earlier read may be stale under a concurrent sale.
			ventaRef := venta.ID
			mov := &model.MovimientoStock{
				EmpresaID:     empresaID,
				ProductoID:    r.productoID,
				Tipo:          "venta",
				Cantidad:      -r.cantidad,
				StockAnterior: nuevo + r.cantidad,
				StockNuevo:    nuevo,
				Motivo:        fmt.Sprintf("Venta %s-%08d", serie.Codigo, correlativo),
				ReferenciaID:  &ventaRef,
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

	// Async electronic emission — best-effort, fire & forget.
	if s.dispatcher != nil {
		payload := worker.EmisionJobPayload{
			VentaID:   venta.ID.String(),
			EmpresaID: empresaID.String(),
		}
		if cliente != nil && cliente.Email != nil && *cliente.Email != "" {
			payload.ClienteEmail = cliente.Email
		}
		_ = s.dispatcher.EnqueueEmision(ctx, payload)
	}

	resp := ventaToResponse(&venta)
	for i := range resp.Items {
		resp.Items[i].Producto = nombres[venta.Detalles[i].ProductoID]
	}
	return resp, nil
}

// ── Lookups ───────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, empresaID, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, empresaID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("venta_no_encontrada", "venta no encontrada")
		}
		return nil, apierror.Internal(err)
	}
	return ventaToResponse(venta), nil
}

// ListVentas returns a paginated list of sales, filtered by date and estado.
// Default filter: today's emitted sales.
func (s *ventaService) ListVentas(ctx context.Context, empresaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Estado == "" {
		filter.Estado = "emitida"
	}
	ventas, total, err := s.repo.List(ctx, empresaID, repository.VentaFilter{
		Fecha:  filter.Fecha,
		Estado: filter.Estado,
		Page:   filter.Page,
		Limit:  filter.Limit,
	})
	if err != nil {
		return nil, apierror.Internal(err)
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		items = append(items, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── ActualizarMetodoPago ──────────────────────────────────────────────────────
// The one mutation an emitted venta admits. Amounts, numbering and the
// fiscal snapshot stay frozen.

func (s *ventaService) ActualizarMetodoPago(ctx context.Context, empresaID, id uuid.UUID, metodo string) (*dto.VentaResponse, error) {
	rows, err := s.repo.UpdateMetodoPago(ctx, empresaID, id, metodo)
	if err != nil {
		return nil, apierror.Internal(err)
	}
	if rows == 0 {
		// Missing, foreign, or anulada — disambiguate with one read.
		if _, ferr := s.repo.FindByID(ctx, empresaID, id); ferr != nil {
			return nil, apierror.NotFound("venta_no_encontrada", "venta no encontrada")
		}
		return nil, apierror.Conflict("venta_anulada", "una venta anulada no admite correcciones")
	}
	return s.ObtenerVenta(ctx, empresaID, id)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Detalles))
	for _, det := range v.Detalles {
		nombre := ""
		if det.Producto != nil {
			nombre = det.Producto.Nombre
		}
		items = append(items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       det.Cantidad,
			ValorUnitario:  det.ValorUnitario,
			PrecioUnitario: det.PrecioUnitario,
			Impuesto:       det.ImpuestoLinea,
			TasaAplicada:   det.TasaAplicada,
			Subtotal:       det.Subtotal,
		})
	}
	resp := &dto.VentaResponse{
		ID:              v.ID.String(),
		TipoComprobante: string(v.Tipo),
		Serie:           v.SerieCodigo,
		Correlativo:     v.Correlativo,
		Numero:          fmt.Sprintf("%s-%08d", v.SerieCodigo, v.Correlativo),
		SesionCajaID:    v.SesionCajaID.String(),
		Items:           items,
		SubtotalBase:    v.SubtotalBase,
		Impuesto:        v.Impuesto,
		Total:           v.Total,
		MetodoPago:      v.MetodoPago,
		Estado:          v.Estado,
		CreatedAt:       v.CreatedAt.Format(time.RFC3339),
	}
	if v.ClienteID != nil {
		cid := v.ClienteID.String()
		resp.ClienteID = &cid
	}
	return resp
}
