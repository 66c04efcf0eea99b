package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xzero11x/ferreteria-api-sub000/internal/apierror"
	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/middleware"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

type VentaHandler struct{ svc service.VentaService }

func NewVentaHandler(svc service.VentaService) *VentaHandler { return &VentaHandler{svc: svc} }

// Registrar godoc
// @Summary Registra una venta con numeración fiscal y descuento de stock
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Carrito y forma de pago"
// @Success 201 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentaHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene una venta con sus líneas
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Success 200 {object} dto.VentaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ventas/{id} [get]
func (h *VentaHandler) Obtener(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), claims.Empresa(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista las ventas del día o de una fecha dada
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param fecha query string false "YYYY-MM-DD"
// @Param estado query string false "emitida | anulada | all"
// @Success 200 {object} dto.VentaListResponse
// @Router /v1/ventas [get]
func (h *VentaHandler) Listar(c *gin.Context) {
	var filter dto.VentaFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("filtros inválidos: "+err.Error()))
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ListVentas(c.Request.Context(), claims.Empresa(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarMetodoPago godoc
// @Summary Corrige el método de pago de una venta emitida
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.ActualizarMetodoPagoRequest true "Nuevo método"
// @Success 200 {object} dto.VentaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/metodo-pago [patch]
func (h *VentaHandler) ActualizarMetodoPago(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarMetodoPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ActualizarMetodoPago(c.Request.Context(), claims.Empresa(), id, req.MetodoPago)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
