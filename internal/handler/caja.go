package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/middleware"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// Abrir godoc
// @Summary Abre una sesión de caja para el usuario autenticado
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AbrirCajaRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionCajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/abrir [post]
func (h *CajaHandler) Abrir(c *gin.Context) {
	var req dto.AbrirCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.AbrirSesion(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cerrar godoc
// @Summary Cierra la sesión del propietario con el conteo declarado
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.CerrarCajaRequest true "Monto contado"
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	sesionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CerrarSesion(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), sesionID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CierreAdmin godoc
// @Summary Cierra cualquier sesión abierta del tenant (solo admin)
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.CierreAdminRequest true "Monto contado y motivo"
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/caja/{id}/cierre-admin [post]
func (h *CajaHandler) CierreAdmin(c *gin.Context) {
	sesionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CierreAdminRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.CerrarSesionAdmin(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), sesionID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso o egreso manual en una sesión abierta
// @Tags caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoManualRequest true "Movimiento manual"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/caja/movimiento [post]
func (h *CajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	if err := h.svc.RegistrarMovimiento(c.Request.Context(), claims.Empresa(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activa returns the open session of the authenticated user, 404 when none.
func (h *CajaHandler) Activa(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp, err := h.svc.SesionActiva(c.Request.Context(), claims.Empresa(), claims.UsuarioID())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener returns one session with its manual movements.
func (h *CajaHandler) Obtener(c *gin.Context) {
	sesionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ObtenerSesion(c.Request.Context(), claims.Empresa(), sesionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
