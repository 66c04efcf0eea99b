package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/middleware"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

type CompraHandler struct{ svc service.CompraService }

func NewCompraHandler(svc service.CompraService) *CompraHandler { return &CompraHandler{svc: svc} }

// Registrar godoc
// @Summary Registra una compra e ingresa la mercadería al stock
// @Tags compras
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarCompraRequest true "Comprobante del proveedor"
// @Success 201 {object} dto.CompraResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/compras [post]
func (h *CompraHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.RegistrarCompra(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Obtener godoc
// @Summary Obtiene una compra con sus líneas
// @Tags compras
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de compra"
// @Success 200 {object} dto.CompraResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/compras/{id} [get]
func (h *CompraHandler) Obtener(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ObtenerCompra(c.Request.Context(), claims.Empresa(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
