package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xzero11x/ferreteria-api-sub000/internal/dto"
	"github.com/xzero11x/ferreteria-api-sub000/internal/middleware"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Ajustar godoc
// @Summary Aplica un ajuste manual de stock con motivo obligatorio
// @Tags inventario
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AjusteStockRequest true "Ajuste firmado"
// @Success 200 {object} dto.MovimientoStockResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/inventario/ajuste [post]
func (h *InventarioHandler) Ajustar(c *gin.Context) {
	var req dto.AjusteStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.AjustarStock(c.Request.Context(), claims.Empresa(), claims.UsuarioID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos lists the stock ledger of one product, newest first.
func (h *InventarioHandler) Movimientos(c *gin.Context) {
	productoID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	claims := middleware.GetClaims(c)
	resp, err := h.svc.ListMovimientos(c.Request.Context(), claims.Empresa(), productoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
