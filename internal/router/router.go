package router

import (
	"time"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/xzero11x/ferreteria-api-sub000/internal/config"
	"github.com/xzero11x/ferreteria-api-sub000/internal/handler"
	"github.com/xzero11x/ferreteria-api-sub000/internal/infra"
	"github.com/xzero11x/ferreteria-api-sub000/internal/middleware"
	"github.com/xzero11x/ferreteria-api-sub000/internal/repository"
	"github.com/xzero11x/ferreteria-api-sub000/internal/service"
	"github.com/xzero11x/ferreteria-api-sub000/internal/worker"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sunatCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	empresaRepo := repository.NewEmpresaRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	serieRepo := repository.NewSerieRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	compraRepo := repository.NewCompraRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	cajaSvc := service.NewCajaService(cajaRepo, dispatcher)
	ventaSvc := service.NewVentaService(ventaRepo, serieRepo, cajaRepo, productoRepo, clienteRepo, empresaRepo, dispatcher)
	compraSvc := service.NewCompraService(compraRepo, proveedorRepo, productoRepo, empresaRepo)
	inventarioSvc := service.NewInventarioService(productoRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	ventasH := handler.NewVentaHandler(ventaSvc)
	comprasH := handler.NewCompraHandler(compraSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, sunatCB, dispatcher))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes — every handler reads the tenant from the JWT claims.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		ventas := v1.Group("/ventas")
		{
			ventas.POST("", middleware.RequireRole("cajero", "supervisor", "administrador"), ventasH.Registrar)
			ventas.GET("", middleware.RequireRole("cajero", "supervisor", "administrador"), ventasH.Listar)
			ventas.GET("/:id", middleware.RequireRole("cajero", "supervisor", "administrador"), ventasH.Obtener)
			ventas.PATCH("/:id/metodo-pago", middleware.RequireRole("cajero", "supervisor", "administrador"), ventasH.ActualizarMetodoPago)
		}

		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Abrir)
			caja.POST("/:id/cerrar", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Cerrar)
			caja.POST("/:id/cierre-admin", middleware.RequireRole("administrador"), cajaH.CierreAdmin)
			caja.POST("/movimiento", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.RegistrarMovimiento)
			caja.GET("/activa", middleware.RequireRole("cajero", "supervisor", "administrador"), cajaH.Activa)
			caja.GET("/:id", middleware.RequireRole("supervisor", "administrador"), cajaH.Obtener)
		}

		compras := v1.Group("/compras", middleware.RequireRole("supervisor", "administrador"))
		{
			compras.POST("", comprasH.Registrar)
			compras.GET("/:id", comprasH.Obtener)
		}

		inv := v1.Group("/inventario", middleware.RequireRole("supervisor", "administrador"))
		{
			inv.POST("/ajuste", inventarioH.Ajustar)
			inv.GET("/productos/:id/movimientos", inventarioH.Movimientos)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
