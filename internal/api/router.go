// Package api exposes the services over HTTP with gin.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jask/cuentas/internal/catalog"
	"github.com/jask/cuentas/internal/database/repository"
	"github.com/jask/cuentas/internal/logger"
	"github.com/jask/cuentas/internal/service"
)

// UserHeader carries the acting user's id.
const UserHeader = "X-User-ID"

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	Import         service.ImportOptions
	Catalog        catalog.Catalog
	Now            func() time.Time
}

// Handler holds the services the routes call.
type Handler struct {
	db       *sql.DB
	tenants  *service.TenantService
	importer *service.ImportRunner
	seeder   *service.CategorySeeder
	partners *service.PartnerService
	projects *service.ProjectService
	quick    *service.QuickAddService
	cron     *service.RecurringService
	auditor  *service.DuplicateAuditor
	catalog  catalog.Catalog
	now      func() time.Time
}

func NewHandler(db *sql.DB, opts Options) *Handler {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	return &Handler{
		db:       db,
		tenants:  &service.TenantService{Tenants: repository.NewTenantRepo(db)},
		importer: service.NewImportRunner(service.NewStores(db), opts.Import),
		seeder:   &service.CategorySeeder{Categories: repository.NewCategoryRepo(db)},
		partners: &service.PartnerService{DB: db, DefaultCurrency: opts.Import.Defaults.Currency},
		projects: &service.ProjectService{DB: db},
		quick:    &service.QuickAddService{DB: db, Now: now},
		cron:     &service.RecurringService{DB: db, Now: now},
		auditor:  &service.DuplicateAuditor{DB: db},
		catalog:  cat,
		now:      now,
	}
}

// NewRouter wires middleware and routes.
func NewRouter(h *Handler, origins []string, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	corsCfg := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", UserHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	api.POST("/recurrence/preview", h.previewRecurrence)

	scoped := api.Group("")
	scoped.Use(h.requireTenant())
	scoped.POST("/import/transactions", h.importTransactions)
	scoped.POST("/import/categories", h.importCategories)
	scoped.POST("/categories/seed", h.seedCategories)
	scoped.POST("/partners", h.createPartner)
	scoped.POST("/projects", h.createProject)
	scoped.POST("/projects/:id/partners", h.addProjectPartner)
	scoped.GET("/projects/:id/team", h.projectTeam)
	scoped.POST("/transactions/quick", h.quickAdd)
	scoped.POST("/recurring/refresh", h.refreshRecurring)
	scoped.GET("/audit/duplicates", h.auditDuplicates)
	return r
}

// requestLogger logs one line per request and hands the logger to
// handlers through the request context.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))
		c.Next()
		ev := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

const actorKey = "actor"

func (h *Handler) requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := h.tenants.Resolve(c.Request.Context(), c.GetHeader(UserHeader))
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		ctx := c.Request.Context()
		log := logger.FromContext(ctx).With().Str("tenant_id", actor.TenantID).Str("user_id", actor.UserID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(ctx, log))
		c.Next()
	}
}

func actorFrom(c *gin.Context) service.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(service.Actor)
	return actor
}

func (h *Handler) health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
