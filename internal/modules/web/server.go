package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
	conceptssvc "trade_journal/internal/modules/concepts/service"
	"trade_journal/internal/modules/config"
	daybooksvc "trade_journal/internal/modules/daybook/service"
	healthsvc "trade_journal/internal/modules/health/service"
	sessionsvc "trade_journal/internal/modules/session/service"
	strategysvc "trade_journal/internal/modules/strategy/service"
	"trade_journal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Deps struct {
	fx.In

	Cfg      *config.Config
	Auth     *Auth
	Metrics  *Metrics
	State    *healthsvc.State `optional:"true"`
	Catalog  *strategysvc.Catalog
	Engine   *sessionsvc.Engine
	Book     *daybooksvc.Book
	Concepts *conceptssvc.Library
}

type handler struct {
	catalog    *strategysvc.Catalog
	engine     *sessionsvc.Engine
	book       *daybooksvc.Book
	concepts   *conceptssvc.Library
	recentRuns int
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Cfg.Service.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), traced(), accessLog(d.State), d.Metrics.middleware())
	r.SetHTMLTemplate(loadTemplates())
	r.StaticFS("/static", staticFiles())

	if d.Cfg.Journal.MediaDir != "" {
		r.Static("/media", d.Cfg.Journal.MediaDir)
	}

	h := &handler{
		catalog:    d.Catalog,
		engine:     d.Engine,
		book:       d.Book,
		concepts:   d.Concepts,
		recentRuns: d.Cfg.Journal.RecentRuns,
	}

	app := r.Group("/", d.Auth.Middleware())
	app.GET("/", h.dashboard)
	app.GET("/strategies/", h.strategies)
	app.GET("/concepts/", h.conceptList)

	app.GET("/runs/start/", h.startForm)
	app.POST("/runs/start/", h.start)
	app.GET("/runs/:id/", h.runDetail)
	app.POST("/runs/:id/", h.runUpdate)
	app.GET("/runs/:id/review/", h.reviewForm)
	app.POST("/runs/:id/review/", h.review)

	app.GET("/day/:year/:month/:day/", h.day)
	app.POST("/day/:year/:month/:day/", h.dayUpdate)
	app.POST("/api/day/:year/:month/:day/save-slots/", h.saveSlots)

	app.GET("/legacy/calendar/", h.calendar)

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, router *gin.Engine, state *healthsvc.State) {
	srv := &http.Server{
		Addr:              cfg.PublicAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("[WEB] listening on %s", srv.Addr)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("[WEB] serve: %v", err)
				}
			}()
			state.SetReady(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}
