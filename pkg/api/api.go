package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/telekom/k8s-dashboard/pkg/config"
	"github.com/telekom/k8s-dashboard/pkg/metrics"
	"github.com/telekom/k8s-dashboard/pkg/ratelimit"
	"github.com/telekom/k8s-dashboard/pkg/version"
)

type APIController interface {
	BasePath() string
	Register(rg *gin.RouterGroup) error
	Handlers() []gin.HandlerFunc
}

type Server struct {
	gin     *gin.Engine
	config  config.Config
	log     *zap.Logger
	limiter *ratelimit.IPRateLimiter
}

func NewServer(log *zap.Logger, cfg config.Config, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(log, time.RFC3339, true),
		ginzap.RecoveryWithZap(log, true),
		requestContext(log.Sugar()),
	)

	if len(cfg.Server.AllowOrigins) > 0 {
		engine.Use(
			cors.New(cors.Config{
				AllowOrigins:  cfg.Server.AllowOrigins,
				AllowMethods:  []string{"GET", "PUT", "POST", "DELETE", "OPTIONS"},
				AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
				ExposeHeaders: []string{RequestIDHeader},
				MaxAge:        12 * time.Hour,
			}),
		)
	}

	if cfg.Server.StaticDir != "" {
		engine.NoRoute(ServeSPA("/", cfg.Server.StaticDir))
	}

	s := &Server{
		gin:    engine,
		config: cfg,
		log:    log,
	}
	if rl, ok := ratelimit.FromServer(cfg.Server); ok {
		s.limiter = ratelimit.New(rl)
	}

	engine.GET("healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("metrics", gin.WrapH(metrics.MetricsHandler()))
	engine.GET("api/version", func(c *gin.Context) { c.JSON(http.StatusOK, version.GetBuildInfo()) })

	return s
}

func (s *Server) RegisterAll(controllers []APIController) error {
	r := s.gin.Group("api", instrumented())
	if s.limiter != nil {
		r.Use(s.limiter.Middleware())
	}
	for _, c := range controllers {
		if err := c.Register(r.Group(c.BasePath(), c.Handlers()...)); err != nil {
			return err
		}
	}
	return nil
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler { return s.gin }

// Listen serves until ctx is cancelled, then shuts down gracefully. TLS is
// used when both certificate files are configured.
func (s *Server) Listen(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           s.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}
	defer func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		tls := s.config.Server.TLSCertFile != "" && s.config.Server.TLSKeyFile != ""
		s.log.Sugar().Infow("Starting dashboard API", "address", srv.Addr, "tls", tls)
		var err error
		if tls {
			err = srv.ListenAndServeTLS(s.config.Server.TLSCertFile, s.config.Server.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("Shutting down dashboard API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
