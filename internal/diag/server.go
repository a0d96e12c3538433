// Package diag exposes a read-only HTTP surface for test harnesses:
// health, the live manipulator config, and prometheus metrics.
package diag

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/modbusctl/internal/manipulator"
	"github.com/danmuck/modbusctl/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

type Server struct {
	addr    string
	srv     *http.Server
	started time.Time
}

func New(addr string, store *manipulator.Store, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	s := &Server{addr: addr, started: time.Now()}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "modbusctl",
			"version": version,
		})
	})
	r.GET("/manipulator", func(c *gin.Context) {
		c.JSON(http.StatusOK, store.Current())
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.srv = &http.Server{Addr: addr, Handler: r}
	return s
}

// Start serves in the background; a closed-server error is not a
// failure.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.addr).Msg("diag server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("diag server failed")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the route tree for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
