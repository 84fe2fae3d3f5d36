package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server serves /metrics and /healthz.
type Server struct {
	srv *http.Server
	log *zap.SugaredLogger
}

// Router builds the HTTP routes. tracked reports how many guilds have counters set up.
func Router(m *Metrics, tracked func() int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(m.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  m.Uptime().Round(time.Second).String(),
			"guilds":  tracked(),
			"updates": m.Ticks(),
		})
	})

	return r
}

func NewServer(addr string, m *Metrics, tracked func() int, log *zap.SugaredLogger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Router(m, tracked),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start listens in the background.
func (s *Server) Start() {
	go func() {
		s.log.Infof("serving metrics on %v", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.With("error", err).Error("metrics server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
