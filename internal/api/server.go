package api

import (
	"ask-relay/internal/config"
	"ask-relay/internal/usecase"
	"ask-relay/pkg/logg"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	http   *http.Server
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewServer(params Params) *Server {
	httpConf := params.Config.HTTPConfig

	limit := rate.Inf
	if httpConf.RateLimit > 0 {
		limit = rate.Limit(httpConf.RateLimit)
	}

	handler := NewHandler(
		params.Usecase.Retriever,
		rate.NewLimiter(limit, httpConf.RateBurst),
		httpConf.MaxConcurrent,
		params.Logger,
	)

	var secret string
	if params.Config.AuthConfig != nil {
		secret = params.Config.AuthConfig.JWTSecret
	}

	return &Server{
		config: params.Config,
		logger: params.Logger.With(zap.String(logg.Layer, "Server")),
		http: &http.Server{
			Addr:              httpConf.Addr,
			Handler:           NewRouter(handler, secret, params.Logger),
			ReadHeaderTimeout: httpConf.ReadHeaderTimeout,
		},
	}
}

// Start binds the listener synchronously so address errors fail startup, then serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}

	s.logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	return s.http.Shutdown(ctx)
}
