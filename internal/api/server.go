package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"

	"github.com/lasagnafinance/stake-ledger/internal/auth"
	"github.com/lasagnafinance/stake-ledger/internal/config"
	"github.com/lasagnafinance/stake-ledger/internal/services"
)

type Server struct {
	httpServer *http.Server
}

func New(cfg *config.ServerConfig, service *services.Service, verifier *auth.Verifier) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr(),
			Handler:      NewRouter(service, verifier),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func NewRouter(service *services.Service, verifier *auth.Verifier) http.Handler {
	h := &handler{
		service:  service,
		verifier: verifier,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)
	r.Use(metricsMiddleware)
	r.Use(requestLogMiddleware)

	r.Get("/healthcheck", wrap(h.healthcheck))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/stake", wrap(h.stake))
		r.Post("/withdraw", wrap(h.withdraw))
		r.Post("/restake", wrap(h.restake))
		r.Get("/stake-accounts/{identity}", wrap(h.getStakeAccount))
		r.Get("/stats", wrap(h.getStakeStats))
	})

	return gorillahandlers.CompressHandler(r)
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Msgf("Starting api server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
