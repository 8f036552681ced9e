// Package server wires configuration, the token store, the deduplicator,
// and the external clients into one HTTP service with a managed lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ozzie78066/bulkbot/internal/api/rest"
	"github.com/ozzie78066/bulkbot/internal/config"
	"github.com/ozzie78066/bulkbot/internal/dedupe"
	"github.com/ozzie78066/bulkbot/internal/llm"
	"github.com/ozzie78066/bulkbot/internal/mail"
	"github.com/ozzie78066/bulkbot/internal/media"
	"github.com/ozzie78066/bulkbot/internal/pdf"
	"github.com/ozzie78066/bulkbot/internal/plan"
	"github.com/ozzie78066/bulkbot/internal/token"
)

// Server owns all pipeline components and the HTTP listener.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	store  *token.Store
	dedupe *dedupe.Deduplicator

	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// New builds a fully wired server from validated configuration.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := token.Open(cfg.Store.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		store:  store,
		dedupe: dedupe.New(cfg.Dedupe.Window),
	}

	generator := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
		Timeout: cfg.OpenAI.Timeout,
	}, logger)

	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)

	videos := media.StaticSource{}
	for slug, url := range cfg.Media.Videos {
		v, err := plan.Parse(slug)
		if err != nil {
			return nil, fmt.Errorf("media.videos: %w", err)
		}
		videos[v] = url
	}
	resolver := media.NewResolver(videos, cfg.Media.CacheTTL, logger)

	handler := rest.NewHandler(cfg, store, s.dedupe, generator, pdf.NewRenderer(), mailer, resolver, logger)
	router := rest.NewRouter(handler, logger, rest.RouterConfig{RateLimitPerMin: cfg.RateLimit.PerMin})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // the form pipeline waits on generation
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Start begins serving. It returns once the listener goroutine is running;
// listen errors are reported through errCh.
func (s *Server) Start(errCh chan<- error) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("server starting",
		zap.String("addr", s.httpServer.Addr),
		zap.Int("tokens_loaded", s.store.Len()))

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if errCh != nil {
				errCh <- err
			}
		}
	}()
	return nil
}

// Stop drains in-flight requests and releases background resources.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("server stopping")
	err := s.httpServer.Shutdown(ctx)
	s.dedupe.Stop()
	return err
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
