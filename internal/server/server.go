package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kdange/portfolio/internal/api/handlers"
	"github.com/kdange/portfolio/internal/api/middleware"
	"github.com/kdange/portfolio/internal/config"
	"github.com/kdange/portfolio/internal/logging"
	"github.com/kdange/portfolio/internal/metrics"
	"github.com/kdange/portfolio/internal/server/routes"
	"github.com/kdange/portfolio/internal/service"
	"github.com/kdange/portfolio/web"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

// Services holds the long-lived domain services shared by the handlers
type Services struct {
	Contacts *service.ContactService
	Chats    *service.ChatService
	Metrics  *metrics.Metrics

	closers []func() error
}

// Close releases connections held by the services
func (s *Services) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// BuildServices wires the email quota, mail transport, persona and LLM client
// from configuration
func BuildServices(cfg *config.Config) (*Services, error) {
	logger := logging.GetGlobalLogger()
	svc := &Services{Metrics: metrics.New()}
	limiter := service.NewOutboundLimiter(cfg.OutboundMaxInFlight)

	var quota service.EmailQuota
	if cfg.Quota.RedisURL != "" {
		client, err := service.NewRedisClient(cfg.Quota.RedisURL)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, client.Close)
		quota = service.NewRedisQuota(client, cfg.Quota.MaxEmails, cfg.Quota.Window)
		logger.Info("Email counter stored in Redis")
	} else {
		quota = service.NewMemoryQuota(cfg.Quota.MaxEmails, cfg.Quota.Window)
	}
	if cfg.Quota.Window == 0 {
		logger.Info("Email limit is %d per process lifetime (reset via /api/reset-email-count)", cfg.Quota.MaxEmails)
	} else {
		logger.Info("Email limit is %d per %s", cfg.Quota.MaxEmails, cfg.Quota.Window)
	}

	mailer, err := service.NewMailer(cfg.Mail)
	if err != nil {
		return nil, err
	}

	svc.Contacts = service.NewContactService(service.ContactServiceOptions{
		Mailer:        mailer,
		Quota:         quota,
		Limiter:       limiter,
		Metrics:       svc.Metrics,
		Account:       cfg.Mail.Username,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Timeout:       cfg.Mail.Timeout,
	})

	persona, err := service.LoadPersona(cfg.PersonaFile)
	if err != nil {
		return nil, err
	}

	svc.Chats = service.NewChatService(cfg.LLM, persona, limiter, svc.Metrics)
	if !svc.Chats.Enabled() {
		logger.Warn("OPENAI_API_KEY not set, chat endpoint disabled")
	}

	return svc, nil
}

// NewRouter builds the gin engine with every route and middleware
func NewRouter(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	logger := logging.GetGlobalLogger()
	router := gin.New()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	static, err := web.Static()
	if err != nil {
		return nil, fmt.Errorf("failed to load static assets: %w", err)
	}

	opts := routes.GlobalOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Production:     cfg.IsProduction(),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		opts.TracingService = cfg.Telemetry.ServiceName
	}
	routes.SetupGlobalMiddleware(router, logger, opts)

	router.StaticFS("/static", http.FS(static))

	if cfg.Telemetry.MetricsEnabled {
		routes.SetupMetricsRoutes(router, svc.Metrics.Handler())
	}

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, /api/reset-email-count is open to anyone")
	}

	h := &routes.Handlers{
		Page:    handlers.NewPageHandler(svc.Chats),
		Health:  handlers.NewHealthHandler(svc.Contacts, svc.Chats),
		Contact: handlers.NewContactHandler(svc.Contacts),
		Chat:    handlers.NewChatHandler(svc.Chats),
		Admin:   handlers.NewAdminHandler(svc.Contacts),
	}
	m := &routes.Middleware{
		Validation: middleware.NewValidationMiddleware(),
		RateLimit: middleware.RateLimitMiddleware(middleware.RateLimitConfig{
			RPS:   cfg.HTTP.RateLimitRPS,
			Burst: cfg.HTTP.RateLimitBurst,
		}),
		EmailQuota:  middleware.EmailQuotaGate(svc.Contacts),
		ChatEnabled: middleware.RequireChat(svc.Chats),
		AdminToken:  middleware.RequireAdminToken(cfg.AdminToken),
	}
	routes.Setup(router, h, m)

	return router, nil
}

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	services   *Services
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	svc, err := BuildServices(cfg)
	if err != nil {
		return nil, err
	}

	router, err := NewRouter(cfg, svc)
	if err != nil {
		svc.Close()
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		services: svc,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	logger := logging.GetGlobalLogger()
	defer s.services.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
