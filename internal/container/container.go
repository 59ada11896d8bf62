package container

import (
	"fmt"
	"net/http"

	"geosismica/internal/analysis"
	"geosismica/internal/assets"
	"geosismica/internal/config"
	"geosismica/internal/logger"
	"geosismica/internal/observer"
	"geosismica/internal/repository"
	"geosismica/internal/service"
	"geosismica/internal/transport"
	"geosismica/internal/web"
	"geosismica/pkg/validation"
)

// Version is reported by /health.
const Version = "1.0.0"

// Container holds all application dependencies
type Container struct {
	config         *config.Config
	analyzer       analysis.Analyzer
	sessions       *repository.MemorySessionRepository
	events         *observer.EventPublisher
	stats          *observer.StatsObserver
	seismicService service.SeismicService
	handler        http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	// Build dependency graph
	branding := assets.LoadBranding(cfg.AssetsDir)
	analyzer := analysis.NewHTTPAnalyzer(cfg.AnalysisEndpoint, cfg.AnalysisTimeout)
	sessions := repository.NewMemorySessionRepository(cfg.SessionTTL)
	validator := validation.NewUploadValidator(cfg.MaxUploadSize)

	stats := observer.NewStatsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(stats)

	seismicService := service.NewSeismicService(sessions, analyzer, validator, events)
	handler := transport.NewHandler(seismicService, stats, transport.Options{
		Templates: tmpl,
		Layout: web.Layout{
			Theme:         web.DefaultTheme(),
			Branding:      branding,
			Accept:        validator.AcceptAttribute(),
			AllowedTypes:  web.AllowedTypesLabel(validator.AllowedExtensions()),
			MaxUploadMB:   cfg.MaxUploadSize / (1024 * 1024),
			NotifyOnEmpty: cfg.EmptyResultNotice,
		},
		MaxRequestBody: cfg.MaxRequestBodySize(),
		SessionTTL:     cfg.SessionTTL,
		Version:        Version,
	})

	return &Container{
		config:         cfg,
		analyzer:       analyzer,
		sessions:       sessions,
		events:         events,
		stats:          stats,
		seismicService: seismicService,
		handler:        handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close stops the session sweeper.
func (c *Container) Close() error {
	return c.sessions.Close()
}
