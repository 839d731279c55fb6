package api

import (
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/catalyst/api/worker"
	"github.com/papercomputeco/catalyst/pkg/llm/provider"
	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/storage"
)

// Server is the workshop backend.
type Server struct {
	config Config
	storer storage.Driver
	llm    provider.Provider
	pool   *worker.Pool
	logger *slog.Logger
	app    *fiber.App
	now    func() time.Time
}

// NewServer creates a new API server.
// The storer and provider are injected so they can be shared with other
// components. pool may be nil, in which case saved workshops are not
// announced.
func NewServer(config Config, storer storage.Driver, llm provider.Provider, pool *worker.Pool, log *slog.Logger) *Server {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		storer: storer,
		llm:    llm,
		pool:   pool,
		logger: log,
		app:    app,
		now:    time.Now,
	}

	app.Get("/ping", s.handlePing)

	ai := app.Group("/api")
	ai.Post("/evaluate-topic", s.handleEvaluateTopic)
	ai.Post("/pre-mortem", s.handlePreMortem)
	ai.Post("/classify-question", s.handleClassifyQuestion)
	ai.Post("/shadow-questions", s.handleShadowQuestions)
	ai.Post("/generate-summary", s.handleGenerateSummary)

	ai.Post("/workshops", s.handleSaveWorkshop)
	ai.Get("/workshops", s.handleListWorkshops)
	ai.Get("/workshops/:id", s.handleGetWorkshop)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"provider", s.llm.Name(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the API server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting API server",
		"listen", listener.Addr().String(),
		"provider", s.llm.Name(),
	)
	return s.app.Listener(listener)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
