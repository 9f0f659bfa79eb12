// Package web provides the operator console: a fiber server relaying input
// to the robot and streaming telemetry to browsers.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/auth"
	"github.com/teslashibe/go-vega/pkg/console"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/hub"
	"github.com/teslashibe/go-vega/pkg/telemetry"
)

// DefaultRelayTimeout bounds relayed robot requests.
const DefaultRelayTimeout = 3 * time.Second

// Config configures a Server.
type Config struct {
	Addr      string
	StaticDir string

	// Verifier enables bearer-token auth when set.
	Verifier *auth.Verifier

	// Poller is optional; its counters are reported by /api/health.
	Poller *telemetry.Poller

	RelayTimeout time.Duration
	Logger       *slog.Logger
}

// Server is the console web server
type Server struct {
	app     *fiber.App
	cfg     Config
	console *console.Console
	logger  *slog.Logger
	started time.Time

	// Hubs for websocket broadcast
	telemetryHub *hub.Hub
	panelHub     *hub.Hub
}

// NewServer creates the console server
func NewServer(c *console.Console, cfg Config) *Server {
	if cfg.RelayTimeout <= 0 {
		cfg.RelayTimeout = DefaultRelayTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	s := &Server{
		cfg:          cfg,
		console:      c,
		logger:       cfg.Logger.With("component", "web"),
		started:      time.Now(),
		telemetryHub: hub.New("telemetry", cfg.Logger),
		panelHub:     hub.New("panel", cfg.Logger, hub.WithReplay()),
	}

	c.Default().Panel.SetRenderer(panelRenderer{s.panelHub})

	app := fiber.New(fiber.Config{
		AppName:               "vega console",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(s.accessLog)
	if cfg.Verifier != nil {
		app.Use(auth.NewMiddleware(cfg.Verifier, "/api/health").Handler())
	}

	// API routes
	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/joy", s.handleJoy)
	api.Get("/panel", s.handleGetPanel)
	api.Post("/panel/:button", s.handleClick)
	api.Get("/sliders", s.handleGetSliders)
	api.Post("/slider/:name/reset", s.handleSliderReset)
	api.Post("/slider/:name/:value", s.handleSliderChange)

	// Relays to the robot
	api.Get("/stats", s.handleStats)
	api.Get("/offsets", s.handleGetOffsets)
	api.Post("/offsets", s.handleSetOffsets)
	api.Get("/targets", s.handleGetTargets)
	api.Post("/targets", s.handleSetTargets)
	api.Get("/tilt", s.handleGetTilt)
	api.Post("/pose/:name", s.handlePose)
	api.Post("/level", s.handleLevel)
	api.Get("/demo", s.handleDemo)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/control", contribws.New(s.handleControlWS))
	app.Get("/ws/telemetry", websocket.New(s.handleTelemetryWS))
	app.Get("/ws/panel", websocket.New(s.handlePanelWS))

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App returns the fiber app, for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and serves on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve starts the hubs and serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.telemetryHub.Run(ctx)
	go s.panelHub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("console listening", "addr", ln.Addr().String())
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// ShowTelemetry broadcasts a snapshot to every telemetry socket.
func (s *Server) ShowTelemetry(t control.Telemetry) {
	if err := s.telemetryHub.BroadcastJSON(t); err != nil {
		s.logger.Error("telemetry encode failed", "err", err)
	}
}

// handleError renders errors as JSON.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= 500 {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// accessLog logs each request at debug level.
func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// panelRenderer pushes panel state to /ws/panel subscribers.
type panelRenderer struct {
	hub *hub.Hub
}

func (r panelRenderer) Render(v any) {
	r.hub.BroadcastJSON(fiber.Map{"type": "panel", "buttons": v})
}
