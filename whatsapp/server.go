package whatsapp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/ARYAN-9099/whatsapp-bot-public/types"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Publisher accepts events for asynchronous processing. It reports false when the event
// could not be queued.
type Publisher interface {
	Publish(event types.InboundEvent) bool
}

// WebhookConfig holds the secrets the webhook endpoints check.
type WebhookConfig struct {
	VerifyToken string
	AppSecret   string
}

// MaxWebhookBody caps the size of a webhook request body.
const MaxWebhookBody = "1M"

// Server receives Cloud API webhooks over echo.
type Server struct {
	echo      *echo.Echo
	addr      string
	cfg       WebhookConfig
	publisher Publisher
	logger    *logging.Logger
}

// NewServer builds the webhook server listening on addr (":8000" when empty).
func NewServer(addr string, cfg WebhookConfig, publisher Publisher, logger *logging.Logger) *Server {
	if addr == "" {
		addr = ":8000"
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Component("webhook")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxWebhookBody))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
			)
			return nil
		},
	}))

	s := &Server{
		echo:      e,
		addr:      addr,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
	}
	s.Register(e)
	return s
}

// Register mounts the webhook routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/webhook", s.verify)
	e.POST("/webhook", s.receive)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("webhook server listening", "addr", s.addr)
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// verify answers the subscription handshake:
// GET /webhook?hub.mode=subscribe&hub.verify_token=xxx&hub.challenge=yyy
func (s *Server) verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "" || token == "" {
		s.logger.Warn("webhook verification missing parameters")
		return c.String(http.StatusBadRequest, "missing parameters")
	}
	if mode != "subscribe" || token != s.cfg.VerifyToken {
		s.logger.Warn("webhook verification failed", "mode", mode)
		return c.String(http.StatusForbidden, "verification failed")
	}

	s.logger.Info("webhook verified")
	return c.String(http.StatusOK, challenge)
}

func (s *Server) receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			s.logger.Warn("webhook body rejected", "error", err.Error())
			return he
		}
		s.logger.Error("error reading webhook body", "error", err.Error())
		return c.JSON(http.StatusBadRequest, map[string]string{"status": "error", "message": "unreadable body"})
	}

	if !VerifySignature(s.cfg.AppSecret, body, c.Request().Header.Get("X-Hub-Signature-256")) {
		s.logger.Warn("webhook signature verification failed")
		return c.JSON(http.StatusForbidden, map[string]string{"status": "error", "message": "invalid signature"})
	}

	event, ok := ParseEvent(body)
	if !ok {
		// status updates and other notifications still get a 200 so Meta stops retrying
		metrics.InvalidPayloadCount.Add(1)
		s.logger.Debug("webhook without a message ignored")
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}

	metrics.WhatsAppMessageReceived.Add(1)
	if !s.publisher.Publish(event) {
		// the gate has not seen the event yet, so Meta's redelivery is processed normally
		s.logger.Warn("event not queued, asking for redelivery", "eventID", event.ID)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "busy"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
