package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/pipeline"
)

const requestIDKey = "requestid"

// multipartSlack is the room left in the body limit for multipart headers
// and the focus field, so an upload of exactly MaxUploadBytes is accepted.
const multipartSlack = 64 << 10

// Options configures the HTTP server.
type Options struct {
	// MaxUploadBytes is the largest accepted image file.
	MaxUploadBytes int

	// Version is reported by /health.
	Version string

	Logger zerolog.Logger
}

// Server is the HTTP front end of the OCR pipeline.
type Server struct {
	app     *fiber.App
	proc    *pipeline.Processor
	opts    Options
	started time.Time
}

// New builds the fiber application and registers the routes.
func New(proc *pipeline.Processor, opts Options) *Server {
	s := &Server{proc: proc, opts: opts, started: time.Now()}

	s.app = fiber.New(fiber.Config{
		AppName:               "focus-ocr",
		BodyLimit:             opts.MaxUploadBytes + multipartSlack,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	s.app.Use(s.accessLog)
	s.app.Use(recover.New())
	s.app.Use(cors.New())

	s.app.Get("/check", s.handleCheck)
	s.app.Get("/health", s.handleHealth)
	s.app.Post("/ocr", s.handleOCR)

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.opts.Logger.Info().Str("addr", addr).Msg("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// accessLog puts a request-scoped logger into the user context and logs each
// request once it has been answered.
func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	rid, _ := c.Locals(requestIDKey).(string)
	l := logger.WithRequestID(s.opts.Logger, rid)
	c.SetUserContext(l.WithContext(c.UserContext()))

	if err := c.Next(); err != nil {
		if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	event := l.Info()
	if status >= fiber.StatusInternalServerError {
		event = l.Error()
	} else if status >= fiber.StatusBadRequest {
		event = l.Warn()
	}
	event.
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("request")
	return nil
}
