package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/logger"
)

const version = "1.0.0"

// Deps is everything the HTTP layer needs. Jobs, History, Logs and Gatherer
// are optional; their routes are only registered when set.
type Deps struct {
	Analyzer       Analyzer
	Jobs           JobQueue
	History        History
	Logs           *logger.Buffer
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	MaxFileSizeMB  int
	AllowedFormats []string
	RequestLogging bool
}

// NewApp builds the fiber application with all routes registered.
func NewApp(d Deps) *fiber.App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             (d.MaxFileSizeMB + 1) * 1024 * 1024, // room for multipart framing
		ErrorHandler:          ErrorHandler(d.Logger, d.AllowedFormats),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if d.RequestLogging {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	uploadHandler := NewUploadHandler(d.Analyzer, d.MaxFileSizeMB, d.AllowedFormats)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	})

	app.Get("/", uploadHandler.Form)
	app.Post("/analyze", uploadHandler.Handle)
	app.Post("/api/analyze", uploadHandler.HandleAPI)

	if d.Jobs != nil {
		gdriveHandler := NewGDriveHandler(d.Jobs, d.MaxFileSizeMB, d.AllowedFormats, d.Logger)
		streamHandler := NewStreamHandler(d.Jobs, d.MaxFileSizeMB, d.AllowedFormats, d.Logger)
		jobsHandler := NewJobsHandler(d.Jobs)

		app.Post("/api/gdrive", gdriveHandler.Handle)
		app.Get("/api/jobs/:id", jobsHandler.Get)
		app.Use("/ws", RequireUpgrade)
		app.Get("/ws/stream", websocket.New(streamHandler.Handle))
	}

	if d.History != nil {
		historyHandler := NewHistoryHandler(d.History)
		app.Get("/api/analyses", historyHandler.List)
		app.Get("/api/analyses/:id", historyHandler.Get)
	}

	if d.Logs != nil {
		app.Get("/logs", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"logs": d.Logs.Lines(),
			})
		})
	}

	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	return app
}
