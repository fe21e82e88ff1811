package routers

import (
	"io"
	"runtime"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/clinicsim/clinicsim-server/pkg/config"
	"github.com/clinicsim/clinicsim-server/pkg/factory"
	"github.com/clinicsim/clinicsim-server/version"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	rr "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
)

// router is a struct to hold the dependencies for setting up routes,
// allowing us to break down the monolithic New() function into smaller,
// more manageable methods.
type router struct {
	app  *fiber.App
	ctrl *factory.ApplicationControllers
}

func New(appConfig *config.AppConfig, ctrl *factory.ApplicationControllers) *fiber.App {
	// --- Fiber App Configuration ---
	templateEngine := html.New(appConfig.Client.Path, ".html")

	if appConfig.Client.Debug {
		templateEngine.Reload(true)
		templateEngine.Debug(true)
	}

	cnf := fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		Views:       templateEngine,
		AppName:     "clinicsim version: " + version.Version + " runtime: " + runtime.Version(),
	}

	if appConfig.Client.ProxyHeader != "" {
		cnf.ProxyHeader = appConfig.Client.ProxyHeader
	}

	// --- App Initialization & Middleware ---
	app := fiber.New(cnf)

	app.Use(logger.New(logger.Config{
		Done: func(c *fiber.Ctx, logString []byte) {
			appConfig.Logger.Debugln(string(logString))
		},
		Format: "${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}",
		Output: io.Discard,
	}))

	if appConfig.Client.PrometheusConf.Enable {
		prometheus := fiberprometheus.New("clinicsim")
		prometheus.RegisterAt(app, appConfig.Client.PrometheusConf.MetricsPath)
		app.Use(prometheus.Middleware)
	}

	app.Use(rr.New())
	app.Use(cors.New(cors.Config{
		AllowMethods: "POST,GET,DELETE,OPTIONS",
	}))
	app.Static("/assets", appConfig.Client.Path+"/assets")

	// --- Route Registration ---
	r := &router{
		app:  app,
		ctrl: ctrl,
	}

	r.registerBaseRoutes()
	r.registerAPIRoutes()
	r.registerSocketRoutes()

	// --- Final Catch-All 404 Handler ---
	// This MUST be the last middleware to be registered.
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).SendString("not found")
	})

	return app
}

func (r *router) registerBaseRoutes() {
	r.app.Get("/admin", func(c *fiber.Ctx) error {
		return c.Render("admin", nil)
	})
	r.app.Get("/healthCheck", r.ctrl.HealthCheckController.HandleHealthCheck)
}

func (r *router) registerAPIRoutes() {
	api := r.app.Group("/api")
	api.Post("/get-patient-file", r.ctrl.DocumentController.HandleGetPatientFile)
	api.Post("/fetchPastSessions", r.ctrl.SessionHistoryController.HandleFetchPastSessions)

	admin := api.Group("/admin")
	admin.Get("/list-files/:pid", r.ctrl.DocumentController.HandleListPatientFiles)
	admin.Post("/save-file", r.ctrl.DocumentController.HandleSaveFile)
	admin.Delete("/delete-file", r.ctrl.DocumentController.HandleDeleteFile)
	admin.Get("/list-patients", r.ctrl.DocumentController.HandleListPatients)
	admin.Post("/create-patient", r.ctrl.DocumentController.HandleCreatePatient)
	admin.Delete("/delete-patient", r.ctrl.DocumentController.HandleDeletePatient)
}

func (r *router) registerSocketRoutes() {
	r.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	r.app.Get("/ws/transcriber", r.ctrl.SessionController.HandleTranscriberSocket())
	r.app.Get("/ws/simulation/audio", r.ctrl.SessionController.HandleSimulationAudioSocket())
}
