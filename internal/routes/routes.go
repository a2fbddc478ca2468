package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/vsrfleet/inspection-backend/internal/config"
	"github.com/vsrfleet/inspection-backend/internal/handlers"
	"github.com/vsrfleet/inspection-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	inspectionHandler *handlers.InspectionHandler,
	imageHandler *handlers.ImageHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Inspections — self-service (JWT required)
	inspections := api.Group("/inspections", middleware.JWTProtected(cfg))
	inspections.Post("/", inspectionHandler.Create)
	inspections.Get("/", inspectionHandler.ListMine)
	inspections.Get("/:id", inspectionHandler.Get)
	inspections.Delete("/:id", inspectionHandler.Delete)
	inspections.Post("/:id/images", imageHandler.Upload)
	inspections.Get("/:id/images", imageHandler.List)

	// Photo metadata addressed by its own id
	images := api.Group("/images", middleware.JWTProtected(cfg))
	images.Delete("/:id", imageHandler.Delete)
	images.Get("/:id/fresh-url", imageHandler.FreshURL)

	// Admin surface. The JWT only authenticates; authorization is the
	// services' role gate, so unknown callers get 403, never 404.
	admin := api.Group("/admin", middleware.JWTProtected(cfg))

	// Bootstrap gets a stricter limit: it is secret-guarded and should only
	// ever be called a handful of times.
	admin.Post("/bootstrap", limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}), adminHandler.Bootstrap)

	admin.Get("/status", adminHandler.Status)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/role", adminHandler.UpdateRole)
	admin.Post("/promote", adminHandler.Promote)
	admin.Post("/merge-duplicates", adminHandler.MergeDuplicates)
	admin.Post("/backfill-emails", adminHandler.BackfillEmails)
	admin.Get("/inspections", adminHandler.ListInspections)
	admin.Get("/inspections/:id", adminHandler.GetInspection)
	admin.Put("/inspections/:id", adminHandler.UpdateInspection)
	admin.Delete("/inspections/:id", adminHandler.DeleteInspection)
	admin.Get("/reports/defects", adminHandler.DefectReport)
	admin.Get("/stats", adminHandler.Stats)
}
