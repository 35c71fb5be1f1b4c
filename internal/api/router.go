package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/docs"
	"github.com/yosuketsuboi/kakeibo-app/internal/api/handlers"
	"github.com/yosuketsuboi/kakeibo-app/pkg/auth"
	"github.com/yosuketsuboi/kakeibo-app/pkg/config"
	"github.com/yosuketsuboi/kakeibo-app/pkg/middleware"
)

type RouterDeps struct {
	Auth       *handlers.AuthHandler
	Households *handlers.HouseholdHandler
	Receipts   *handlers.ReceiptHandler
	Categories *handlers.CategoryHandler
	Expenses   *handlers.ExpenseHandler
	Reports    *handlers.ReportHandler

	JWTManager *auth.JWTManager
	Membership middleware.MembershipChecker
	Config     *config.Config
	Logger     *zap.Logger
}

func SetupRouter(deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: deps.Config.Server.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Swagger docs are registered by the docs package init()
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Receipt images saved by the local storage driver
	if deps.Config.Storage.Driver == "local" {
		app.Static("/uploads", deps.Config.Storage.LocalDir)
	}

	// Auth routes (public)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", deps.Auth.Register)
	authGroup.Post("/login", deps.Auth.Login)
	authGroup.Post("/refresh", deps.Auth.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(deps.JWTManager, deps.Logger))

	protected.Post("/invitations/:token/accept", deps.Households.Accept)

	households := protected.Group("/households")
	households.Post("", deps.Households.Create)
	households.Get("", deps.Households.List)

	// Everything below is scoped to a single household the user belongs to
	scoped := households.Group("/:householdID", middleware.HouseholdMiddleware(deps.Membership, deps.Logger))
	scoped.Get("/members", deps.Households.Members)
	scoped.Post("/invitations", deps.Households.Invite)

	receipts := scoped.Group("/receipts")
	receipts.Post("", deps.Receipts.Upload)
	receipts.Get("", deps.Receipts.List)
	receipts.Get("/:id", deps.Receipts.Detail)
	receipts.Put("/:id", deps.Receipts.Save)
	receipts.Post("/:id/reprocess", deps.Receipts.Reprocess)
	receipts.Delete("/:id", deps.Receipts.Delete)

	categories := scoped.Group("/categories")
	categories.Get("", deps.Categories.List)
	categories.Post("", deps.Categories.Create)
	categories.Put("/:id", deps.Categories.Update)
	categories.Delete("/:id", deps.Categories.Delete)

	expenses := scoped.Group("/expenses")
	expenses.Get("", deps.Expenses.List)
	expenses.Post("", deps.Expenses.Create)
	expenses.Put("/:id", deps.Expenses.Update)
	expenses.Delete("/:id", deps.Expenses.Delete)

	reports := scoped.Group("/reports")
	reports.Get("/monthly", deps.Reports.Monthly)
	reports.Get("/monthly/export", deps.Reports.Export)

	return app
}
