package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/backoffice/internal/config"
	"github.com/example/backoffice/internal/handlers"
	"github.com/example/backoffice/internal/middleware"
	"github.com/example/backoffice/internal/services"
	"github.com/example/backoffice/internal/tokens"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Tokens   *tokens.Service
	Accounts *services.AccountService
	Resets   *services.PasswordResetService
	Orders   *services.OrderService
}

// NewApp builds the Fiber app with the shared middleware stack.
// X-Forwarded-For is honoured only when the peer is one of cfg.TrustedProxies.
func NewApp(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:                 "Backoffice",
		ErrorHandler:            handlers.ErrorHandler(log),
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.TrustedProxies,
		EnableIPValidation:      true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logging(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.ClientURL,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Accounts)
	resetHandler := handlers.NewPasswordResetHandler(deps.Resets)
	profileHandler := handlers.NewProfileHandler(deps.Accounts)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	adminHandler := handlers.NewAdminHandler(deps.Accounts, deps.Orders)

	requireSession := middleware.AuthMiddleware(deps.Tokens)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"status": "ok"}})
	})

	// Account routes
	account := app.Group("/account")
	account.Post("/signup", authHandler.Signup)
	account.Post("/login", authHandler.Login)
	account.Post("/forgot-password", resetHandler.ForgotPassword)
	account.Post("/reset-password", resetHandler.ResetPassword)

	// Profile routes
	profile := app.Group("/user-profile", requireSession)
	profile.Get("/:id", profileHandler.GetProfile)
	profile.Put("/:id", profileHandler.UpdateProfile)

	// Admin routes
	admin := app.Group("/admin", requireSession)
	admin.Post("/create-order", orderHandler.CreateOrder)
	admin.Put("/update-order/:id", orderHandler.UpdateOrder)
	admin.Delete("/delete-order/:id", orderHandler.DeleteOrder)
	admin.Get("/orders", orderHandler.ListOrders)
	admin.Get("/users/orderlist/:id", orderHandler.ListOrdersByOwner)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Get("/stats", adminHandler.DashboardStats)
}
