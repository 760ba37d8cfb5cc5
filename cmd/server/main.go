package main

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"aquadesk-backend/internal/config"
	"aquadesk-backend/internal/customer"
	"aquadesk-backend/internal/database"
	"aquadesk-backend/internal/delivery"
	"aquadesk-backend/internal/inventory"
	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/moderator"
	"aquadesk-backend/internal/notify"
	"aquadesk-backend/internal/usage"
	"aquadesk-backend/pkg/logger"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	zlog := logger.Must(logger.New())
	defer zlog.Sync()

	ledgerSvc := ledger.NewService(database.DB, logger.Named(zlog, "ledger"))
	notifier := notify.NewClient(cfg.Notify, logger.Named(zlog, "notify"))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			zlog.Error("unexpected error", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Customers
	api.Post("/customers", customer.CreateCustomerHandler())
	api.Get("/customers", customer.ListCustomersHandler())
	api.Get("/customers/:id", customer.GetCustomerHandler())
	api.Put("/customers/:id", customer.UpdateCustomerHandler())
	api.Delete("/customers/:id", customer.DeactivateCustomerHandler())

	// Moderators
	api.Post("/moderators", moderator.CreateModeratorHandler())
	api.Get("/moderators", moderator.ListModeratorsHandler())
	api.Put("/moderators/:id", moderator.UpdateModeratorHandler())

	// Deliveries
	api.Post("/deliveries", delivery.RecordDeliveryHandler(ledgerSvc, notifier, logger.Named(zlog, "delivery")))
	api.Delete("/deliveries/:id", delivery.ReverseDeliveryHandler(ledgerSvc))
	api.Get("/transactions", delivery.ListTransactionsHandler(ledgerSvc))
	api.Post("/adhoc-deliveries", delivery.RecordAdHocHandler(ledgerSvc))
	api.Delete("/adhoc-deliveries/:id", delivery.ReverseAdHocHandler(ledgerSvc))

	// Daily usage
	api.Post("/usages/open", usage.OpenUsageHandler(ledgerSvc))
	api.Post("/usages/pickup", usage.StockPickupHandler(ledgerSvc))
	api.Post("/usages/return", usage.ReturnHandler(ledgerSvc))
	api.Post("/usages/expense", usage.ExpenseHandler(ledgerSvc))
	api.Delete("/usage-expenses/:id", usage.ReverseExpenseHandler(ledgerSvc))
	api.Put("/usages/done", usage.SetDoneHandler(ledgerSvc))
	api.Post("/usages/reset", usage.ResetHandler(ledgerSvc))
	api.Get("/usages", usage.GetUsagesHandler(ledgerSvc))

	// Inventory
	api.Get("/inventory", inventory.GetInventoryHandler(ledgerSvc))
	api.Put("/inventory", inventory.AdjustInventoryHandler(ledgerSvc))

	zlog.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
