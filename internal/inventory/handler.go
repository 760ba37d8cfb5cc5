package inventory

import (
	"github.com/gofiber/fiber/v2"

	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/models"
)

type AdjustInventoryRequest struct {
	TotalBottles  *int `json:"total_bottles"`
	Available     *int `json:"available"`
	InCirculation *int `json:"in_circulation"`
	Damaged       *int `json:"damaged"`
	DepositHeld   *int `json:"deposit_held"`
}

type InventoryResponse struct {
	TotalBottles  int `json:"total_bottles"`
	Available     int `json:"available"`
	InCirculation int `json:"in_circulation"`
	Damaged       int `json:"damaged"`
	DepositHeld   int `json:"deposit_held"`
}

func toResponse(inv models.TotalInventory) InventoryResponse {
	return InventoryResponse{
		TotalBottles:  inv.TotalBottles,
		Available:     inv.Available,
		InCirculation: inv.InCirculation,
		Damaged:       inv.Damaged,
		DepositHeld:   inv.DepositHeld,
	}
}

// GET /api/inventory
func GetInventoryHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, err := svc.Inventory(c.Context())
		if err != nil {
			if ledger.IsNotFound(err) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(toResponse(*inv))
	}
}

// PUT /api/inventory
// Explicit administrative correction of the global counters.
func AdjustInventoryHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body AdjustInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		inv, err := svc.AdjustInventory(c.Context(), ledger.AdjustInventoryInput{
			TotalBottles:  body.TotalBottles,
			Available:     body.Available,
			InCirculation: body.InCirculation,
			Damaged:       body.Damaged,
			DepositHeld:   body.DepositHeld,
		})
		if err != nil {
			if ledger.IsNotFound(err) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(toResponse(*inv))
	}
}
