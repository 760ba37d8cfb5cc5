package customer

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"aquadesk-backend/internal/database"
	"aquadesk-backend/internal/models"
)

type CreateCustomerRequest struct {
	Name                  string          `json:"name"`
	Phone                 string          `json:"phone"`
	Address               string          `json:"address"`
	BottlesHeld           int             `json:"bottles_held"`
	DepositBottles        int             `json:"deposit_bottles"`
	PricePerBottle        decimal.Decimal `json:"price_per_bottle"`
	DepositPricePerBottle decimal.Decimal `json:"deposit_price_per_bottle"`
	OpeningBalance        decimal.Decimal `json:"opening_balance"`
}

type UpdateCustomerRequest struct {
	Name                  *string          `json:"name"`
	Phone                 *string          `json:"phone"`
	Address               *string          `json:"address"`
	PricePerBottle        *decimal.Decimal `json:"price_per_bottle"`
	DepositPricePerBottle *decimal.Decimal `json:"deposit_price_per_bottle"`
	Active                *bool            `json:"active"`
}

type CustomerResponse struct {
	ID                    uint            `json:"id"`
	Name                  string          `json:"name"`
	Phone                 string          `json:"phone"`
	Address               string          `json:"address"`
	BottlesHeld           int             `json:"bottles_held"`
	DepositBottles        int             `json:"deposit_bottles"`
	PricePerBottle        decimal.Decimal `json:"price_per_bottle"`
	DepositPricePerBottle decimal.Decimal `json:"deposit_price_per_bottle"`
	Balance               decimal.Decimal `json:"balance"`
	Active                bool            `json:"active"`
}

func toResponse(c models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                    c.ID,
		Name:                  c.Name,
		Phone:                 c.Phone,
		Address:               c.Address,
		BottlesHeld:           c.BottlesHeld,
		DepositBottles:        c.DepositBottles,
		PricePerBottle:        c.PricePerBottle,
		DepositPricePerBottle: c.DepositPricePerBottle,
		Balance:               c.Balance,
		Active:                c.Active,
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		if body.BottlesHeld < 0 || body.DepositBottles < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "bottle counts must not be negative")
		}
		if body.PricePerBottle.IsNegative() || body.DepositPricePerBottle.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "prices must not be negative")
		}

		cust := models.Customer{
			Name:                  body.Name,
			Phone:                 strings.TrimSpace(body.Phone),
			Address:               body.Address,
			BottlesHeld:           body.BottlesHeld,
			DepositBottles:        body.DepositBottles,
			PricePerBottle:        body.PricePerBottle,
			DepositPricePerBottle: body.DepositPricePerBottle,
			Balance:               body.OpeningBalance,
			Active:                true,
		}
		if err := database.DB.Create(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create customer")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(cust))
	}
}

// GET /api/customers?active=true
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Customer{})
		if c.Query("active") == "true" {
			dbq = dbq.Where("active = ?", true)
		}

		var rows []models.Customer
		if err := dbq.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list customers")
		}

		resp := make([]CustomerResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cust models.Customer
		if err := database.DB.First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return c.JSON(toResponse(cust))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cust models.Customer
		if err := database.DB.First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}

		var body UpdateCustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			cust.Name = name
		}
		if body.Phone != nil {
			cust.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Address != nil {
			cust.Address = *body.Address
		}
		if body.PricePerBottle != nil {
			if body.PricePerBottle.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
			}
			cust.PricePerBottle = *body.PricePerBottle
		}
		if body.DepositPricePerBottle != nil {
			if body.DepositPricePerBottle.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "deposit price must not be negative")
			}
			cust.DepositPricePerBottle = *body.DepositPricePerBottle
		}
		if body.Active != nil {
			cust.Active = *body.Active
		}

		if err := database.DB.Save(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update customer")
		}
		return c.JSON(toResponse(cust))
	}
}

// DELETE /api/customers/:id
// Customers are soft-deactivated; delivery history keeps referencing them.
func DeactivateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cust models.Customer
		if err := database.DB.First(&cust, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}

		cust.Active = false
		if err := database.DB.Save(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not deactivate customer")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
