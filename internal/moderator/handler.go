package moderator

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"aquadesk-backend/internal/database"
	"aquadesk-backend/internal/models"
)

type CreateModeratorRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type UpdateModeratorRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Active *bool   `json:"active"`
}

type ModeratorResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Active bool   `json:"active"`
}

// POST /api/moderators
func CreateModeratorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateModeratorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		mod := models.Moderator{Name: body.Name, Phone: strings.TrimSpace(body.Phone), Active: true}
		if err := database.DB.Create(&mod).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create moderator")
		}

		return c.Status(fiber.StatusCreated).JSON(ModeratorResponse{
			ID: mod.ID, Name: mod.Name, Phone: mod.Phone, Active: mod.Active,
		})
	}
}

// GET /api/moderators
func ListModeratorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rows []models.Moderator
		if err := database.DB.Order("name asc").Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list moderators")
		}

		resp := make([]ModeratorResponse, 0, len(rows))
		for _, m := range rows {
			resp = append(resp, ModeratorResponse{ID: m.ID, Name: m.Name, Phone: m.Phone, Active: m.Active})
		}
		return c.JSON(resp)
	}
}

// PUT /api/moderators/:id
func UpdateModeratorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var mod models.Moderator
		if err := database.DB.First(&mod, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "moderator not found")
		}

		var body UpdateModeratorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			mod.Name = name
		}
		if body.Phone != nil {
			mod.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Active != nil {
			mod.Active = *body.Active
		}

		if err := database.DB.Save(&mod).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update moderator")
		}
		return c.JSON(ModeratorResponse{ID: mod.ID, Name: mod.Name, Phone: mod.Phone, Active: mod.Active})
	}
}
