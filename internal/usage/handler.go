package usage

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/models"
)

type StockPickupRequest struct {
	ModeratorID uint   `json:"moderator_id"`
	Day         string `json:"day"`
	Filled      int    `json:"filled"`
	Caps        int    `json:"caps"`
}

type ReturnRequest struct {
	ModeratorID       uint   `json:"moderator_id"`
	Day               string `json:"day"`
	EmptyReturned     int    `json:"empty_returned"`
	RemainingReturned int    `json:"remaining_returned"`
	Caps              int    `json:"caps"`
}

type ExpenseRequest struct {
	ModeratorID     uint            `json:"moderator_id"`
	Day             string          `json:"day"`
	Amount          decimal.Decimal `json:"amount"`
	RefilledBottles int             `json:"refilled_bottles"`
	Note            string          `json:"note"`
}

type ExpenseResponse struct {
	ID              uint            `json:"id"`
	ModeratorID     uint            `json:"moderator_id"`
	Day             string          `json:"day"`
	Amount          decimal.Decimal `json:"amount"`
	RefilledBottles int             `json:"refilled_bottles"`
	Note            string          `json:"note"`
}

type SetDoneRequest struct {
	ModeratorID uint   `json:"moderator_id"`
	Day         string `json:"day"`
	Done        bool   `json:"done"`
}

type ResetRequest struct {
	ModeratorID uint   `json:"moderator_id"`
	Day         string `json:"day"`
}

type UsageResponse struct {
	ID                uint            `json:"id"`
	ModeratorID       uint            `json:"moderator_id"`
	Day               string          `json:"day"`
	State             string          `json:"state"`
	FilledTaken       int             `json:"filled_taken"`
	Sold              int             `json:"sold"`
	EmptyCollected    int             `json:"empty_collected"`
	Remaining         int             `json:"remaining"`
	Damaged           int             `json:"damaged"`
	ReturnedEmpty     int             `json:"returned_empty"`
	ReturnedRemaining int             `json:"returned_remaining"`
	CapsTaken         int             `json:"caps_taken"`
	CapsUsed          int             `json:"caps_used"`
	RefilledBottles   int             `json:"refilled_bottles"`
	Revenue           decimal.Decimal `json:"revenue"`
	Expense           decimal.Decimal `json:"expense"`
	Done              bool            `json:"done"`
}

func toUsageResponse(u models.BottleUsage) UsageResponse {
	return UsageResponse{
		ID:                u.ID,
		ModeratorID:       u.ModeratorID,
		Day:               u.Day.Format("2006-01-02"),
		State:             string(u.State()),
		FilledTaken:       u.FilledTaken,
		Sold:              u.Sold,
		EmptyCollected:    u.EmptyCollected,
		Remaining:         u.Remaining,
		Damaged:           u.Damaged,
		ReturnedEmpty:     u.ReturnedEmpty,
		ReturnedRemaining: u.ReturnedRemaining,
		CapsTaken:         u.CapsTaken,
		CapsUsed:          u.CapsUsed,
		RefilledBottles:   u.RefilledBottles,
		Revenue:           u.Revenue,
		Expense:           u.Expense,
		Done:              u.Done,
	}
}

func statusFromLedgerError(err error) error {
	switch {
	case ledger.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrInvalidQuantity):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "day must be 'YYYY-MM-DD'")
	}
	return d, nil
}

// POST /api/usages/open
// Explicit "start my day" action; rolls forward yesterday's unconsumed stock.
func OpenUsageHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		u, err := svc.OpenUsage(c.Context(), body.ModeratorID, day)
		if err != nil {
			return statusFromLedgerError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(toUsageResponse(*u))
	}
}

// POST /api/usages/pickup
func StockPickupHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body StockPickupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 || body.Filled <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id and a positive filled count are required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		if err := svc.RecordStockPickup(c.Context(), body.ModeratorID, day, body.Filled, body.Caps); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// POST /api/usages/return
func ReturnHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		if err := svc.RecordReturn(c.Context(), body.ModeratorID, day, body.EmptyReturned, body.RemainingReturned, body.Caps); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusCreated)
	}
}

// POST /api/usages/expense
func ExpenseHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExpenseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 || !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id and a positive amount are required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}

		rec, err := svc.RecordExpense(c.Context(), ledger.RecordExpenseInput{
			ModeratorID:     body.ModeratorID,
			Day:             day,
			Amount:          body.Amount,
			RefilledBottles: body.RefilledBottles,
			Note:            body.Note,
		})
		if err != nil {
			return statusFromLedgerError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(ExpenseResponse{
			ID:              rec.ID,
			ModeratorID:     rec.ModeratorID,
			Day:             rec.Day.Format("2006-01-02"),
			Amount:          rec.Amount,
			RefilledBottles: rec.RefilledBottles,
			Note:            rec.Note,
		})
	}
}

// DELETE /api/usage-expenses/:id
func ReverseExpenseHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid expense id")
		}
		if err := svc.ReverseExpense(c.Context(), id); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PUT /api/usages/done
func SetDoneHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body SetDoneRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		if err := svc.SetDone(c.Context(), body.ModeratorID, day, body.Done); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/usages/reset
func ResetHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.ModeratorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}
		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		if err := svc.ResetUsage(c.Context(), body.ModeratorID, day); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/usages?moderator_id=...&day=...            (single day)
// GET /api/usages?moderator_id=...&from=...&to=...    (range)
func GetUsagesHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var moderatorID uint
		if _, err := fmt.Sscan(c.Query("moderator_id"), &moderatorID); err != nil || moderatorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}

		if dayStr := c.Query("day"); dayStr != "" {
			day, err := parseDay(dayStr)
			if err != nil {
				return err
			}
			u, err := svc.Usage(c.Context(), moderatorID, day)
			if err != nil {
				return statusFromLedgerError(err)
			}
			return c.JSON(toUsageResponse(*u))
		}

		from, err := parseDay(c.Query("from"))
		if err != nil {
			return err
		}
		to, err := parseDay(c.Query("to"))
		if err != nil {
			return err
		}
		rows, err := svc.UsageRange(c.Context(), moderatorID, from, to)
		if err != nil {
			return statusFromLedgerError(err)
		}

		resp := make([]UsageResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toUsageResponse(r))
		}
		return c.JSON(resp)
	}
}
