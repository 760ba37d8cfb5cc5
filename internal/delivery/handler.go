package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aquadesk-backend/internal/database"
	"aquadesk-backend/internal/ledger"
	"aquadesk-backend/internal/models"
	"aquadesk-backend/internal/notify"
)

type RecordDeliveryRequest struct {
	CustomerID   uint            `json:"customer_id"`
	ModeratorID  uint            `json:"moderator_id"`
	Day          string          `json:"day"` // "2025-12-09"
	Filled       int             `json:"filled"`
	Empty        int             `json:"empty"`
	FOC          int             `json:"foc"`
	Damaged      int             `json:"damaged"`
	DepositGiven int             `json:"deposit_given"`
	DepositTaken int             `json:"deposit_taken"`
	Payment      decimal.Decimal `json:"payment"`
	Channel      string          `json:"channel"` // "cash" / "online"
}

type TransactionResponse struct {
	ID            uint            `json:"id"`
	Reference     string          `json:"reference"`
	CustomerID    uint            `json:"customer_id"`
	ModeratorID   uint            `json:"moderator_id"`
	Day           string          `json:"day"`
	Filled        int             `json:"filled"`
	Empty         int             `json:"empty"`
	FOC           int             `json:"foc"`
	Damaged       int             `json:"damaged"`
	DepositGiven  int             `json:"deposit_given"`
	DepositTaken  int             `json:"deposit_taken"`
	Bill          decimal.Decimal `json:"bill"`
	Payment       decimal.Decimal `json:"payment"`
	Channel       string          `json:"channel"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     string          `json:"created_at"`
}

type RecordAdHocRequest struct {
	ModeratorID uint            `json:"moderator_id"`
	Day         string          `json:"day"`
	BuyerName   string          `json:"buyer_name"`
	Filled      int             `json:"filled"`
	Empty       int             `json:"empty"`
	Damaged     int             `json:"damaged"`
	Payment     decimal.Decimal `json:"payment"`
	Channel     string          `json:"channel"`
}

type AdHocResponse struct {
	ID          uint            `json:"id"`
	Reference   string          `json:"reference"`
	ModeratorID uint            `json:"moderator_id"`
	BuyerName   string          `json:"buyer_name"`
	Day         string          `json:"day"`
	Filled      int             `json:"filled"`
	Empty       int             `json:"empty"`
	Damaged     int             `json:"damaged"`
	Payment     decimal.Decimal `json:"payment"`
	Channel     string          `json:"channel"`
}

func toTransactionResponse(t models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Reference:     t.Reference,
		CustomerID:    t.CustomerID,
		ModeratorID:   t.ModeratorID,
		Day:           t.Day.Format("2006-01-02"),
		Filled:        t.Filled,
		Empty:         t.Empty,
		FOC:           t.FOC,
		Damaged:       t.Damaged,
		DepositGiven:  t.DepositGiven,
		DepositTaken:  t.DepositTaken,
		Bill:          t.Bill,
		Payment:       t.Payment,
		Channel:       string(t.Channel),
		BalanceBefore: t.BalanceBefore,
		BalanceAfter:  t.BalanceAfter,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

// statusFromLedgerError maps ledger sentinels to HTTP failures without
// losing the human-readable detail.
func statusFromLedgerError(err error) error {
	switch {
	case ledger.IsNotFound(err):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrCustomerInactive),
		errors.Is(err, ledger.ErrInsufficientStock),
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

func parseChannel(s string) (models.PaymentChannel, error) {
	switch models.PaymentChannel(s) {
	case models.PaymentCash, models.PaymentOnline:
		return models.PaymentChannel(s), nil
	default:
		return "", fiber.NewError(fiber.StatusBadRequest, "channel must be 'cash' or 'online'")
	}
}

// POST /api/deliveries
func RecordDeliveryHandler(svc *ledger.Service, notifier *notify.Client, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordDeliveryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.CustomerID == 0 || body.ModeratorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "customer_id and moderator_id are required")
		}

		day, err := parseDay(body.Day)
		if err != nil {
			return err
		}
		channel, err := parseChannel(body.Channel)
		if err != nil {
			return err
		}

		rec, err := svc.RecordDelivery(c.Context(), ledger.RecordDeliveryInput{
			CustomerID:   body.CustomerID,
			ModeratorID:  body.ModeratorID,
			Day:          day,
			Filled:       body.Filled,
			Empty:        body.Empty,
			FOC:          body.FOC,
			Damaged:      body.Damaged,
			DepositGiven: body.DepositGiven,
			DepositTaken: body.DepositTaken,
			Payment:      body.Payment,
			Channel:      channel,
		})
		if err != nil {
			return statusFromLedgerError(err)
		}

		// Receipt dispatch is fire and forget; a gateway failure never
		// rolls back or fails the recorded delivery.
		var cust models.Customer
		if err := database.DB.First(&cust, "id = ?", rec.CustomerID).Error; err == nil {
			go func(cust models.Customer, rec models.Transaction) {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				notifier.SendDeliveryReceipt(ctx, cust, rec)
			}(cust, *rec)
		} else {
			log.Warn("customer reload for receipt failed", zap.Error(err))
		}

		return c.Status(fiber.StatusCreated).JSON(toTransactionResponse(*rec))
	}
}

// DELETE /api/deliveries/:id
func ReverseDeliveryHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
		}
		if err := svc.ReverseDelivery(c.Context(), id); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/transactions?moderator_id=...&day=...
func ListTransactionsHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var moderatorID uint
		if _, err := fmt.Sscan(c.Query("moderator_id"), &moderatorID); err != nil || moderatorID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "moderator_id is required")
		}
		day, err := parseDay(c.Query("day"))
		if err != nil {
			return err
		}

		rows, err := svc.TransactionsForDay(c.Context(), moderatorID, day)
		if err != nil {
			return statusFromLedgerError(err)
		}

		resp := make([]TransactionResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toTransactionResponse(r))
		}
		return c.JSON(resp)
	}
}

// POST /api/adhoc-deliveries
func RecordAdHocHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecordAdHocRequest
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
		channel, err := parseChannel(body.Channel)
		if err != nil {
			return err
		}

		rec, err := svc.RecordAdHocDelivery(c.Context(), ledger.RecordAdHocInput{
			ModeratorID: body.ModeratorID,
			Day:         day,
			BuyerName:   body.BuyerName,
			Filled:      body.Filled,
			Empty:       body.Empty,
			Damaged:     body.Damaged,
			Payment:     body.Payment,
			Channel:     channel,
		})
		if err != nil {
			return statusFromLedgerError(err)
		}

		return c.Status(fiber.StatusCreated).JSON(AdHocResponse{
			ID:          rec.ID,
			Reference:   rec.Reference,
			ModeratorID: rec.ModeratorID,
			BuyerName:   rec.BuyerName,
			Day:         rec.Day.Format("2006-01-02"),
			Filled:      rec.Filled,
			Empty:       rec.Empty,
			Damaged:     rec.Damaged,
			Payment:     rec.Payment,
			Channel:     string(rec.Channel),
		})
	}
}

// DELETE /api/adhoc-deliveries/:id
func ReverseAdHocHandler(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
		}
		if err := svc.ReverseAdHocDelivery(c.Context(), id); err != nil {
			return statusFromLedgerError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
