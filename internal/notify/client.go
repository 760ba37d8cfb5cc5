package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"aquadesk-backend/internal/config"
	"aquadesk-backend/internal/models"
)

// Client sends delivery receipts to customers over a WhatsApp-style message
// gateway. Delivery of the message is best effort: callers fire and forget,
// failures are logged and never surfaced as ledger errors.
type Client struct {
	http     *resty.Client
	senderID string
	enabled  bool
	log      *zap.Logger
}

func NewClient(cfg config.NotifyConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AccessToken == "" {
		return &Client{enabled: false, log: log}
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	http := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", base, cfg.APIVersion)).
		SetHeader("Authorization", "Bearer "+cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)

	return &Client{http: http, senderID: cfg.SenderID, enabled: true, log: log}
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendDeliveryReceipt formats and sends the receipt for a recorded delivery.
func (c *Client) SendDeliveryReceipt(ctx context.Context, customer models.Customer, rec models.Transaction) {
	if !c.enabled || customer.Phone == "" {
		return
	}

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               customer.Phone,
		Type:             "text",
	}
	payload.Text.Body = receiptBody(customer, rec)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(fmt.Sprintf("/%s/messages", c.senderID))
	if err != nil {
		c.log.Warn("delivery receipt not sent",
			zap.String("reference", rec.Reference),
			zap.Error(err),
		)
		return
	}
	if resp.IsError() {
		c.log.Warn("delivery receipt rejected by gateway",
			zap.String("reference", rec.Reference),
			zap.Int("status", resp.StatusCode()),
		)
	}
}

func receiptBody(customer models.Customer, rec models.Transaction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, your delivery is recorded.\n", customer.Name)
	fmt.Fprintf(&b, "Bottles delivered: %d", rec.Filled)
	if rec.FOC > 0 {
		fmt.Fprintf(&b, " (%d free)", rec.FOC)
	}
	fmt.Fprintf(&b, "\nEmpties collected: %d\n", rec.Empty)
	fmt.Fprintf(&b, "Bill: %s, paid: %s (%s)\n", rec.Bill.StringFixed(2), rec.Payment.StringFixed(2), rec.Channel)
	switch {
	case rec.BalanceAfter.IsPositive():
		fmt.Fprintf(&b, "Outstanding balance: %s", rec.BalanceAfter.StringFixed(2))
	case rec.BalanceAfter.IsNegative():
		fmt.Fprintf(&b, "Credit with us: %s", rec.BalanceAfter.Neg().StringFixed(2))
	default:
		b.WriteString("Your account is settled.")
	}
	fmt.Fprintf(&b, "\nRef: %s", rec.Reference)
	return b.String()
}
