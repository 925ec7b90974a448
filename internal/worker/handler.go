// Package worker processes order.placed events: it captures payment for
// the order, records the outcome on the order, and requests the
// customer-facing email.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

// ErrPaymentDeclined is returned by a Capturer when the charge is
// rejected rather than failing transiently.
var ErrPaymentDeclined = errors.New("payment declined")

// Capturer charges the customer for a placed order.
type Capturer interface {
	Capture(ctx context.Context, event domain.OrderPlacedEvent) error
}

type PaymentHandler struct {
	apiURL     string
	emailURL   string
	capturer   Capturer
	httpClient *http.Client
	logger     *slog.Logger
}

func NewPaymentHandler(apiURL, emailURL string, capturer Capturer, client *http.Client, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		apiURL:     apiURL,
		emailURL:   emailURL,
		capturer:   capturer,
		httpClient: client,
		logger:     logger,
	}
}

// Handle processes one order.placed payload. Reprocessing the same event
// is safe: the payment status update and the emails key off the order id.
func (h *PaymentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	if err := h.capturer.Capture(ctx, event); err != nil {
		if !errors.Is(err, ErrPaymentDeclined) {
			return fmt.Errorf("capture payment for order %d: %w", event.OrderID, err)
		}

		h.logger.Info("payment declined", "order_id", event.OrderID)

		if err := h.updatePaymentStatus(ctx, event.OrderID, domain.PaymentStatusFailed); err != nil {
			return fmt.Errorf("mark order failed: %w", err)
		}
		if err := h.sendFailureEmail(ctx, event); err != nil {
			return fmt.Errorf("send payment failure email: %w", err)
		}
		return nil
	}

	if err := h.updatePaymentStatus(ctx, event.OrderID, domain.PaymentStatusComplete); err != nil {
		return fmt.Errorf("mark order complete: %w", err)
	}
	if err := h.sendConfirmationEmail(ctx, event); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order payment complete", "order_id", event.OrderID, "total", event.Total)
	return nil
}

func (h *PaymentHandler) updatePaymentStatus(ctx context.Context, orderID int64, status domain.PaymentStatus) error {
	body := map[string]string{"payment_status": string(status)}
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/orders/%d/payment-status", h.apiURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("storefront api returned status %d", resp.StatusCode)
	}

	return nil
}

func (h *PaymentHandler) sendConfirmationEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	return h.sendEmail(ctx, map[string]string{
		"to":      fmt.Sprintf("customer-%d@example.com", event.CustomerID),
		"subject": fmt.Sprintf("Order #%d confirmed", event.OrderID),
		"body":    fmt.Sprintf("Your order #%d with %d items totalling %s has been paid.", event.OrderID, len(event.Items), event.Total),
	})
}

func (h *PaymentHandler) sendFailureEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	return h.sendEmail(ctx, map[string]string{
		"to":      fmt.Sprintf("customer-%d@example.com", event.CustomerID),
		"subject": fmt.Sprintf("Payment failed for order #%d", event.OrderID),
		"body":    fmt.Sprintf("We could not charge you for order #%d. Please check your payment method.", event.OrderID),
	})
}

func (h *PaymentHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
