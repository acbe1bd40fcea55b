package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/services"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

// BillingHandler coordinates customer reads and the billing provider
// webhook.
type BillingHandler struct {
	customerService *services.CustomerService
	webhookSecret   string
	logger          *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(customerService *services.CustomerService, webhookSecret string, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		customerService: customerService,
		webhookSecret:   webhookSecret,
		logger:          logger,
	}
}

// GetCustomer returns the billing record of a workspace.
func (h *BillingHandler) GetCustomer(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	customer, err := h.customerService.GetForWorkspace(userID, c.Param("uuid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCustomerDTO(*customer))
}

// HandleWebhook processes billing provider events. The endpoint is
// unauthenticated; the event signature is the authentication.
func (h *BillingHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error("Error reading webhook body", zap.Error(err))
		apperrors.BadRequest(c, "Error reading request body")
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		h.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		h.logger.Error("Webhook signature verification failed", zap.Error(err))
		apperrors.BadRequest(c, "Webhook signature verification failed")
		return
	}

	h.logger.Info("Webhook event received",
		zap.String("type", string(event.Type)),
		zap.String("id", event.ID),
	)

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			h.logger.Error("Error parsing checkout session", zap.Error(err))
			apperrors.BadRequest(c, "Error parsing webhook")
			return
		}
		customerUUID := session.Metadata["customer_uuid"]
		seats := 1
		if raw, ok := session.Metadata["seats"]; ok {
			if parsed, err := strconv.Atoi(raw); err == nil {
				seats = parsed
			}
		}
		stripeCustomerID := ""
		if session.Customer != nil {
			stripeCustomerID = session.Customer.ID
		}
		if _, err := h.customerService.Activate(customerUUID, stripeCustomerID, seats); err != nil {
			h.logger.Error("Failed to activate customer",
				zap.String("customer_uuid", customerUUID),
				zap.Error(err),
			)
		}

	case stripe.EventTypeCustomerSubscriptionUpdated:
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			h.logger.Error("Error parsing subscription", zap.Error(err))
			apperrors.BadRequest(c, "Error parsing webhook")
			return
		}
		if subscription.Customer == nil {
			break
		}
		seats := 1
		if subscription.Items != nil && len(subscription.Items.Data) > 0 {
			seats = int(subscription.Items.Data[0].Quantity)
		}
		if _, err := h.customerService.SetSeats(subscription.Customer.ID, seats); err != nil {
			h.logger.Error("Failed to update seats",
				zap.String("stripe_customer_id", subscription.Customer.ID),
				zap.Error(err),
			)
		}

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			h.logger.Error("Error parsing subscription", zap.Error(err))
			apperrors.BadRequest(c, "Error parsing webhook")
			return
		}
		if subscription.Customer == nil {
			break
		}
		if _, err := h.customerService.Cancel(subscription.Customer.ID); err != nil {
			h.logger.Error("Failed to cancel customer",
				zap.String("stripe_customer_id", subscription.Customer.ID),
				zap.Error(err),
			)
		}

	case stripe.EventTypeInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			h.logger.Error("Error parsing invoice", zap.Error(err))
			apperrors.BadRequest(c, "Error parsing webhook")
			return
		}
		if invoice.Customer == nil {
			break
		}
		if _, err := h.customerService.Cancel(invoice.Customer.ID); err != nil {
			h.logger.Error("Failed to cancel customer after failed payment",
				zap.String("stripe_customer_id", invoice.Customer.ID),
				zap.Error(err),
			)
		}

	default:
		h.logger.Debug("Unhandled webhook event", zap.String("type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
