package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"github.com/plankhq/plank-api/internal/services"
)

const webhookTestSecret = "whsec_test_secret"

type billingTestEnv struct {
	db       *gorm.DB
	handler  *BillingHandler
	customer models.Customer
}

func setupBillingTestEnv(t *testing.T) billingTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.TeamMember{},
		&models.TeamMemberInvite{},
		&models.Customer{},
		&models.Label{},
		&models.Project{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	hub := realtime.NewHub(zap.NewNop())
	broadcaster := realtime.NewBroadcaster(hub, zap.NewNop())
	customerService := services.NewCustomerService(
		db,
		repository.NewCustomerRepository(db),
		repository.NewWorkspaceRepository(db),
		broadcaster,
	)
	handler := NewBillingHandler(customerService, webhookTestSecret, zap.NewNop())

	workspace := models.Workspace{Title: "Billed"}
	require.NoError(t, db.Create(&workspace).Error)
	customer := models.Customer{
		WorkspaceID:        workspace.ID,
		SubscriptionStatus: models.SubscriptionUnpaid,
	}
	require.NoError(t, db.Create(&customer).Error)

	return billingTestEnv{
		db:       db,
		handler:  handler,
		customer: customer,
	}
}

// signPayload builds a Stripe-Signature header for the payload the way
// the provider does: v1 is HMAC-SHA256 over "<timestamp>.<payload>".
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, env billingTestEnv, payload string, signature string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.POST("/webhooks/stripe", env.handler.HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(payload)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBillingHandler_WebhookRejectsBadSignature(t *testing.T) {
	env := setupBillingTestEnv(t)

	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`
	w := postWebhook(t, env, payload, signPayload([]byte(payload), "whsec_wrong"))

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBillingHandler_CheckoutCompletedActivatesCustomer(t *testing.T) {
	env := setupBillingTestEnv(t)

	payload := fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_1",
				"customer": {"id": "cus_42"},
				"metadata": {"customer_uuid": %q, "seats": "7"}
			}
		}
	}`, env.customer.UUID)
	w := postWebhook(t, env, payload, signPayload([]byte(payload), webhookTestSecret))

	require.Equal(t, http.StatusOK, w.Code)

	var customer models.Customer
	require.NoError(t, env.db.First(&customer, env.customer.ID).Error)
	require.Equal(t, models.SubscriptionActive, customer.SubscriptionStatus)
	require.Equal(t, "cus_42", customer.StripeCustomerID)
	require.Equal(t, 7, customer.Seats)
}

func TestBillingHandler_SubscriptionDeletedCancelsCustomer(t *testing.T) {
	env := setupBillingTestEnv(t)

	require.NoError(t, env.db.Model(&models.Customer{}).
		Where("id = ?", env.customer.ID).
		Updates(map[string]any{
			"subscription_status": models.SubscriptionActive,
			"stripe_customer_id":  "cus_42",
		}).Error)

	payload := `{
		"id": "evt_2",
		"type": "customer.subscription.deleted",
		"data": {
			"object": {
				"id": "sub_1",
				"customer": {"id": "cus_42"}
			}
		}
	}`
	w := postWebhook(t, env, payload, signPayload([]byte(payload), webhookTestSecret))

	require.Equal(t, http.StatusOK, w.Code)

	var customer models.Customer
	require.NoError(t, env.db.First(&customer, env.customer.ID).Error)
	require.Equal(t, models.SubscriptionCancelled, customer.SubscriptionStatus)
}

func TestBillingHandler_UnknownEventIsAcknowledged(t *testing.T) {
	env := setupBillingTestEnv(t)

	payload := `{"id":"evt_3","type":"charge.refunded","data":{"object":{}}}`
	w := postWebhook(t, env, payload, signPayload([]byte(payload), webhookTestSecret))

	require.Equal(t, http.StatusOK, w.Code)
}
