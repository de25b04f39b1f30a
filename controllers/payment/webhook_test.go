package paymentControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/muhammadmasoud/amazon-clone/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"
	"gorm.io/gorm"
)

func intentEvent(id, eventType, intentJSON string) stripe.Event {
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(intentJSON)},
	}
}

func seedCartWithItem(t *testing.T, db *gorm.DB, userID string) models.Cart {
	t.Helper()
	p := seedProduct(t, db, "Extra", "5.00", 10)
	cart := models.Cart{UserID: userID, PromoCode: "SAVE10", DiscountAmount: money(t, "1.00")}
	require.NoError(t, db.Create(&cart).Error)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 1,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)
	return cart
}

func cartItemCount(t *testing.T, db *gorm.DB, cartID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&n).Error)
	return n
}

func TestWebhookIntentSucceededConfirmsOrder(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	order, payment := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_ok")
	cart := seedCartWithItem(t, db, "u1")

	err := ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.succeeded", `{"id":"pi_ok"}`))
	require.NoError(t, err)

	var reloadedPayment models.Payment
	require.NoError(t, db.First(&reloadedPayment, "payment_id = ?", payment.PaymentID).Error)
	assert.Equal(t, models.PaymentStatusSucceeded, reloadedPayment.Status)
	require.NotNil(t, reloadedPayment.PaidAt)

	var reloadedOrder models.Order
	require.NoError(t, db.First(&reloadedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, reloadedOrder.Status)
	assert.True(t, reloadedOrder.IsPaid)
	require.NotNil(t, reloadedOrder.ConfirmedAt)
	require.NotNil(t, reloadedOrder.PaymentDate)

	// Cart wiped and promo reset
	assert.Zero(t, cartItemCount(t, db, cart.CartID))
	var reloadedCart models.Cart
	require.NoError(t, db.First(&reloadedCart, cart.CartID).Error)
	assert.Empty(t, reloadedCart.PromoCode)

	var ledger models.WebhookEvent
	require.NoError(t, db.First(&ledger, "event_id = ?", "evt_1").Error)
	assert.True(t, ledger.Processed)
	require.NotNil(t, ledger.ProcessedAt)
}

func TestWebhookReplayedEventIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	order, _ := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_ok")
	cart := seedCartWithItem(t, db, "u1")

	event := intentEvent("evt_1", "payment_intent.succeeded", `{"id":"pi_ok"}`)
	require.NoError(t, ProcessWebhookEvent(db, event))

	var afterFirst models.Order
	require.NoError(t, db.First(&afterFirst, order.ID).Error)
	confirmedAt := *afterFirst.ConfirmedAt

	// Refill the cart so a second clear would be visible
	p := seedProduct(t, db, "Refill", "3.00", 10)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 1,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)

	require.NoError(t, ProcessWebhookEvent(db, event))

	var afterReplay models.Order
	require.NoError(t, db.First(&afterReplay, order.ID).Error)
	assert.Equal(t, confirmedAt.Unix(), afterReplay.ConfirmedAt.Unix())
	assert.EqualValues(t, 1, cartItemCount(t, db, cart.CartID), "replay must not clear the cart again")

	var ledgerCount int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&ledgerCount).Error)
	assert.EqualValues(t, 1, ledgerCount)
}

func TestWebhookDistinctEventSameIntentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	order, _ := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_ok")
	cart := seedCartWithItem(t, db, "u1")

	require.NoError(t, ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.succeeded", `{"id":"pi_ok"}`)))

	// The synchronous confirm endpoint and a redelivered webhook can
	// both report the same intent under fresh event ids
	p := seedProduct(t, db, "Refill", "3.00", 10)
	require.NoError(t, db.Create(&models.CartItem{
		CartID: cart.CartID, ProductID: p.ID, Quantity: 1,
		PriceWhenAdded: p.UnitPrice, AddedAt: time.Now(),
	}).Error)

	require.NoError(t, ProcessWebhookEvent(db, intentEvent("evt_2", "payment_intent.succeeded", `{"id":"pi_ok"}`)))

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, reloaded.Status)
	assert.EqualValues(t, 1, cartItemCount(t, db, cart.CartID))
}

func TestWebhookStaleFailureAfterSuccessIsIgnored(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	order, payment := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_ok")
	seedCartWithItem(t, db, "u1")

	require.NoError(t, ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.succeeded", `{"id":"pi_ok"}`)))

	// Failure event for the same intent arrives late under a new id
	require.NoError(t, ProcessWebhookEvent(db, intentEvent("evt_2", "payment_intent.payment_failed",
		`{"id":"pi_ok","last_payment_error":{"message":"Your card was declined."}}`)))

	var reloadedPayment models.Payment
	require.NoError(t, db.First(&reloadedPayment, "payment_id = ?", payment.PaymentID).Error)
	assert.Equal(t, models.PaymentStatusSucceeded, reloadedPayment.Status)
	assert.Empty(t, reloadedPayment.FailureReason)

	var reloadedOrder models.Order
	require.NoError(t, db.First(&reloadedOrder, order.ID).Error)
	assert.Equal(t, models.OrderStatusConfirmed, reloadedOrder.Status)
}

func TestWebhookIntentFailedStoresReason(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	_, payment := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_bad")

	err := ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.payment_failed",
		`{"id":"pi_bad","last_payment_error":{"message":"Your card was declined."}}`))
	require.NoError(t, err)

	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, "payment_id = ?", payment.PaymentID).Error)
	assert.Equal(t, models.PaymentStatusFailed, reloaded.Status)
	assert.Equal(t, "Your card was declined.", reloaded.FailureReason)
}

func TestWebhookIntentFailedDefaultReason(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "u1")
	_, payment := seedOrderWithPayment(t, db, "u1", models.PaymentStatusPending, "pi_bad")

	err := ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.payment_failed", `{"id":"pi_bad"}`))
	require.NoError(t, err)

	var reloaded models.Payment
	require.NoError(t, db.First(&reloaded, "payment_id = ?", payment.PaymentID).Error)
	assert.Equal(t, "Payment failed", reloaded.FailureReason)
}

func TestWebhookUnknownIntentStillMarksProcessed(t *testing.T) {
	db := setupTestDB(t)

	err := ProcessWebhookEvent(db, intentEvent("evt_1", "payment_intent.succeeded", `{"id":"pi_unknown"}`))
	require.NoError(t, err)

	var ledger models.WebhookEvent
	require.NoError(t, db.First(&ledger, "event_id = ?", "evt_1").Error)
	assert.True(t, ledger.Processed)
}

func TestWebhookUnhandledEventType(t *testing.T) {
	db := setupTestDB(t)

	err := ProcessWebhookEvent(db, intentEvent("evt_1", "charge.refunded", `{"id":"ch_1"}`))
	require.NoError(t, err)

	var ledger models.WebhookEvent
	require.NoError(t, db.First(&ledger, "event_id = ?", "evt_1").Error)
	assert.True(t, ledger.Processed)
	assert.Equal(t, "charge.refunded", ledger.EventType)
}

func TestStripeWebhookHandlerRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments/webhook",
		strings.NewReader(`{"id":"evt_1","type":"payment_intent.succeeded"}`))
	c.Request.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	StripeWebhookHandler(db, "whsec_test")(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var ledgerCount int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).Count(&ledgerCount).Error)
	assert.Zero(t, ledgerCount, "unverified payloads never reach the ledger")
}
