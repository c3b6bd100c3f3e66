package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v79"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload produces a Stripe-Signature header for payload the way
// Stripe computes it: HMAC-SHA256 over "timestamp.payload".
func signPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func completedSessionPayload(sessionID string, amountTotal int64, metadata map[string]string) []byte {
	meta := ""
	for k, v := range metadata {
		if meta != "" {
			meta += ","
		}
		meta += fmt.Sprintf("%q:%q", k, v)
	}
	return []byte(fmt.Sprintf(
		`{"id":"evt_1","api_version":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"object":"checkout.session","amount_total":%d,"metadata":{%s}}}}`,
		stripe.APIVersion, sessionID, amountTotal, meta))
}

func TestWebhookProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("completed checkout credits the ledger", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		ledger.On("Credit", 7, int64(650), int64(5000), "cs_abc").
			Return(CreditApplied, nil)

		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookCredited, result)
		ledger.AssertExpectations(t)
	})

	t.Run("bad signature has no side effects", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})

		result := p.Process(ctx, payload, signPayload(t, payload, "whsec_wrong_secret"))
		assert.Equal(t, WebhookBadSignature, result)
		ledger.AssertNotCalled(t, "Credit")
	})

	t.Run("tampered body has no side effects", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})
		header := signPayload(t, payload, testWebhookSecret)

		tampered := bytes.Replace(payload, []byte(`"premium":"650"`), []byte(`"premium":"9999"`), 1)
		result := p.Process(ctx, tampered, header)
		assert.Equal(t, WebhookBadSignature, result)
		ledger.AssertNotCalled(t, "Credit")
	})

	t.Run("other event types acknowledge as no-ops", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := []byte(fmt.Sprintf(`{"id":"evt_2","api_version":%q,"type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`, stripe.APIVersion))

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookIgnored, result)
		ledger.AssertNotCalled(t, "Credit")
	})

	t.Run("missing metadata", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"premium": "650"})

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookInvalidPayload, result)
		ledger.AssertNotCalled(t, "Credit")
	})

	t.Run("non-numeric premium metadata", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "lots"})

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookInvalidPayload, result)
		ledger.AssertNotCalled(t, "Credit")
	})

	t.Run("duplicate delivery acknowledges without crediting", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		ledger.On("Credit", 7, int64(650), int64(5000), "cs_abc").
			Return(CreditAlreadyApplied, nil)

		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookDuplicate, result)
		ledger.AssertExpectations(t)
	})

	t.Run("persistence failure defers", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		ledger.On("Credit", 7, int64(650), int64(5000), "cs_abc").
			Return(CreditOutcome(0), errors.New("connection reset"))

		p := NewWebhookProcessor(ledger, testWebhookSecret)
		payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})

		result := p.Process(ctx, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, WebhookPersistenceFailure, result)
	})
}

func TestWebhookProcessor_HandleStripeWebhook(t *testing.T) {
	payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})

	post := func(p *WebhookProcessor, body []byte, header string) *httptest.ResponseRecorder {
		r := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", bytes.NewReader(body))
		r.Header.Set("Stripe-Signature", header)
		w := httptest.NewRecorder()
		p.HandleStripeWebhook(w, r)
		return w
	}

	t.Run("success responds received", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		ledger.On("Credit", 7, int64(650), int64(5000), "cs_abc").Return(CreditApplied, nil)
		p := NewWebhookProcessor(ledger, testWebhookSecret)

		w := post(p, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"received":true}`, w.Body.String())
	})

	t.Run("bad signature responds 400", func(t *testing.T) {
		p := NewWebhookProcessor(new(MockCreditLedger), testWebhookSecret)

		w := post(p, payload, "t=1,v1=deadbeef")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("persistence failure responds 500 for retry", func(t *testing.T) {
		ledger := new(MockCreditLedger)
		ledger.On("Credit", 7, int64(650), int64(5000), "cs_abc").
			Return(CreditOutcome(0), errors.New("down"))
		p := NewWebhookProcessor(ledger, testWebhookSecret)

		w := post(p, payload, signPayload(t, payload, testWebhookSecret))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

// Redelivery against the real ledger transaction: the second delivery
// hits the unique constraint and acknowledges without a balance update.
func TestWebhookRedeliveryAgainstLedger(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	p := NewWebhookProcessor(NewLedgerService(db), testWebhookSecret)
	payload := completedSessionPayload("cs_abc", 5000, map[string]string{"userId": "7", "premium": "650"})
	header := signPayload(t, payload, testWebhookSecret)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO donation_log").
		WithArgs(7, int64(650), int64(5000), "cs_abc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE game_accounts SET premium").
		WithArgs(int64(650), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO donation_log").
		WithArgs(7, int64(650), int64(5000), "cs_abc", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ctx := context.Background()
	assert.Equal(t, WebhookCredited, p.Process(ctx, payload, header))
	assert.Equal(t, WebhookDuplicate, p.Process(ctx, payload, header))
	assert.NoError(t, mock.ExpectationsWereMet())
}
