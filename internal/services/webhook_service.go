package services

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// WebhookResult is the terminal state of processing one delivery.
type WebhookResult int

const (
	// WebhookCredited: a completed checkout was applied to the ledger.
	WebhookCredited WebhookResult = iota
	// WebhookDuplicate: the session was already in the ledger; no-op.
	WebhookDuplicate
	// WebhookIgnored: an event type this portal does not act on.
	WebhookIgnored
	// WebhookBadSignature: signature mismatch; rejected with no side effects.
	WebhookBadSignature
	// WebhookInvalidPayload: verified but missing or malformed metadata.
	WebhookInvalidPayload
	// WebhookPersistenceFailure: the credit did not durably apply; the
	// processor must redeliver.
	WebhookPersistenceFailure
)

// CreditLedger is the slice of the ledger the webhook needs.
type CreditLedger interface {
	Credit(ctx context.Context, userID int, premium, amountCents int64, stripeSessionID string) (CreditOutcome, error)
}

// WebhookProcessor authenticates payment-completion events and applies
// them to the ledger. Deliveries may arrive retried, duplicated, or out
// of order; the idempotent credit makes all of that safe.
type WebhookProcessor struct {
	ledger CreditLedger
	secret string
}

func NewWebhookProcessor(ledger CreditLedger, webhookSecret string) *WebhookProcessor {
	return &WebhookProcessor{
		ledger: ledger,
		secret: webhookSecret,
	}
}

// Process runs one delivery through the pipeline: verify signature over
// the exact raw bytes, parse the event, extract the metadata attached
// at checkout creation, credit the ledger. Nothing in the payload is
// trusted before the signature checks out.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, sigHeader string) WebhookResult {
	event, err := webhook.ConstructEvent(payload, sigHeader, p.secret)
	if err != nil {
		log.Printf("[WEBHOOK] Signature verification failed: %v", err)
		return WebhookBadSignature
	}

	if string(event.Type) != "checkout.session.completed" {
		log.Printf("[WEBHOOK] Ignoring event type %s", event.Type)
		return WebhookIgnored
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		log.Printf("[WEBHOOK] Failed to parse checkout session: %v", err)
		return WebhookInvalidPayload
	}

	// Only the metadata written at checkout creation decides who gets
	// credited and how much.
	userID, err := strconv.Atoi(sess.Metadata["userId"])
	if err != nil || userID <= 0 {
		log.Printf("[WEBHOOK] Session %s has bad userId metadata", sess.ID)
		return WebhookInvalidPayload
	}

	premium, err := strconv.ParseInt(sess.Metadata["premium"], 10, 64)
	if err != nil || premium <= 0 {
		log.Printf("[WEBHOOK] Session %s has bad premium metadata", sess.ID)
		return WebhookInvalidPayload
	}

	outcome, err := p.ledger.Credit(ctx, userID, premium, sess.AmountTotal, sess.ID)
	if err != nil {
		log.Printf("[WEBHOOK] Credit for session %s failed: %v", sess.ID, err)
		return WebhookPersistenceFailure
	}

	if outcome == CreditAlreadyApplied {
		log.Printf("[WEBHOOK] Session %s already credited, acknowledging duplicate", sess.ID)
		return WebhookDuplicate
	}

	log.Printf("[WEBHOOK] Credited %d premium to user %d (session %s)", premium, userID, sess.ID)
	return WebhookCredited
}

// HandleStripeWebhook receives payment-completion events
// @Summary Stripe webhook
// @Description Receive and reconcile payment-completion events
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool "Acknowledged"
// @Failure 400 {string} string "Bad signature or payload"
// @Failure 500 {string} string "Persistence failure, retry expected"
// @Router /webhooks/stripe [post]
func (p *WebhookProcessor) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	// The signature is computed over the exact bytes; the body must not
	// be parsed or transformed before verification.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		SendErrorResponse(w, "Failed to read request body", http.StatusBadRequest, nil)
		return
	}

	result := p.Process(r.Context(), payload, r.Header.Get("Stripe-Signature"))

	switch result {
	case WebhookCredited, WebhookDuplicate, WebhookIgnored:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"received": true})
	case WebhookBadSignature:
		SendErrorResponse(w, "Invalid signature", http.StatusBadRequest, nil)
	case WebhookInvalidPayload:
		SendErrorResponse(w, "Invalid payload", http.StatusBadRequest, nil)
	default:
		// 5xx tells the processor to retry; the idempotent credit makes
		// the redelivery safe.
		SendErrorResponse(w, "Failed to apply credit", http.StatusInternalServerError, nil)
	}
}
