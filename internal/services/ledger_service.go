package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gameportal/backend/internal/models"
)

// CreditOutcome reports whether a credit changed the balance or was
// recognized as a redelivered duplicate.
type CreditOutcome int

const (
	CreditApplied CreditOutcome = iota
	CreditAlreadyApplied
)

// LedgerService owns the donation ledger and the premium balance on the
// game account. Each Stripe session credits at most once: the unique
// constraint on stripe_session_id is the only guard, so two concurrent
// deliveries of the same session cannot both apply.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// Credit appends a ledger entry and increments the account balance in
// one transaction. A session id already present yields
// CreditAlreadyApplied with no balance change.
func (s *LedgerService) Credit(ctx context.Context, userID int, premium, amountCents int64, stripeSessionID string) (CreditOutcome, error) {
	if premium <= 0 {
		return 0, fmt.Errorf("non-positive premium credit %d", premium)
	}
	if stripeSessionID == "" {
		return 0, fmt.Errorf("empty stripe session id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO donation_log (user_id, premium, amount_cents, stripe_session_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stripe_session_id) DO NOTHING`,
		userID, premium, amountCents, stripeSessionID, time.Now())
	if err != nil {
		return 0, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if inserted == 0 {
		// Redelivery of a session already in the ledger.
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return CreditAlreadyApplied, nil
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE game_accounts
		SET premium = premium + $1
		WHERE id = $2`,
		premium, userID)
	if err != nil {
		return 0, err
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, fmt.Errorf("no game account with id %d", userID)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return CreditApplied, nil
}

// BalanceOf returns the premium balance on the game account.
func (s *LedgerService) BalanceOf(ctx context.Context, userID int) (int64, error) {
	var premium int64
	err := s.db.QueryRowContext(ctx,
		"SELECT premium FROM game_accounts WHERE id = $1", userID).Scan(&premium)
	if err != nil {
		return 0, err
	}
	return premium, nil
}

// RecentDonations lists the newest ledger entries for the admin view.
func (s *LedgerService) RecentDonations(ctx context.Context, limit int) ([]models.DonationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, premium, amount_cents, stripe_session_id, created_at
		FROM donation_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.DonationEntry{}
	for rows.Next() {
		var e models.DonationEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Premium, &e.AmountCents, &e.StripeSessionID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DonationTotals sums the ledger for the admin view.
func (s *LedgerService) DonationTotals(ctx context.Context) (premium, amountCents int64, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(premium), 0), COALESCE(SUM(amount_cents), 0)
		FROM donation_log`).Scan(&premium, &amountCents)
	return premium, amountCents, err
}

// GetBalance returns the caller's premium balance
// @Summary Premium balance
// @Description Return the authenticated user's premium balance
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]int64 "Premium balance"
// @Failure 401 {string} string "Not authenticated"
// @Router /auth/balance [get]
func (s *LedgerService) GetBalance(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Not authenticated", http.StatusUnauthorized, nil)
		return
	}

	premium, err := s.BalanceOf(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("[LEDGER] Balance read failed for user %d: %v", claims.UserID, err)
		SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"premium": premium})
}

// ListDonations serves the admin donation overview
// @Summary Recent donations
// @Description List recent ledger entries with running totals
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Donations and totals"
// @Failure 401 {string} string "Not authenticated"
// @Failure 403 {string} string "Insufficient access"
// @Router /admin/donations [get]
func (s *LedgerService) ListDonations(w http.ResponseWriter, r *http.Request) {
	entries, err := s.RecentDonations(r.Context(), 50)
	if err != nil {
		log.Printf("[LEDGER] Donation listing failed: %v", err)
		SendErrorResponse(w, "Failed to fetch donations", http.StatusInternalServerError, nil)
		return
	}

	totalPremium, totalCents, err := s.DonationTotals(r.Context())
	if err != nil {
		log.Printf("[LEDGER] Donation totals failed: %v", err)
		SendErrorResponse(w, "Failed to fetch donations", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"donations":        entries,
		"totalPremium":     totalPremium,
		"totalAmountCents": totalCents,
	})
}
