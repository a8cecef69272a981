package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nictjader/siren-backend/internal/domain/model"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coin balance")
	ErrAlreadyUnlocked   = errors.New("story already unlocked")
)

// LedgerRepo owns every mutation of a user's coin balance and its paired
// history/unlock appends. Balance changes are always expressed as atomic
// deltas and each credit/debit shares one transaction with its record append.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

type CreditResult struct {
	NewBalance int
	Applied    bool
	Record     model.PurchaseRecord
}

// Credit appends a purchase record and increments the coin balance in one
// transaction. The checkout session id is the idempotency key: a session
// already present in history short-circuits with Applied=false and no
// balance change, so provider webhook retries apply at most once.
func (r *LedgerRepo) Credit(ctx context.Context, userID string, pkg model.CoinPackage, checkoutSessionID string) (CreditResult, error) {
	if r.pool == nil {
		return CreditResult{}, fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	checkoutSessionID = strings.TrimSpace(checkoutSessionID)
	if userID == "" || pkg.ID == "" || pkg.Coins <= 0 || checkoutSessionID == "" {
		return CreditResult{}, fmt.Errorf("invalid credit payload")
	}

	var result CreditResult
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var sessionID *string
		err := tx.QueryRow(ctx, `
INSERT INTO purchases (user_id, package_id, coins, price_usd_cents, checkout_session_id, created_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (checkout_session_id) DO NOTHING
RETURNING id, user_id, package_id, coins, price_usd_cents, checkout_session_id, created_at
`, userID, pkg.ID, pkg.Coins, pkg.PriceUSDCents, checkoutSessionID).Scan(
			&result.Record.ID,
			&result.Record.UserID,
			&result.Record.PackageID,
			&result.Record.Coins,
			&result.Record.PriceUSDCents,
			&sessionID,
			&result.Record.CreatedAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			// Session already fulfilled; report the current balance untouched.
			result.Applied = false
			balErr := tx.QueryRow(ctx, `SELECT coins FROM users WHERE id = $1`, userID).Scan(&result.NewBalance)
			if errors.Is(balErr, pgx.ErrNoRows) {
				return ErrUserNotFound
			}
			if balErr != nil {
				return fmt.Errorf("read balance: %w", balErr)
			}
			return nil
		}
		if err != nil {
			// The user_id foreign key rejects credits for profiles that do
			// not exist yet; no ledger row is written.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrUserNotFound
			}
			return fmt.Errorf("append purchase record: %w", err)
		}
		result.Record.CheckoutSessionID = sessionID

		err = tx.QueryRow(ctx, `
UPDATE users
SET coins = coins + $2
WHERE id = $1
RETURNING coins
`, userID, pkg.Coins).Scan(&result.NewBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("increment balance: %w", err)
		}

		result.Applied = true
		return nil
	})
	if err != nil {
		return CreditResult{}, err
	}

	return result, nil
}

// DebitForUnlock charges a premium story's coin cost and appends the unlock
// record in one transaction. The conditional decrement keeps the balance
// non-negative under concurrent unlocks.
func (r *LedgerRepo) DebitForUnlock(ctx context.Context, userID, storyID string, coinCost int, at time.Time) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	storyID = strings.TrimSpace(storyID)
	if userID == "" || storyID == "" || coinCost < 0 {
		return 0, fmt.Errorf("invalid unlock payload")
	}

	var newBalance int
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
INSERT INTO story_unlocks (user_id, story_id, unlocked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, story_id) DO NOTHING
`, userID, storyID, at.UTC())
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrUserNotFound
			}
			return fmt.Errorf("append unlock record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyUnlocked
		}

		err = tx.QueryRow(ctx, `
UPDATE users
SET coins = coins - $2
WHERE id = $1 AND coins >= $2
RETURNING coins
`, userID, coinCost).Scan(&newBalance)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); checkErr != nil {
				return fmt.Errorf("check user exists: %w", checkErr)
			}
			if !exists {
				return ErrUserNotFound
			}
			return ErrInsufficientCoins
		}
		if err != nil {
			return fmt.Errorf("decrement balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

func (r *LedgerRepo) ListHistory(ctx context.Context, userID string) ([]model.PurchaseRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, package_id, coins, price_usd_cents, checkout_session_id, created_at
FROM purchases
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list purchase history: %w", err)
	}
	defer rows.Close()

	out := make([]model.PurchaseRecord, 0)
	for rows.Next() {
		var rec model.PurchaseRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.PackageID,
			&rec.Coins,
			&rec.PriceUSDCents,
			&rec.CheckoutSessionID,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase record: %w", err)
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate purchase history: %w", rows.Err())
	}

	return out, nil
}
