package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `
id, email, display_name, picture_url, coins, subgenre_prefs,
provider_customer_id, created_at, last_login_at`

// UpsertOnSignIn creates the profile on first sign-in or refreshes identity
// fields and last_login_at on a repeat one. A single merge-write, so
// concurrent first-time sign-ins for the same subject cannot duplicate the
// profile or reset coins and history.
func (r *UserRepo) UpsertOnSignIn(ctx context.Context, id, email, displayName, pictureURL string) (model.UserProfile, error) {
	if r.pool == nil {
		return model.UserProfile{}, fmt.Errorf("postgres pool is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return model.UserProfile{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
INSERT INTO users (id, email, display_name, picture_url, coins, created_at, last_login_at)
VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
ON CONFLICT (id) DO UPDATE SET
	email = EXCLUDED.email,
	display_name = EXCLUDED.display_name,
	picture_url = EXCLUDED.picture_url,
	last_login_at = NOW()
RETURNING `+userColumns+`
`, id, strings.TrimSpace(email), strings.TrimSpace(displayName), strings.TrimSpace(pictureURL)))
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("upsert user on sign-in: %w", err)
	}

	return user, nil
}

func (r *UserRepo) FindByID(ctx context.Context, userID string) (model.UserProfile, error) {
	if r.pool == nil {
		return model.UserProfile{}, fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.UserProfile{}, fmt.Errorf("invalid user id")
	}

	user, err := scanUser(r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = $1
LIMIT 1
`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.UserProfile{}, ErrUserNotFound
		}
		return model.UserProfile{}, fmt.Errorf("find user by id: %w", err)
	}

	return user, nil
}

func (r *UserRepo) UpdateSubgenrePrefs(ctx context.Context, userID string, prefs []enums.Subgenre) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("invalid user id")
	}

	values := make([]string, 0, len(prefs))
	for _, p := range prefs {
		values = append(values, string(p))
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE users
SET subgenre_prefs = $2
WHERE id = $1
`, userID, values)
	if err != nil {
		return fmt.Errorf("update subgenre prefs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *UserRepo) SetProviderCustomerID(ctx context.Context, userID, customerID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	customerID = strings.TrimSpace(customerID)
	if userID == "" || customerID == "" {
		return fmt.Errorf("invalid customer reference payload")
	}

	if _, err := r.pool.Exec(ctx, `
UPDATE users
SET provider_customer_id = $2
WHERE id = $1 AND provider_customer_id IS NULL
`, userID, customerID); err != nil {
		return fmt.Errorf("set provider customer id: %w", err)
	}

	return nil
}

func (r *UserRepo) ListUnlocks(ctx context.Context, userID string) ([]model.UnlockRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT story_id, unlocked_at
FROM story_unlocks
WHERE user_id = $1
ORDER BY unlocked_at DESC
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list story unlocks: %w", err)
	}
	defer rows.Close()

	out := make([]model.UnlockRecord, 0)
	for rows.Next() {
		var rec model.UnlockRecord
		if err := rows.Scan(&rec.StoryID, &rec.UnlockedAt); err != nil {
			return nil, fmt.Errorf("scan story unlock: %w", err)
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate story unlocks: %w", rows.Err())
	}

	return out, nil
}

func (r *UserRepo) HasUnlock(ctx context.Context, userID, storyID string) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM story_unlocks WHERE user_id = $1 AND story_id = $2
)
`, strings.TrimSpace(userID), strings.TrimSpace(storyID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check story unlock: %w", err)
	}

	return exists, nil
}

func (r *UserRepo) MarkRead(ctx context.Context, userID, storyID string, at time.Time) error {
	return r.insertMark(ctx, "story_reads", "read_at", userID, storyID, at)
}

// ToggleFavorite flips the favorite mark and reports the resulting state.
func (r *UserRepo) ToggleFavorite(ctx context.Context, userID, storyID string, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	storyID = strings.TrimSpace(storyID)
	if userID == "" || storyID == "" {
		return false, fmt.Errorf("invalid favorite payload")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM story_favorites
WHERE user_id = $1 AND story_id = $2
`, userID, storyID)
	if err != nil {
		return false, fmt.Errorf("remove story favorite: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO story_favorites (user_id, story_id, favorited_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, story_id) DO NOTHING
`, userID, storyID, at.UTC()); err != nil {
		return false, fmt.Errorf("add story favorite: %w", err)
	}

	return true, nil
}

func (r *UserRepo) ListReadIDs(ctx context.Context, userID string) ([]string, error) {
	return r.listMarkIDs(ctx, "story_reads", "read_at", userID)
}

func (r *UserRepo) ListFavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	return r.listMarkIDs(ctx, "story_favorites", "favorited_at", userID)
}

func (r *UserRepo) insertMark(ctx context.Context, table, tsColumn, userID, storyID string, at time.Time) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	userID = strings.TrimSpace(userID)
	storyID = strings.TrimSpace(storyID)
	if userID == "" || storyID == "" {
		return fmt.Errorf("invalid story mark payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO `+table+` (user_id, story_id, `+tsColumn+`)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, story_id) DO NOTHING
`, userID, storyID, at.UTC()); err != nil {
		return fmt.Errorf("insert story mark: %w", err)
	}

	return nil
}

func (r *UserRepo) listMarkIDs(ctx context.Context, table, tsColumn, userID string) ([]string, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT story_id
FROM `+table+`
WHERE user_id = $1
ORDER BY `+tsColumn+` DESC
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list story marks: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan story mark: %w", err)
		}
		out = append(out, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate story marks: %w", rows.Err())
	}

	return out, nil
}

func scanUser(row pgx.Row) (model.UserProfile, error) {
	var (
		user  model.UserProfile
		prefs []string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PictureURL,
		&user.Coins,
		&prefs,
		&user.ProviderCustomerID,
		&user.CreatedAt,
		&user.LastLoginAt,
	); err != nil {
		return model.UserProfile{}, err
	}

	user.SubgenrePrefs = make([]enums.Subgenre, 0, len(prefs))
	for _, p := range prefs {
		user.SubgenrePrefs = append(user.SubgenrePrefs, enums.Subgenre(p))
	}
	return user, nil
}
