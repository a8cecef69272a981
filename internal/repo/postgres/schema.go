package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS stories (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	preview TEXT NOT NULL DEFAULT '',
	subgenre TEXT NOT NULL,
	premium BOOLEAN NOT NULL DEFAULT FALSE,
	coin_cost INT NOT NULL DEFAULT 0 CHECK (coin_cost >= 0),
	word_count INT NOT NULL DEFAULT 0,
	cover_key TEXT NOT NULL DEFAULT '',
	series_id TEXT,
	series_title TEXT NOT NULL DEFAULT '',
	part_number INT,
	total_parts INT,
	published_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_stories_subgenre_published
	ON stories (subgenre, published_at DESC);
CREATE INDEX IF NOT EXISTS idx_stories_series
	ON stories (series_id, part_number);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	picture_url TEXT NOT NULL DEFAULT '',
	coins INT NOT NULL DEFAULT 0 CHECK (coins >= 0),
	subgenre_prefs TEXT[] NOT NULL DEFAULT '{}',
	provider_customer_id TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS purchases (
	id BIGSERIAL PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	package_id TEXT NOT NULL,
	coins INT NOT NULL,
	price_usd_cents INT NOT NULL,
	checkout_session_id TEXT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS story_unlocks (
	user_id TEXT NOT NULL REFERENCES users(id),
	story_id TEXT NOT NULL REFERENCES stories(id),
	unlocked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, story_id)
);

CREATE TABLE IF NOT EXISTS story_reads (
	user_id TEXT NOT NULL REFERENCES users(id),
	story_id TEXT NOT NULL REFERENCES stories(id),
	read_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, story_id)
);

CREATE TABLE IF NOT EXISTS story_favorites (
	user_id TEXT NOT NULL REFERENCES users(id),
	story_id TEXT NOT NULL REFERENCES stories(id),
	favorited_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, story_id)
);
`

// Migrate applies the idempotent schema. Called once at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
