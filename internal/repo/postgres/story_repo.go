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

var ErrStoryNotFound = errors.New("story not found")

// idBatchCeiling mirrors the document-store limit on identifier-set
// membership queries; larger id sets are split into multiple queries.
const idBatchCeiling = 30

type StoryRepo struct {
	pool *pgxpool.Pool
}

func NewStoryRepo(pool *pgxpool.Pool) *StoryRepo {
	return &StoryRepo{pool: pool}
}

const storyColumns = `
id, title, body, preview, subgenre, premium, coin_cost, word_count,
cover_key, series_id, series_title, part_number, total_parts, published_at`

type StoryListQuery struct {
	Subgenre enums.Subgenre
	// Cursor-mode paging: return stories published strictly before After.
	HasCursor bool
	After     time.Time
	AfterID   string
	Limit     int
}

func (r *StoryRepo) List(ctx context.Context, q StoryListQuery) ([]model.Story, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	applySubgenre := strings.TrimSpace(string(q.Subgenre)) != ""
	applyLimit := q.Limit > 0
	limit := q.Limit
	if !applyLimit {
		limit = 1 << 30
	}
	afterID := strings.TrimSpace(q.AfterID)

	rows, err := r.pool.Query(ctx, `
SELECT `+storyColumns+`
FROM stories
WHERE
	($1::boolean = FALSE OR subgenre = $2)
	AND (
		$3::boolean = FALSE
		OR published_at < $4::timestamptz
		OR (published_at = $4::timestamptz AND id < $5)
	)
ORDER BY published_at DESC, id DESC
LIMIT $6
`,
		applySubgenre,    // $1
		string(q.Subgenre), // $2
		q.HasCursor,      // $3
		q.After.UTC(),    // $4
		afterID,          // $5
		limit,            // $6
	)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	return collectStories(rows)
}

func (r *StoryRepo) FindByID(ctx context.Context, storyID string) (model.Story, error) {
	if r.pool == nil {
		return model.Story{}, fmt.Errorf("postgres pool is nil")
	}
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return model.Story{}, fmt.Errorf("invalid story id")
	}

	story, err := scanStory(r.pool.QueryRow(ctx, `
SELECT `+storyColumns+`
FROM stories
WHERE id = $1
LIMIT 1
`, storyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Story{}, ErrStoryNotFound
		}
		return model.Story{}, fmt.Errorf("find story by id: %w", err)
	}

	return story, nil
}

// ListByIDs fetches stories for an arbitrary id set, issuing one query per
// batch of at most idBatchCeiling ids. Missing ids are silently skipped.
func (r *StoryRepo) ListByIDs(ctx context.Context, storyIDs []string) ([]model.Story, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	ids := make([]string, 0, len(storyIDs))
	seen := make(map[string]struct{}, len(storyIDs))
	for _, id := range storyIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []model.Story{}, nil
	}

	out := make([]model.Story, 0, len(ids))
	for start := 0; start < len(ids); start += idBatchCeiling {
		end := start + idBatchCeiling
		if end > len(ids) {
			end = len(ids)
		}

		rows, err := r.pool.Query(ctx, `
SELECT `+storyColumns+`
FROM stories
WHERE id = ANY($1::text[])
ORDER BY published_at DESC, id DESC
`, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("list stories by ids: %w", err)
		}

		batch, err := collectStories(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}

	return out, nil
}

func (r *StoryRepo) ListBySeries(ctx context.Context, seriesID string) ([]model.Story, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, fmt.Errorf("invalid series id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+storyColumns+`
FROM stories
WHERE series_id = $1
ORDER BY part_number ASC NULLS LAST, published_at ASC
`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series stories: %w", err)
	}
	defer rows.Close()

	return collectStories(rows)
}

func (r *StoryRepo) Insert(ctx context.Context, story model.Story) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(story.ID) == "" || strings.TrimSpace(story.Title) == "" {
		return fmt.Errorf("invalid story payload")
	}
	publishedAt := story.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO stories (
	id, title, body, preview, subgenre, premium, coin_cost, word_count,
	cover_key, series_id, series_title, part_number, total_parts, published_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`,
		story.ID,
		story.Title,
		story.Body,
		story.Preview,
		string(story.Subgenre),
		story.Premium,
		story.CoinCost,
		story.WordCount,
		story.CoverKey,
		story.SeriesID,
		story.SeriesTitle,
		story.PartNumber,
		story.TotalParts,
		publishedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert story: %w", err)
	}

	return nil
}

// UpdateCoinCost applies an out-of-band price correction. The story stays
// immutable otherwise.
func (r *StoryRepo) UpdateCoinCost(ctx context.Context, storyID string, coinCost int) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(storyID) == "" || coinCost < 0 {
		return fmt.Errorf("invalid price correction payload")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE stories
SET coin_cost = $2, premium = ($2 > 0)
WHERE id = $1
`, strings.TrimSpace(storyID), coinCost)
	if err != nil {
		return fmt.Errorf("update story coin cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoryNotFound
	}

	return nil
}

func collectStories(rows pgx.Rows) ([]model.Story, error) {
	defer rows.Close()

	out := make([]model.Story, 0)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		out = append(out, story)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate stories: %w", rows.Err())
	}

	return out, nil
}

func scanStory(row pgx.Row) (model.Story, error) {
	var (
		story    model.Story
		subgenre string
	)
	if err := row.Scan(
		&story.ID,
		&story.Title,
		&story.Body,
		&story.Preview,
		&subgenre,
		&story.Premium,
		&story.CoinCost,
		&story.WordCount,
		&story.CoverKey,
		&story.SeriesID,
		&story.SeriesTitle,
		&story.PartNumber,
		&story.TotalParts,
		&story.PublishedAt,
	); err != nil {
		return model.Story{}, err
	}
	story.Subgenre = enums.Subgenre(subgenre)
	return story, nil
}
