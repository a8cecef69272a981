package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
	"github.com/nictjader/siren-backend/internal/domain/rules"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	coverURLTTL     = 10 * time.Minute
)

var (
	ErrValidation    = errors.New("validation error")
	ErrInvalidCursor = errors.New("invalid cursor")
)

type Repository interface {
	List(ctx context.Context, q pgrepo.StoryListQuery) ([]model.Story, error)
}

// ProjectionCache holds the assembled representative-story list per subgenre.
type ProjectionCache interface {
	Get(ctx context.Context, subgenre string) ([]model.Story, bool, error)
	Set(ctx context.Context, subgenre string, stories []model.Story, ttl time.Duration) error
}

type CoverURLSigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	ProjectionTTL time.Duration
}

type Service struct {
	repo      Repository
	cache     ProjectionCache
	coverSign CoverURLSigner
	cfg       Config
	now       func() time.Time
}

type Item struct {
	Story    model.Story
	CoverURL string
}

type Page struct {
	Items      []Item
	NextCursor string
	NextOffset *int
}

// pageCursor carries the last-seen sort key. The timestamp is kept at
// nanosecond precision so the next-page predicate never lands between a
// truncated value and the story's stored timestamp.
type pageCursor struct {
	PublishedAt int64  `json:"t"`
	StoryID     string `json:"i"`
}

func NewService(repo Repository, cfg Config) *Service {
	if cfg.ProjectionTTL <= 0 {
		cfg.ProjectionTTL = 5 * time.Minute
	}

	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *Service) AttachProjectionCache(cache ProjectionCache) {
	s.cache = cache
}

func (s *Service) AttachCoverSigner(signer CoverURLSigner) {
	s.coverSign = signer
}

// GetPage returns one catalog page. A non-empty cursor selects cursor mode;
// otherwise offset mode runs the full filtered catalog through the series
// assembler so a series never straddles or repeats across page boundaries.
func (s *Service) GetPage(ctx context.Context, subgenre enums.Subgenre, cursor string, offset, limit int) (Page, error) {
	if s.repo == nil {
		return Page{}, fmt.Errorf("catalog repository is nil")
	}
	if offset < 0 {
		return Page{}, ErrValidation
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if strings.TrimSpace(cursor) != "" {
		return s.cursorPage(ctx, subgenre, cursor, limit)
	}
	return s.offsetPage(ctx, subgenre, offset, limit)
}

func (s *Service) cursorPage(ctx context.Context, subgenre enums.Subgenre, cursor string, limit int) (Page, error) {
	decoded, err := decodeCursor(cursor)
	if err != nil {
		return Page{}, err
	}

	stories, err := s.repo.List(ctx, pgrepo.StoryListQuery{
		Subgenre:  subgenre,
		HasCursor: true,
		After:     time.Unix(0, decoded.PublishedAt).UTC(),
		AfterID:   decoded.StoryID,
		Limit:     limit,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list stories after cursor: %w", err)
	}

	page := Page{Items: s.buildItems(ctx, stories)}
	if len(stories) == limit {
		last := stories[len(stories)-1]
		next, err := encodeCursor(pageCursor{
			PublishedAt: last.PublishedAt.UTC().UnixNano(),
			StoryID:     last.ID,
		})
		if err != nil {
			return Page{}, err
		}
		page.NextCursor = next
	}

	return page, nil
}

func (s *Service) offsetPage(ctx context.Context, subgenre enums.Subgenre, offset, limit int) (Page, error) {
	assembled, err := s.assembledCatalog(ctx, subgenre)
	if err != nil {
		return Page{}, err
	}

	if offset >= len(assembled) {
		return Page{Items: []Item{}}, nil
	}
	end := offset + limit
	if end > len(assembled) {
		end = len(assembled)
	}

	page := Page{Items: s.buildItems(ctx, assembled[offset:end])}
	if end < len(assembled) {
		next := end
		page.NextOffset = &next
	}

	return page, nil
}

func (s *Service) assembledCatalog(ctx context.Context, subgenre enums.Subgenre) ([]model.Story, error) {
	cacheKey := string(subgenre)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cacheKey)
		if err == nil && ok {
			return cached, nil
		}
	}

	stories, err := s.repo.List(ctx, pgrepo.StoryListQuery{Subgenre: subgenre})
	if err != nil {
		return nil, fmt.Errorf("list stories for assembly: %w", err)
	}

	assembled := rules.AssembleCatalog(stories)

	if s.cache != nil {
		// Cache miss on the next request is cheaper than a failed page now.
		_ = s.cache.Set(ctx, cacheKey, assembled, s.cfg.ProjectionTTL)
	}

	return assembled, nil
}

func (s *Service) buildItems(ctx context.Context, stories []model.Story) []Item {
	items := make([]Item, 0, len(stories))
	for _, story := range stories {
		items = append(items, Item{
			Story:    story,
			CoverURL: s.buildCoverURL(ctx, story.CoverKey),
		})
	}
	return items
}

func (s *Service) buildCoverURL(ctx context.Context, key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if s.coverSign == nil {
		return ""
	}

	url, err := s.coverSign.PresignGet(ctx, trimmed, coverURLTTL)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(url)
}

func decodeCursor(raw string) (pageCursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return pageCursor{}, ErrInvalidCursor
	}

	var cursor pageCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return pageCursor{}, ErrInvalidCursor
	}
	if cursor.PublishedAt <= 0 || strings.TrimSpace(cursor.StoryID) == "" {
		return pageCursor{}, ErrInvalidCursor
	}

	return cursor, nil
}

func encodeCursor(cursor pageCursor) (string, error) {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("marshal catalog cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}
