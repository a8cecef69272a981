package stories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrStoryNotFound     = errors.New("story not found")
	ErrNotPremium        = errors.New("story does not require unlocking")
	ErrAlreadyUnlocked   = errors.New("story already unlocked")
	ErrInsufficientCoins = errors.New("insufficient coin balance")
)

type Repository interface {
	FindByID(ctx context.Context, storyID string) (model.Story, error)
	ListBySeries(ctx context.Context, seriesID string) ([]model.Story, error)
	Insert(ctx context.Context, story model.Story) error
	UpdateCoinCost(ctx context.Context, storyID string, coinCost int) error
}

// Marks is the per-user story state surface: unlocks, reads, favorites.
type Marks interface {
	HasUnlock(ctx context.Context, userID, storyID string) (bool, error)
	MarkRead(ctx context.Context, userID, storyID string, at time.Time) error
	ToggleFavorite(ctx context.Context, userID, storyID string, at time.Time) (bool, error)
}

type Ledger interface {
	DebitForUnlock(ctx context.Context, userID, storyID string, coinCost int, at time.Time) (int, error)
}

// CatalogInvalidator drops cached catalog projections after a publish or a
// coin cost correction.
type CatalogInvalidator interface {
	InvalidateAll(ctx context.Context) error
}

type Service struct {
	repo        Repository
	marks       Marks
	ledger      Ledger
	invalidator CatalogInvalidator
	now         func() time.Time
}

// Detail is a story as one viewer sees it. Body is empty until the viewer
// has access.
type Detail struct {
	Story    model.Story
	Unlocked bool
}

type UnlockResult struct {
	NewBalance int
}

func NewService(repo Repository, marks Marks, ledger Ledger) *Service {
	return &Service{
		repo:   repo,
		marks:  marks,
		ledger: ledger,
		now:    time.Now,
	}
}

func (s *Service) AttachCatalogInvalidator(invalidator CatalogInvalidator) {
	s.invalidator = invalidator
}

// Detail returns a story with its body withheld unless the story is free or
// the viewer has unlocked it. An empty viewerID is an anonymous request.
func (s *Service) Detail(ctx context.Context, viewerID, storyID string) (Detail, error) {
	story, err := s.findStory(ctx, storyID)
	if err != nil {
		return Detail{}, err
	}

	unlocked := false
	if viewerID = strings.TrimSpace(viewerID); viewerID != "" && story.Premium {
		unlocked, err = s.marks.HasUnlock(ctx, viewerID, story.ID)
		if err != nil {
			return Detail{}, fmt.Errorf("check unlock: %w", err)
		}
	}

	if story.Premium && !unlocked {
		story.Body = ""
	}

	return Detail{Story: story, Unlocked: unlocked || !story.Premium}, nil
}

// SeriesParts lists every published part of a series in part order.
func (s *Service) SeriesParts(ctx context.Context, seriesID string) ([]model.Story, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, ErrValidation
	}

	parts, err := s.repo.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series parts: %w", err)
	}

	// Part listings are teasers, premium bodies stay withheld.
	for i := range parts {
		if parts[i].Premium {
			parts[i].Body = ""
		}
	}

	return parts, nil
}

// Unlock charges the story's coin cost and records the unlock. The debit and
// the unlock record share one transaction underneath, so a failed charge
// never leaves a dangling unlock.
func (s *Service) Unlock(ctx context.Context, userID, storyID string) (UnlockResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UnlockResult{}, ErrValidation
	}

	story, err := s.findStory(ctx, storyID)
	if err != nil {
		return UnlockResult{}, err
	}
	if !story.Premium || story.CoinCost <= 0 {
		return UnlockResult{}, ErrNotPremium
	}

	balance, err := s.ledger.DebitForUnlock(ctx, userID, story.ID, story.CoinCost, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, pgrepo.ErrAlreadyUnlocked):
			return UnlockResult{}, ErrAlreadyUnlocked
		case errors.Is(err, pgrepo.ErrInsufficientCoins):
			return UnlockResult{}, ErrInsufficientCoins
		}
		return UnlockResult{}, fmt.Errorf("debit for unlock: %w", err)
	}

	return UnlockResult{NewBalance: balance}, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, storyID string) error {
	userID = strings.TrimSpace(userID)
	storyID = strings.TrimSpace(storyID)
	if userID == "" || storyID == "" {
		return ErrValidation
	}

	if err := s.marks.MarkRead(ctx, userID, storyID, s.now().UTC()); err != nil {
		return fmt.Errorf("mark story read: %w", err)
	}
	return nil
}

func (s *Service) ToggleFavorite(ctx context.Context, userID, storyID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	storyID = strings.TrimSpace(storyID)
	if userID == "" || storyID == "" {
		return false, ErrValidation
	}

	favorited, err := s.marks.ToggleFavorite(ctx, userID, storyID, s.now().UTC())
	if err != nil {
		return false, fmt.Errorf("toggle story favorite: %w", err)
	}
	return favorited, nil
}

// Publish inserts a new story and drops cached catalog projections so it
// surfaces on the next page build.
func (s *Service) Publish(ctx context.Context, story model.Story) (model.Story, error) {
	story.Title = strings.TrimSpace(story.Title)
	story.ID = strings.TrimSpace(story.ID)
	if story.Title == "" || strings.TrimSpace(story.Body) == "" {
		return model.Story{}, ErrValidation
	}
	if _, err := enums.ParseSubgenre(string(story.Subgenre)); err != nil {
		return model.Story{}, ErrValidation
	}
	if story.CoinCost < 0 {
		return model.Story{}, ErrValidation
	}
	if (story.SeriesID == nil) != (story.PartNumber == nil) {
		return model.Story{}, ErrValidation
	}
	if story.PartNumber != nil && *story.PartNumber <= 0 {
		return model.Story{}, ErrValidation
	}

	if story.ID == "" {
		story.ID = uuid.NewString()
	}
	story.Premium = story.CoinCost > 0
	if story.PublishedAt.IsZero() {
		story.PublishedAt = s.now().UTC()
	}
	if story.WordCount == 0 {
		story.WordCount = len(strings.Fields(story.Body))
	}

	if err := s.repo.Insert(ctx, story); err != nil {
		return model.Story{}, fmt.Errorf("insert story: %w", err)
	}

	s.invalidateCatalog(ctx)
	return story, nil
}

// SetCoinCost corrects a story's coin cost out of band. Cost zero demotes
// the story to free.
func (s *Service) SetCoinCost(ctx context.Context, storyID string, coinCost int) error {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" || coinCost < 0 {
		return ErrValidation
	}

	if err := s.repo.UpdateCoinCost(ctx, storyID, coinCost); err != nil {
		if errors.Is(err, pgrepo.ErrStoryNotFound) {
			return ErrStoryNotFound
		}
		return fmt.Errorf("update coin cost: %w", err)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *Service) findStory(ctx context.Context, storyID string) (model.Story, error) {
	storyID = strings.TrimSpace(storyID)
	if storyID == "" {
		return model.Story{}, ErrValidation
	}

	story, err := s.repo.FindByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrStoryNotFound) {
			return model.Story{}, ErrStoryNotFound
		}
		return model.Story{}, fmt.Errorf("find story: %w", err)
	}
	return story, nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	// Stale projections expire on their own; invalidation is best effort.
	_ = s.invalidator.InvalidateAll(ctx)
}
