package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nictjader/siren-backend/internal/domain/enums"
	"github.com/nictjader/siren-backend/internal/domain/model"
	pgrepo "github.com/nictjader/siren-backend/internal/repo/postgres"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrProfileNotFound = errors.New("profile not found")
)

type Repository interface {
	FindByID(ctx context.Context, userID string) (model.UserProfile, error)
	UpdateSubgenrePrefs(ctx context.Context, userID string, prefs []enums.Subgenre) error
	ListUnlocks(ctx context.Context, userID string) ([]model.UnlockRecord, error)
	ListReadIDs(ctx context.Context, userID string) ([]string, error)
	ListFavoriteIDs(ctx context.Context, userID string) ([]string, error)
}

type StoryFinder interface {
	ListByIDs(ctx context.Context, storyIDs []string) ([]model.Story, error)
}

type Service struct {
	repo    Repository
	stories StoryFinder
}

// Overview is everything the account screen needs in one response: the
// profile plus the ids of unlocked, read and favorited stories.
type Overview struct {
	Profile     model.UserProfile
	Unlocks     []model.UnlockRecord
	ReadIDs     []string
	FavoriteIDs []string
}

func NewService(repo Repository, stories StoryFinder) *Service {
	return &Service{
		repo:    repo,
		stories: stories,
	}
}

func (s *Service) Overview(ctx context.Context, userID string) (Overview, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Overview{}, ErrValidation
	}

	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Overview{}, ErrProfileNotFound
		}
		return Overview{}, fmt.Errorf("find profile: %w", err)
	}

	unlocks, err := s.repo.ListUnlocks(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list unlocks: %w", err)
	}
	readIDs, err := s.repo.ListReadIDs(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list read marks: %w", err)
	}
	favoriteIDs, err := s.repo.ListFavoriteIDs(ctx, userID)
	if err != nil {
		return Overview{}, fmt.Errorf("list favorites: %w", err)
	}

	return Overview{
		Profile:     profile,
		Unlocks:     unlocks,
		ReadIDs:     readIDs,
		FavoriteIDs: favoriteIDs,
	}, nil
}

// Library hydrates the user's unlocked stories. Bodies stay withheld; the
// reader fetches a story through the detail endpoint.
func (s *Service) Library(ctx context.Context, userID string) ([]model.Story, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrValidation
	}

	unlocks, err := s.repo.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	if len(unlocks) == 0 {
		return []model.Story{}, nil
	}

	ids := make([]string, 0, len(unlocks))
	for _, u := range unlocks {
		ids = append(ids, u.StoryID)
	}

	stories, err := s.stories.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate library: %w", err)
	}

	for i := range stories {
		if stories[i].Premium {
			stories[i].Body = ""
		}
	}
	return stories, nil
}

// UpdatePreferences replaces the profile's subgenre preference list. Unknown
// values are rejected, duplicates collapse.
func (s *Service) UpdatePreferences(ctx context.Context, userID string, raw []string) ([]enums.Subgenre, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrValidation
	}

	seen := make(map[enums.Subgenre]struct{}, len(raw))
	prefs := make([]enums.Subgenre, 0, len(raw))
	for _, value := range raw {
		subgenre, err := enums.ParseSubgenre(value)
		if err != nil {
			return nil, ErrValidation
		}
		if _, dup := seen[subgenre]; dup {
			continue
		}
		seen[subgenre] = struct{}{}
		prefs = append(prefs, subgenre)
	}

	if err := s.repo.UpdateSubgenrePrefs(ctx, userID, prefs); err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update preferences: %w", err)
	}

	return prefs, nil
}
